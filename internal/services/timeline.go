package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/goker-dev/ledger/internal/domain"
)

// TimelineService reconstructs a wallet's chronological activity from raw
// exchange records. A record missing a required field is dropped silently:
// malformed input degrades to fewer events, never an error.
type TimelineService struct {
	logger *zap.Logger
}

// NewTimelineService creates a new TimelineService instance.
func NewTimelineService(logger *zap.Logger) *TimelineService {
	return &TimelineService{logger: logger}
}

// BuildTimeline normalizes raw fills and funding payments into typed events,
// merges them and stable-sorts by timestamp ascending. The span covers the
// first and last event after sorting; both are nil when nothing survived.
func (s *TimelineService) BuildTimeline(wallet string, fills, funding []map[string]any) domain.Timeline {
	events := make([]domain.TimelineEvent, 0, len(fills)+len(funding))

	for _, fill := range fills {
		if event, ok := s.parseFill(fill); ok {
			events = append(events, event)
		}
	}
	for _, payment := range funding {
		if event, ok := s.parseFunding(payment); ok {
			events = append(events, event)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time().Before(events[j].Time())
	})

	timeline := domain.Timeline{Wallet: wallet, Events: events}
	if len(events) > 0 {
		first := events[0].Time()
		last := events[len(events)-1].Time()
		timeline.FromTimestamp = &first
		timeline.ToTimestamp = &last
	}
	return timeline
}

// parseFill requires time, coin, side, sz and px. Fee defaults to zero,
// closedPnl and hash stay optional.
func (s *TimelineService) parseFill(rec map[string]any) (domain.FillEvent, bool) {
	timestamp, ok := timestampField(rec, "time")
	if !ok {
		s.skip("fill", "time")
		return domain.FillEvent{}, false
	}
	coin, ok := stringField(rec, "coin")
	if !ok || coin == "" {
		s.skip("fill", "coin")
		return domain.FillEvent{}, false
	}
	side, ok := stringField(rec, "side")
	if !ok {
		s.skip("fill", "side")
		return domain.FillEvent{}, false
	}
	size, ok := decimalField(rec, "sz")
	if !ok {
		s.skip("fill", "sz")
		return domain.FillEvent{}, false
	}
	price, ok := decimalField(rec, "px")
	if !ok {
		s.skip("fill", "px")
		return domain.FillEvent{}, false
	}

	fee, ok := decimalField(rec, "fee")
	if !ok {
		fee = decimal.Zero
	}

	var realizedPnl *decimal.Decimal
	if pnl, ok := decimalField(rec, "closedPnl"); ok {
		realizedPnl = &pnl
	}

	var txHash *string
	if hash, ok := stringField(rec, "hash"); ok {
		txHash = &hash
	}

	return domain.FillEvent{
		Timestamp:   timestamp,
		Coin:        coin,
		Side:        side,
		Size:        size,
		Price:       price,
		Fee:         fee,
		RealizedPnl: realizedPnl,
		TxHash:      txHash,
	}, true
}

// parseFunding requires time, coin and the usdc amount. The funding rate is
// informational and defaults to zero.
func (s *TimelineService) parseFunding(rec map[string]any) (domain.FundingEvent, bool) {
	timestamp, ok := timestampField(rec, "time")
	if !ok {
		s.skip("funding", "time")
		return domain.FundingEvent{}, false
	}
	coin, ok := stringField(rec, "coin")
	if !ok {
		s.skip("funding", "coin")
		return domain.FundingEvent{}, false
	}
	amount, ok := decimalField(rec, "usdc")
	if !ok {
		s.skip("funding", "usdc")
		return domain.FundingEvent{}, false
	}

	rate, ok := decimalField(rec, "fundingRate")
	if !ok {
		rate = decimal.Zero
	}

	return domain.FundingEvent{
		Timestamp:   timestamp,
		Coin:        coin,
		Amount:      amount,
		FundingRate: rate,
	}, true
}

func (s *TimelineService) skip(kind, field string) {
	s.logger.Debug("skipping malformed record",
		zap.String("kind", kind),
		zap.String("field", field))
}

// timestampField reads integer milliseconds since epoch as a UTC instant.
// JSON numbers arrive as float64, hence the cast.
func timestampField(rec map[string]any, key string) (time.Time, bool) {
	value, ok := rec[key]
	if !ok || value == nil {
		return time.Time{}, false
	}
	ms, err := cast.ToInt64E(value)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}

func stringField(rec map[string]any, key string) (string, bool) {
	value, ok := rec[key]
	if !ok {
		return "", false
	}
	str, ok := value.(string)
	return str, ok
}

func decimalField(rec map[string]any, key string) (decimal.Decimal, bool) {
	str, ok := stringField(rec, key)
	if !ok {
		return decimal.Decimal{}, false
	}
	dec, err := decimal.NewFromString(str)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return dec, true
}
