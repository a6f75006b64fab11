package services

import (
	"sort"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"github.com/goker-dev/ledger/internal/domain"
)

// PnlCalculator derives profit-and-loss figures from a timeline. All
// operations are total: for any well-typed timeline they produce a result,
// never an error. Aggregation uses decimal addition and subtraction only.
type PnlCalculator struct{}

// NewPnlCalculator creates a new PnlCalculator instance.
func NewPnlCalculator() *PnlCalculator {
	return &PnlCalculator{}
}

// CalculateSummary walks the timeline once and aggregates realized PnL, fees
// and funding globally and per coin. The unrealized figure is supplied by the
// caller (read from the exchange state snapshot, not derived from fills).
func (c *PnlCalculator) CalculateSummary(wallet string, timeline domain.Timeline, unrealizedPnl decimal.Decimal) domain.PnlSummary {
	realizedPnl := decimal.Zero
	fundingPnl := decimal.Zero
	tradingFees := decimal.Zero
	byAsset := make(map[string]*domain.AssetPnl)

	// per-asset entries are created lazily, only when an event references the coin
	assetEntry := func(coin string) *domain.AssetPnl {
		entry, ok := byAsset[coin]
		if !ok {
			entry = &domain.AssetPnl{
				Coin:        coin,
				RealizedPnl: decimal.Zero,
				FundingPnl:  decimal.Zero,
				Fees:        decimal.Zero,
				NetPnl:      decimal.Zero,
			}
			byAsset[coin] = entry
		}
		return entry
	}

	for _, event := range timeline.Events {
		switch e := event.(type) {
		case domain.FillEvent:
			tradingFees = tradingFees.Add(e.Fee)

			entry := assetEntry(e.Coin)
			entry.Fees = entry.Fees.Add(e.Fee)
			entry.TradeCount++

			if e.RealizedPnl != nil {
				realizedPnl = realizedPnl.Add(*e.RealizedPnl)
				entry.RealizedPnl = entry.RealizedPnl.Add(*e.RealizedPnl)
			}
		case domain.FundingEvent:
			fundingPnl = fundingPnl.Add(e.Amount)

			entry := assetEntry(e.Coin)
			entry.FundingPnl = entry.FundingPnl.Add(e.Amount)
		default:
			// other variants do not contribute to the summary
		}
	}

	for _, entry := range byAsset {
		entry.NetPnl = entry.RealizedPnl.Add(entry.FundingPnl).Sub(entry.Fees)
	}

	totalPnl := realizedPnl.Add(unrealizedPnl)
	netPnl := totalPnl.Add(fundingPnl).Sub(tradingFees)

	// an empty timeline yields a zero-width period at "now"
	now := time.Now().UTC()
	periodStart, periodEnd := now, now
	if timeline.FromTimestamp != nil {
		periodStart = *timeline.FromTimestamp
	}
	if timeline.ToTimestamp != nil {
		periodEnd = *timeline.ToTimestamp
	}

	return domain.PnlSummary{
		Wallet:        wallet,
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		RealizedPnl:   realizedPnl,
		UnrealizedPnl: unrealizedPnl,
		TotalPnl:      totalPnl,
		FundingPnl:    fundingPnl,
		TradingFees:   tradingFees,
		NetPnl:        netPnl,
		ByAsset:       byAsset,
	}
}

// CalculateDaily buckets events by UTC calendar date and returns one entry
// per date that has at least one event, in ascending date order, with a
// running cumulative total. An empty timeline yields an empty slice.
func (c *PnlCalculator) CalculateDaily(timeline domain.Timeline) []domain.DailyPnl {
	dailyByDate := make(map[string]decimal.Decimal)

	for _, event := range timeline.Events {
		date := event.Time().UTC().Format("2006-01-02")

		var pnl decimal.Decimal
		switch e := event.(type) {
		case domain.FillEvent:
			pnl = e.Fee.Neg()
			if e.RealizedPnl != nil {
				pnl = e.RealizedPnl.Sub(e.Fee)
			}
		case domain.FundingEvent:
			pnl = e.Amount
		case domain.LiquidationEvent:
			pnl = e.Loss.Neg()
		default:
			pnl = decimal.Zero
		}

		dailyByDate[date] = dailyByDate[date].Add(pnl)
	}

	// lexicographic order on YYYY-MM-DD is chronological order
	dates := make([]string, 0, len(dailyByDate))
	for date := range dailyByDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	daily := make([]domain.DailyPnl, 0, len(dates))
	cumulative := decimal.Zero
	for _, date := range dates {
		cumulative = cumulative.Add(dailyByDate[date])
		daily = append(daily, domain.DailyPnl{
			Date:          date,
			Pnl:           dailyByDate[date],
			CumulativePnl: cumulative,
		})
	}
	return daily
}

// UnrealizedFromState sums the exchange-reported unrealizedPnl over all open
// positions in a raw clearinghouse state snapshot. Positions with a missing
// or unparsable figure contribute zero; a snapshot without positions yields
// zero. The figure is trusted verbatim, never recomputed from fills.
func (c *PnlCalculator) UnrealizedFromState(state any) decimal.Decimal {
	total := decimal.Zero

	raw, err := jsonpath.Get("$.assetPositions", state)
	if err != nil {
		return total
	}
	positions, ok := raw.([]any)
	if !ok {
		return total
	}

	for _, position := range positions {
		value, err := jsonpath.Get("$.position.unrealizedPnl", position)
		if err != nil {
			continue
		}
		str, ok := value.(string)
		if !ok {
			continue
		}
		pnl, err := decimal.NewFromString(str)
		if err != nil {
			continue
		}
		total = total.Add(pnl)
	}
	return total
}
