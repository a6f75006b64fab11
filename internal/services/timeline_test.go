package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/goker-dev/ledger/internal/domain"
)

const testWallet = "0x1234567890abcdef1234567890abcdef12345678"

func fillRecord(ts int64, coin, side, sz, px, fee string) map[string]any {
	return map[string]any{
		"time": ts,
		"coin": coin,
		"side": side,
		"sz":   sz,
		"px":   px,
		"fee":  fee,
	}
}

func fundingRecord(ts int64, coin, usdc, rate string) map[string]any {
	return map[string]any{
		"time":        ts,
		"coin":        coin,
		"usdc":        usdc,
		"fundingRate": rate,
	}
}

func TestBuildTimeline_MergesAndSorts(t *testing.T) {
	svc := NewTimelineService(zap.NewNop())

	fills := []map[string]any{
		fillRecord(1000, "BTC", "buy", "1.0", "50000", "5"),
		fillRecord(2000, "BTC", "sell", "1.0", "51000", "5"),
	}
	fills[0]["closedPnl"] = nil
	fills[1]["closedPnl"] = "1000"
	funding := []map[string]any{
		fundingRecord(1500, "BTC", "-2.5", "0.0001"),
	}

	timeline := svc.BuildTimeline(testWallet, fills, funding)

	require.Len(t, timeline.Events, 3)
	assert.Equal(t, domain.EventTypeFill, timeline.Events[0].Type())
	assert.Equal(t, domain.EventTypeFunding, timeline.Events[1].Type())
	assert.Equal(t, domain.EventTypeFill, timeline.Events[2].Type())

	first, ok := timeline.Events[0].(domain.FillEvent)
	require.True(t, ok)
	assert.Nil(t, first.RealizedPnl)
	assert.True(t, first.Fee.Equal(decimal.RequireFromString("5")))

	last, ok := timeline.Events[2].(domain.FillEvent)
	require.True(t, ok)
	require.NotNil(t, last.RealizedPnl)
	assert.True(t, last.RealizedPnl.Equal(decimal.RequireFromString("1000")))

	require.NotNil(t, timeline.FromTimestamp)
	require.NotNil(t, timeline.ToTimestamp)
	assert.Equal(t, time.UnixMilli(1000).UTC(), *timeline.FromTimestamp)
	assert.Equal(t, time.UnixMilli(2000).UTC(), *timeline.ToTimestamp)
}

func TestBuildTimeline_OrderingIsNonDecreasing(t *testing.T) {
	svc := NewTimelineService(zap.NewNop())

	fills := []map[string]any{
		fillRecord(5000, "ETH", "buy", "2", "3000", "1"),
		fillRecord(1000, "BTC", "buy", "1", "50000", "1"),
		fillRecord(9000, "SOL", "sell", "10", "150", "1"),
	}
	funding := []map[string]any{
		fundingRecord(7000, "ETH", "0.3", "0.0001"),
		fundingRecord(2000, "BTC", "-0.1", "0.0001"),
	}

	timeline := svc.BuildTimeline(testWallet, fills, funding)

	require.Len(t, timeline.Events, 5)
	for i := 1; i < len(timeline.Events); i++ {
		assert.False(t, timeline.Events[i].Time().Before(timeline.Events[i-1].Time()))
	}
}

func TestBuildTimeline_TiesKeepInputOrder(t *testing.T) {
	svc := NewTimelineService(zap.NewNop())

	fills := []map[string]any{
		fillRecord(1000, "BTC", "buy", "1", "50000", "1"),
		fillRecord(1000, "BTC", "sell", "2", "50000", "1"),
	}

	timeline := svc.BuildTimeline(testWallet, fills, nil)

	require.Len(t, timeline.Events, 2)
	first := timeline.Events[0].(domain.FillEvent)
	second := timeline.Events[1].(domain.FillEvent)
	assert.Equal(t, "buy", first.Side)
	assert.Equal(t, "sell", second.Side)
}

func TestBuildTimeline_DropsMalformedFills(t *testing.T) {
	svc := NewTimelineService(zap.NewNop())

	missingSize := fillRecord(1000, "BTC", "buy", "1", "50000", "1")
	delete(missingSize, "sz")
	badSize := fillRecord(2000, "BTC", "buy", "notanumber", "50000", "1")
	valid := fillRecord(3000, "BTC", "buy", "1", "50000", "1")

	tests := []struct {
		name  string
		fills []map[string]any
		want  int
	}{
		{"missing size is dropped", []map[string]any{missingSize, valid}, 1},
		{"unparsable size is dropped", []map[string]any{badSize, valid}, 1},
		{"missing time is dropped", []map[string]any{{"coin": "BTC", "side": "buy", "sz": "1", "px": "1"}, valid}, 1},
		{"empty coin is dropped", []map[string]any{fillRecord(1000, "", "buy", "1", "1", "1"), valid}, 1},
		{"non-string price is dropped", []map[string]any{{"time": int64(1000), "coin": "BTC", "side": "buy", "sz": "1", "px": 50000.0}, valid}, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			timeline := svc.BuildTimeline(testWallet, tc.fills, nil)
			assert.Len(t, timeline.Events, tc.want)
		})
	}
}

func TestBuildTimeline_DropsMalformedFunding(t *testing.T) {
	svc := NewTimelineService(zap.NewNop())

	missingAmount := fundingRecord(1000, "BTC", "0.5", "0.0001")
	delete(missingAmount, "usdc")

	timeline := svc.BuildTimeline(testWallet, nil, []map[string]any{
		missingAmount,
		fundingRecord(2000, "BTC", "0.5", "0.0001"),
	})

	require.Len(t, timeline.Events, 1)
	event := timeline.Events[0].(domain.FundingEvent)
	assert.True(t, event.Amount.Equal(decimal.RequireFromString("0.5")))
}

func TestBuildTimeline_OptionalFieldDefaults(t *testing.T) {
	svc := NewTimelineService(zap.NewNop())

	rec := map[string]any{
		"time": int64(1000),
		"coin": "BTC",
		"side": "buy",
		"sz":   "1",
		"px":   "50000",
		"hash": "0xabc",
	}

	timeline := svc.BuildTimeline(testWallet, []map[string]any{rec}, nil)

	require.Len(t, timeline.Events, 1)
	event := timeline.Events[0].(domain.FillEvent)
	assert.True(t, event.Fee.IsZero())
	assert.Nil(t, event.RealizedPnl)
	require.NotNil(t, event.TxHash)
	assert.Equal(t, "0xabc", *event.TxHash)
}

func TestBuildTimeline_FundingRateDefaultsToZero(t *testing.T) {
	svc := NewTimelineService(zap.NewNop())

	rec := map[string]any{
		"time": int64(1000),
		"coin": "BTC",
		"usdc": "-1.25",
	}

	timeline := svc.BuildTimeline(testWallet, nil, []map[string]any{rec})

	require.Len(t, timeline.Events, 1)
	event := timeline.Events[0].(domain.FundingEvent)
	assert.True(t, event.FundingRate.IsZero())
}

func TestBuildTimeline_FloatTimestampFromJSON(t *testing.T) {
	svc := NewTimelineService(zap.NewNop())

	// records decoded from JSON carry float64 numbers
	rec := fillRecord(0, "BTC", "buy", "1", "50000", "1")
	rec["time"] = 1700000000000.0

	timeline := svc.BuildTimeline(testWallet, []map[string]any{rec}, nil)

	require.Len(t, timeline.Events, 1)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), timeline.Events[0].Time())
}

func TestBuildTimeline_EmptyInput(t *testing.T) {
	svc := NewTimelineService(zap.NewNop())

	timeline := svc.BuildTimeline(testWallet, nil, nil)

	assert.Equal(t, testWallet, timeline.Wallet)
	assert.Empty(t, timeline.Events)
	assert.Nil(t, timeline.FromTimestamp)
	assert.Nil(t, timeline.ToTimestamp)
}
