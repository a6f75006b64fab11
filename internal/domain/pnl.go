package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetPnl is the per-coin PnL breakdown. NetPnl = realized + funding - fees.
type AssetPnl struct {
	Coin        string          `json:"coin"`
	RealizedPnl decimal.Decimal `json:"realized_pnl"`
	FundingPnl  decimal.Decimal `json:"funding_pnl"`
	Fees        decimal.Decimal `json:"fees"`
	NetPnl      decimal.Decimal `json:"net_pnl"`
	TradeCount  int             `json:"trade_count"`
}

// PnlSummary aggregates a timeline into account-level totals.
// TotalPnl = realized + unrealized; NetPnl = total + funding - fees.
// ByAsset only contains coins referenced by at least one event.
type PnlSummary struct {
	Wallet        string               `json:"wallet"`
	PeriodStart   time.Time            `json:"period_start"`
	PeriodEnd     time.Time            `json:"period_end"`
	RealizedPnl   decimal.Decimal      `json:"realized_pnl"`
	UnrealizedPnl decimal.Decimal      `json:"unrealized_pnl"`
	TotalPnl      decimal.Decimal      `json:"total_pnl"`
	FundingPnl    decimal.Decimal      `json:"funding_pnl"`
	TradingFees   decimal.Decimal      `json:"trading_fees"`
	NetPnl        decimal.Decimal      `json:"net_pnl"`
	ByAsset       map[string]*AssetPnl `json:"by_asset"`
}

// DailyPnl is one UTC calendar date's net PnL contribution plus the running
// cumulative PnL up to and including that date.
type DailyPnl struct {
	Date          string          `json:"date"`
	Pnl           decimal.Decimal `json:"pnl"`
	CumulativePnl decimal.Decimal `json:"cumulative_pnl"`
}
