package domain

import (
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// EventType identifies a timeline event variant.
type EventType string

const (
	EventTypeFill        EventType = "fill"
	EventTypeFunding     EventType = "funding"
	EventTypeLiquidation EventType = "liquidation"
	EventTypeDeposit     EventType = "deposit"
	EventTypeWithdrawal  EventType = "withdrawal"
)

// TimelineEvent is one entry in a wallet's reconstructed activity. The set of
// variants is closed; every event carries exactly one timestamp used both for
// ordering and daily bucketing, and is immutable once constructed.
type TimelineEvent interface {
	Type() EventType
	Time() time.Time
}

// FillEvent is a single trade execution. Fee and realized PnL are exact
// decimals so they can be summed across thousands of records without drift.
type FillEvent struct {
	Timestamp   time.Time        `json:"timestamp"`
	Coin        string           `json:"coin"`
	Side        string           `json:"side"`
	Size        decimal.Decimal  `json:"size"`
	Price       decimal.Decimal  `json:"price"`
	Fee         decimal.Decimal  `json:"fee"`
	RealizedPnl *decimal.Decimal `json:"realized_pnl"`
	TxHash      *string          `json:"tx_hash"`
}

func (e FillEvent) Type() EventType { return EventTypeFill }
func (e FillEvent) Time() time.Time { return e.Timestamp }

// FundingEvent is a periodic funding payment. Amount is signed: positive
// means received, negative means paid. The rate is informational only.
type FundingEvent struct {
	Timestamp   time.Time       `json:"timestamp"`
	Coin        string          `json:"coin"`
	Amount      decimal.Decimal `json:"amount"`
	FundingRate decimal.Decimal `json:"funding_rate"`
}

func (e FundingEvent) Type() EventType { return EventTypeFunding }
func (e FundingEvent) Time() time.Time { return e.Timestamp }

// LiquidationEvent is a forced position close. Loss enters the daily series
// as a negative contribution. Not produced by the current normalizer.
type LiquidationEvent struct {
	Timestamp time.Time       `json:"timestamp"`
	Coin      string          `json:"coin"`
	Size      decimal.Decimal `json:"size"`
	Price     decimal.Decimal `json:"price"`
	Loss      decimal.Decimal `json:"loss"`
}

func (e LiquidationEvent) Type() EventType { return EventTypeLiquidation }
func (e LiquidationEvent) Time() time.Time { return e.Timestamp }

// DepositEvent is a transfer into the account. Not produced by the current
// normalizer.
type DepositEvent struct {
	Timestamp time.Time       `json:"timestamp"`
	Amount    decimal.Decimal `json:"amount"`
	Token     string          `json:"token"`
}

func (e DepositEvent) Type() EventType { return EventTypeDeposit }
func (e DepositEvent) Time() time.Time { return e.Timestamp }

// WithdrawalEvent is a transfer out of the account. Not produced by the
// current normalizer.
type WithdrawalEvent struct {
	Timestamp time.Time       `json:"timestamp"`
	Amount    decimal.Decimal `json:"amount"`
	Token     string          `json:"token"`
}

func (e WithdrawalEvent) Type() EventType { return EventTypeWithdrawal }
func (e WithdrawalEvent) Time() time.Time { return e.Timestamp }

func (e FillEvent) MarshalJSON() ([]byte, error) {
	type alias FillEvent
	return json.Marshal(struct {
		EventType EventType `json:"event_type"`
		alias
	}{e.Type(), alias(e)})
}

func (e FundingEvent) MarshalJSON() ([]byte, error) {
	type alias FundingEvent
	return json.Marshal(struct {
		EventType EventType `json:"event_type"`
		alias
	}{e.Type(), alias(e)})
}

func (e LiquidationEvent) MarshalJSON() ([]byte, error) {
	type alias LiquidationEvent
	return json.Marshal(struct {
		EventType EventType `json:"event_type"`
		alias
	}{e.Type(), alias(e)})
}

func (e DepositEvent) MarshalJSON() ([]byte, error) {
	type alias DepositEvent
	return json.Marshal(struct {
		EventType EventType `json:"event_type"`
		alias
	}{e.Type(), alias(e)})
}

func (e WithdrawalEvent) MarshalJSON() ([]byte, error) {
	type alias WithdrawalEvent
	return json.Marshal(struct {
		EventType EventType `json:"event_type"`
		alias
	}{e.Type(), alias(e)})
}

// Timeline is a wallet's activity ordered by timestamp ascending, with ties
// kept in input order. FromTimestamp and ToTimestamp are nil when the
// sequence is empty. Built fresh per request and never mutated afterwards.
type Timeline struct {
	Wallet        string          `json:"wallet"`
	Events        []TimelineEvent `json:"events"`
	FromTimestamp *time.Time      `json:"from_timestamp"`
	ToTimestamp   *time.Time      `json:"to_timestamp"`
}
