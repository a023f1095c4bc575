package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeAction is the side of a trade. The set is closed: anything outside
// Buy/Sell is a validation failure, never a pass-through.
type TradeAction string

const (
	ActionBuy  TradeAction = "Buy"
	ActionSell TradeAction = "Sell"
)

// Valid reports whether the action is one of the two allowed values.
func (a TradeAction) Valid() bool {
	return a == ActionBuy || a == ActionSell
}

// Trade is a canonical executed-trade record, independent of the broker
// format it was ingested from. All numeric fields are exact decimals; they
// are parsed from source strings and never pass through float64.
type Trade struct {
	ClientID  string          `json:"client_id" validate:"required"`
	Broker    string          `json:"broker" validate:"required"`
	Account   string          `json:"account,omitempty"`
	Symbol    string          `json:"symbol" validate:"required"`
	Action    TradeAction     `json:"action" validate:"required,oneof=Buy Sell"`
	TradeDate time.Time       `json:"trade_date"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	// Amount is the broker-reported trade value. It is taken as given and
	// cross-checked against Quantity*Price, not re-derived.
	Amount   decimal.Decimal `json:"amount"`
	Fees     decimal.Decimal `json:"fees"`
	Exchange string          `json:"exchange,omitempty"`
	Currency string          `json:"currency,omitempty"`
	Source   RecordRef       `json:"source"`
}

// HoldingPeriod is the tax classification of a realized gain.
type HoldingPeriod string

const (
	HoldingPeriodShort HoldingPeriod = "Short-term"
	HoldingPeriodLong  HoldingPeriod = "Long-term"
)

// Valid reports whether the holding period is one of the two allowed values.
func (h HoldingPeriod) Valid() bool {
	return h == HoldingPeriodShort || h == HoldingPeriodLong
}

// CapitalGainEvent is a canonical realized-sale record. Capital gains are
// kept in their own container end to end; merging them into the Trade
// stream corrupts the action field and is structurally impossible here.
type CapitalGainEvent struct {
	ClientID      string          `json:"client_id" validate:"required"`
	Broker        string          `json:"broker" validate:"required"`
	Account       string          `json:"account,omitempty"`
	Symbol        string          `json:"symbol" validate:"required"`
	ISIN          string          `json:"isin,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	BuyDate       time.Time       `json:"buy_date"`
	SellDate      time.Time       `json:"sell_date"`
	BuyPrice      decimal.Decimal `json:"buy_price"`
	SellPrice     decimal.Decimal `json:"sell_price"`
	CostBasis     decimal.Decimal `json:"cost_basis"`
	Proceeds      decimal.Decimal `json:"proceeds"`
	GainLoss      decimal.Decimal `json:"gain_loss"`
	HoldingPeriod HoldingPeriod   `json:"holding_period" validate:"required,oneof=Short-term Long-term"`
	Source        RecordRef       `json:"source"`
}
