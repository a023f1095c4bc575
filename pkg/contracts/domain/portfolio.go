package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// HoldingPosition is a derived net position for one symbol, either aggregated
// across every broker (Broker empty, Platforms listing contributors) or
// partitioned per broker. Positions are recomputed fresh on every aggregation
// run and never mutated incrementally.
type HoldingPosition struct {
	ClientID string `json:"client_id"`
	Symbol   string `json:"symbol"`
	// Broker is set on broker-level positions and empty on the aggregate view.
	Broker    string   `json:"broker,omitempty"`
	Platforms []string `json:"platforms,omitempty"`
	Currency  string   `json:"currency,omitempty"`

	NetQuantity   decimal.Decimal `json:"net_quantity"`
	AvgCost       decimal.Decimal `json:"avg_cost"`
	TotalInvested decimal.Decimal `json:"total_invested"`

	// Market-price derived fields are nil when no current price is available
	// for the symbol. A missing price is a reportable gap, not a failure.
	CurrentPrice   *decimal.Decimal `json:"current_price,omitempty"`
	MarketValue    *decimal.Decimal `json:"market_value,omitempty"`
	UnrealizedGain *decimal.Decimal `json:"unrealized_gain,omitempty"`
	AllocationPct  *decimal.Decimal `json:"allocation_pct,omitempty"`
}

// HasMarketPrice reports whether market-derived fields are populated.
func (p HoldingPosition) HasMarketPrice() bool {
	return p.CurrentPrice != nil
}

// SymbolGain is a (symbol, realized gain) pair used for top-mover lists.
type SymbolGain struct {
	Symbol string          `json:"symbol"`
	Gain   decimal.Decimal `json:"gain"`
}

// SymbolGainSummary is the per-symbol realized-gain rollup, split by
// holding-period bucket.
type SymbolGainSummary struct {
	ClientID      string          `json:"client_id"`
	Symbol        string          `json:"symbol"`
	TotalGain     decimal.Decimal `json:"total_gain"`
	ShortTermGain decimal.Decimal `json:"short_term_gain"`
	LongTermGain  decimal.Decimal `json:"long_term_gain"`
	Events        int             `json:"events"`
}

// ClientPortfolioSummary is the per-client overview. PlatformCount is derived
// from the set of brokers appearing in Trade records, never from the possibly
// smaller set of brokers with non-zero current holdings.
type ClientPortfolioSummary struct {
	ClientID      string   `json:"client_id"`
	SymbolsTraded int      `json:"symbols_traded"`
	TradeCount    int      `json:"trade_count"`
	BuyCount      int      `json:"buy_count"`
	SellCount     int      `json:"sell_count"`
	PlatformCount int      `json:"platform_count"`
	Platforms     []string `json:"platforms"`

	RealizedGainTotal decimal.Decimal `json:"realized_gain_total"`
	ShortTermGain     decimal.Decimal `json:"short_term_gain"`
	LongTermGain      decimal.Decimal `json:"long_term_gain"`
	GainEventCount    int             `json:"gain_event_count"`

	TopGainers []SymbolGain `json:"top_gainers,omitempty"`
	TopLosers  []SymbolGain `json:"top_losers,omitempty"`
}

// ClientResult is the sole contract exposed to the report assembler and the
// serving layer. No intermediate pipeline state leaks past it.
type ClientResult struct {
	ClientID    string    `json:"client_id"`
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`

	Holdings         []HoldingPosition      `json:"holdings"`
	HoldingsByBroker []HoldingPosition      `json:"holdings_by_broker"`
	Summary          ClientPortfolioSummary `json:"summary"`
	GainSummaries    []SymbolGainSummary    `json:"gain_summaries"`

	// Full validated record sets for the transaction-history and realized
	// gains views. Records excluded by critical validation are absent here
	// but present, with reasons, in Issues.
	Trades []Trade            `json:"trades"`
	Gains  []CapitalGainEvent `json:"gains"`

	Issues []ValidationIssue `json:"issues"`

	FilesRead    int `json:"files_read"`
	FilesSkipped int `json:"files_skipped"`
}

// NoData reports the distinct "no readable input at all" outcome, as opposed
// to zero holdings after valid processing.
func (r ClientResult) NoData() bool {
	return r.FilesRead == 0
}
