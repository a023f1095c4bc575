// Package aggregator derives per-client portfolio views from validated
// records. Every derivation is recomputed fresh from the full record set on
// each run; there is no incremental state to drift.
package aggregator

import (
	"context"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rahulprajapat123/investment-manager/pkg/contracts/domain"
)

// topMoverCount bounds the gainer/loser lists in the summary.
const topMoverCount = 5

// PriceLookup supplies current market prices. Absence of a price for a
// symbol is an expected outcome, not an error.
type PriceLookup interface {
	Price(ctx context.Context, symbol string) (decimal.Decimal, bool)
}

// NoPrices is a PriceLookup with no data; market-derived fields stay unset.
type NoPrices struct{}

// Price always reports no price available.
func (NoPrices) Price(context.Context, string) (decimal.Decimal, bool) { return decimal.Zero, false }

// Aggregator computes portfolio views for one client at a time.
type Aggregator struct {
	logger *slog.Logger
	prices PriceLookup
}

// Output bundles the derived views plus the advisory issues raised while
// deriving them (negative net positions, missing market prices).
type Output struct {
	Holdings         []domain.HoldingPosition
	HoldingsByBroker []domain.HoldingPosition
	Summary          domain.ClientPortfolioSummary
	GainSummaries    []domain.SymbolGainSummary
	Issues           []domain.ValidationIssue
}

// New creates an aggregator. prices may be nil when no market data source is
// configured.
func New(logger *slog.Logger, prices PriceLookup) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if prices == nil {
		prices = NoPrices{}
	}
	return &Aggregator{logger: logger, prices: prices}
}

// Aggregate derives all portfolio views for one client from its validated
// records. Calling it twice with the same input yields identical output.
func (a *Aggregator) Aggregate(ctx context.Context, clientID string, trades []domain.Trade, gains []domain.CapitalGainEvent) Output {
	var out Output

	holdings, issues := a.computeHoldings(ctx, clientID, trades, "")
	out.Holdings = holdings
	out.Issues = append(out.Issues, issues...)

	flagged := make(map[string]struct{})
	for _, issue := range issues {
		if issue.Code == domain.IssueNegativePosition {
			flagged[issue.Field] = struct{}{}
		}
	}

	// A broker whose sells exceed its own buys is an anomaly even when the
	// aggregate position nets out to zero or better. Symbols already flagged
	// at the aggregate level are not reported a second time.
	brokerHoldings, brokerIssues := a.computeByBroker(ctx, clientID, trades)
	out.HoldingsByBroker = brokerHoldings
	for _, issue := range brokerIssues {
		if _, seen := flagged[issue.Field]; seen && issue.Code == domain.IssueNegativePosition {
			continue
		}
		out.Issues = append(out.Issues, issue)
	}

	out.GainSummaries = summarizeGains(clientID, gains)
	out.Summary = buildSummary(clientID, trades, gains, out.GainSummaries)

	a.logger.InfoContext(ctx, "aggregated client portfolio",
		slog.String("client_id", clientID),
		slog.Int("holdings", len(out.Holdings)),
		slog.Int("broker_holdings", len(out.HoldingsByBroker)),
		slog.Int("gain_symbols", len(out.GainSummaries)),
		slog.Int("platforms", out.Summary.PlatformCount))

	return out
}

// buildSummary derives the client overview. The platform set comes from the
// brokers on trade records, not from the brokers left holding positions: a
// platform fully exited still counts.
func buildSummary(clientID string, trades []domain.Trade, gains []domain.CapitalGainEvent, perSymbol []domain.SymbolGainSummary) domain.ClientPortfolioSummary {
	summary := domain.ClientPortfolioSummary{ClientID: clientID}

	symbols := make(map[string]struct{})
	platforms := make(map[string]struct{})
	for _, t := range trades {
		symbols[t.Symbol] = struct{}{}
		platforms[t.Broker] = struct{}{}
		summary.TradeCount++
		if t.Action == domain.ActionBuy {
			summary.BuyCount++
		} else {
			summary.SellCount++
		}
	}
	summary.SymbolsTraded = len(symbols)
	summary.PlatformCount = len(platforms)
	summary.Platforms = sortedKeys(platforms)

	for _, g := range gains {
		summary.RealizedGainTotal = summary.RealizedGainTotal.Add(g.GainLoss)
		switch g.HoldingPeriod {
		case domain.HoldingPeriodShort:
			summary.ShortTermGain = summary.ShortTermGain.Add(g.GainLoss)
		case domain.HoldingPeriodLong:
			summary.LongTermGain = summary.LongTermGain.Add(g.GainLoss)
		}
		summary.GainEventCount++
	}

	summary.TopGainers, summary.TopLosers = topMovers(perSymbol)
	return summary
}

// topMovers picks the best and worst realized performers by total gain.
func topMovers(perSymbol []domain.SymbolGainSummary) (gainers, losers []domain.SymbolGain) {
	pairs := make([]domain.SymbolGain, 0, len(perSymbol))
	for _, s := range perSymbol {
		pairs = append(pairs, domain.SymbolGain{Symbol: s.Symbol, Gain: s.TotalGain})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if !pairs[i].Gain.Equal(pairs[j].Gain) {
			return pairs[i].Gain.GreaterThan(pairs[j].Gain)
		}
		return pairs[i].Symbol < pairs[j].Symbol
	})

	for _, p := range pairs {
		if len(gainers) == topMoverCount || !p.Gain.IsPositive() {
			break
		}
		gainers = append(gainers, p)
	}
	for i := len(pairs) - 1; i >= 0; i-- {
		if len(losers) == topMoverCount || !pairs[i].Gain.IsNegative() {
			break
		}
		losers = append(losers, pairs[i])
	}
	return gainers, losers
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
