package aggregator

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rahulprajapat123/investment-manager/internal/normalizer"
	"github.com/rahulprajapat123/investment-manager/pkg/contracts/domain"
)

// symbolBook accumulates the per-symbol trade totals a position derives from.
type symbolBook struct {
	buyQty    decimal.Decimal
	buyValue  decimal.Decimal
	sellQty   decimal.Decimal
	platforms map[string]struct{}
	currency  string
}

// computeHoldings derives net positions from trades. broker is empty for the
// aggregate view; market-price fields and allocation percentages are only
// attached there. Symbols with a zero net position are exited and dropped; a
// negative net position is dropped too but reported, since sells exceeding
// recorded buys point at missing input files rather than a short position.
func (a *Aggregator) computeHoldings(ctx context.Context, clientID string, trades []domain.Trade, broker string) ([]domain.HoldingPosition, []domain.ValidationIssue) {
	books := make(map[string]*symbolBook)
	for _, t := range trades {
		book, ok := books[t.Symbol]
		if !ok {
			book = &symbolBook{platforms: make(map[string]struct{})}
			books[t.Symbol] = book
		}
		book.platforms[t.Broker] = struct{}{}
		if book.currency == "" {
			book.currency = t.Currency
		}
		switch t.Action {
		case domain.ActionBuy:
			book.buyQty = book.buyQty.Add(t.Quantity)
			book.buyValue = book.buyValue.Add(t.Quantity.Mul(t.Price))
		case domain.ActionSell:
			book.sellQty = book.sellQty.Add(t.Quantity)
		}
	}

	var positions []domain.HoldingPosition
	var issues []domain.ValidationIssue

	for symbol, book := range books {
		net := book.buyQty.Sub(book.sellQty)
		if net.IsZero() {
			continue
		}
		if net.IsNegative() {
			issues = append(issues, domain.NewIssue(domain.SeverityWarning, domain.IssueNegativePosition, symbol,
				fmt.Sprintf("symbol %s nets to %s: sells exceed recorded buys, input files are likely missing", symbol, net),
				domain.RecordRef{ClientID: clientID, Broker: broker}))
			continue
		}

		// Weighted average cost over the full buy history, not the net
		// position: sold lots still shaped the cost of what remains.
		avgCost := decimal.Zero
		if book.buyQty.IsPositive() {
			avgCost = book.buyValue.DivRound(book.buyQty, normalizer.PricePlaces)
		}

		pos := domain.HoldingPosition{
			ClientID:      clientID,
			Symbol:        symbol,
			Broker:        broker,
			Currency:      book.currency,
			NetQuantity:   net,
			AvgCost:       avgCost,
			TotalInvested: normalizer.RoundMoney(net.Mul(avgCost)),
		}
		if broker == "" {
			pos.Platforms = sortedKeys(book.platforms)
		}
		positions = append(positions, pos)
	}

	sort.Slice(positions, func(i, j int) bool { return positions[i].Symbol < positions[j].Symbol })

	if broker == "" {
		issues = append(issues, a.attachMarketData(ctx, positions)...)
	}

	return positions, issues
}

// computeByBroker derives the broker-partitioned positions.
func (a *Aggregator) computeByBroker(ctx context.Context, clientID string, trades []domain.Trade) ([]domain.HoldingPosition, []domain.ValidationIssue) {
	byBroker := make(map[string][]domain.Trade)
	for _, t := range trades {
		byBroker[t.Broker] = append(byBroker[t.Broker], t)
	}

	brokers := make([]string, 0, len(byBroker))
	for b := range byBroker {
		brokers = append(brokers, b)
	}
	sort.Strings(brokers)

	var positions []domain.HoldingPosition
	var issues []domain.ValidationIssue
	for _, b := range brokers {
		brokerPositions, brokerIssues := a.computeHoldings(ctx, clientID, byBroker[b], b)
		positions = append(positions, brokerPositions...)
		issues = append(issues, brokerIssues...)
	}
	return positions, issues
}

// attachMarketData fills the market-derived fields on positions whose symbol
// has a current price, and computes allocation percentages over the priced
// subset. Symbols without a price are reported and left with nil market
// fields.
func (a *Aggregator) attachMarketData(ctx context.Context, positions []domain.HoldingPosition) []domain.ValidationIssue {
	var issues []domain.ValidationIssue
	totalValue := decimal.Zero

	for i := range positions {
		price, ok := a.prices.Price(ctx, positions[i].Symbol)
		if !ok {
			issues = append(issues, domain.NewIssue(domain.SeverityWarning, domain.IssueMissingPrice, "",
				fmt.Sprintf("no current market price for symbol %s", positions[i].Symbol),
				domain.RecordRef{ClientID: positions[i].ClientID}))
			continue
		}
		value := normalizer.RoundMoney(positions[i].NetQuantity.Mul(price))
		unrealized := value.Sub(positions[i].TotalInvested)
		positions[i].CurrentPrice = &price
		positions[i].MarketValue = &value
		positions[i].UnrealizedGain = &unrealized
		totalValue = totalValue.Add(value)
	}

	if totalValue.IsPositive() {
		for i := range positions {
			if positions[i].MarketValue == nil {
				continue
			}
			pct := positions[i].MarketValue.Mul(decimal.NewFromInt(100)).DivRound(totalValue, normalizer.MoneyPlaces)
			positions[i].AllocationPct = &pct
		}
	}

	return issues
}
