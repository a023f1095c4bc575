package aggregator

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulprajapat123/investment-manager/pkg/contracts/domain"
)

type stubPrices map[string]string

func (s stubPrices) Price(_ context.Context, symbol string) (decimal.Decimal, bool) {
	v, ok := s[symbol]
	if !ok {
		return decimal.Zero, false
	}
	return decimal.RequireFromString(v), true
}

func trade(broker, symbol string, action domain.TradeAction, qty, price string, day int) domain.Trade {
	return domain.Trade{
		ClientID:  "C001",
		Broker:    broker,
		Symbol:    symbol,
		Action:    action,
		TradeDate: time.Date(2023, time.April, day, 0, 0, 0, 0, time.UTC),
		Quantity:  decimal.RequireFromString(qty),
		Price:     decimal.RequireFromString(price),
	}
}

func gainEvent(symbol string, period domain.HoldingPeriod, gain string) domain.CapitalGainEvent {
	return domain.CapitalGainEvent{
		ClientID:      "C001",
		Broker:        "Zerodha",
		Symbol:        symbol,
		Quantity:      decimal.NewFromInt(1),
		BuyDate:       time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC),
		SellDate:      time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC),
		GainLoss:      decimal.RequireFromString(gain),
		HoldingPeriod: period,
	}
}

func TestAggregateWeightedAverageCost(t *testing.T) {
	a := New(nil, nil)

	// Two buy lots at different prices, then a partial sell. The average
	// cost comes from the full buy history: 1600 / 150 = 10.6667.
	trades := []domain.Trade{
		trade("Zerodha", "INFY", domain.ActionBuy, "100", "10", 1),
		trade("Zerodha", "INFY", domain.ActionBuy, "50", "12", 2),
		trade("Zerodha", "INFY", domain.ActionSell, "30", "15", 3),
	}

	out := a.Aggregate(context.Background(), "C001", trades, nil)
	require.Len(t, out.Holdings, 1)

	h := out.Holdings[0]
	assert.True(t, h.NetQuantity.Equal(decimal.NewFromInt(120)), "net %s", h.NetQuantity)
	assert.True(t, h.AvgCost.Equal(decimal.RequireFromString("10.6667")), "avg %s", h.AvgCost)
	assert.Equal(t, []string{"Zerodha"}, h.Platforms)
}

func TestAggregateExitedPositionDropped(t *testing.T) {
	a := New(nil, nil)

	trades := []domain.Trade{
		trade("Zerodha", "TCS", domain.ActionBuy, "10", "3000", 1),
		trade("Zerodha", "TCS", domain.ActionSell, "10", "3200", 2),
	}

	out := a.Aggregate(context.Background(), "C001", trades, nil)
	assert.Empty(t, out.Holdings)
	assert.Empty(t, out.Issues)
}

func TestAggregateNegativePositionIsAnomalyNotShort(t *testing.T) {
	a := New(nil, nil)

	// 830 sold against 500 bought: the missing buys point at absent input
	// files. No short position is reported.
	trades := []domain.Trade{
		trade("Zerodha", "SBIN", domain.ActionBuy, "500", "550", 1),
		trade("Zerodha", "SBIN", domain.ActionSell, "830", "600", 2),
	}

	out := a.Aggregate(context.Background(), "C001", trades, nil)
	assert.Empty(t, out.Holdings)
	require.Len(t, out.Issues, 1)
	assert.Equal(t, domain.IssueNegativePosition, out.Issues[0].Code)
	assert.Equal(t, domain.SeverityWarning, out.Issues[0].Severity)
	assert.Contains(t, out.Issues[0].Message, "-330")
}

func TestAggregateBrokerNegativeSurfacedWhenAggregateBalances(t *testing.T) {
	a := New(nil, nil)

	// Bought at one broker, sold at another: the aggregate nets to zero but
	// Groww on its own sold shares it never bought. The broker-level anomaly
	// must not disappear just because the totals line up.
	trades := []domain.Trade{
		trade("Zerodha", "INFY", domain.ActionBuy, "10", "1500", 1),
		trade("Groww", "INFY", domain.ActionSell, "10", "1550", 2),
	}

	out := a.Aggregate(context.Background(), "C001", trades, nil)
	assert.Empty(t, out.Holdings)

	require.Len(t, out.HoldingsByBroker, 1)
	assert.Equal(t, "Zerodha", out.HoldingsByBroker[0].Broker)

	require.Len(t, out.Issues, 1)
	issue := out.Issues[0]
	assert.Equal(t, domain.IssueNegativePosition, issue.Code)
	assert.Equal(t, domain.SeverityWarning, issue.Severity)
	assert.Equal(t, "INFY", issue.Field)
	assert.Equal(t, "Groww", issue.Ref.Broker)
}

func TestAggregateSellsWithNoBuysFlagged(t *testing.T) {
	a := New(nil, nil)

	trades := []domain.Trade{
		trade("Zerodha", "SBIN", domain.ActionSell, "830", "600", 1),
	}

	out := a.Aggregate(context.Background(), "C001", trades, nil)
	assert.Empty(t, out.Holdings)
	require.Len(t, out.Issues, 1)
	assert.Equal(t, domain.IssueNegativePosition, out.Issues[0].Code)
	assert.Contains(t, out.Issues[0].Message, "-830")

	// The sells still count in the client overview.
	assert.Equal(t, 1, out.Summary.TradeCount)
	assert.Equal(t, 1, out.Summary.SellCount)
	assert.Equal(t, 1, out.Summary.PlatformCount)
}

func TestAggregatePlatformCountFromTradesNotHoldings(t *testing.T) {
	a := New(nil, nil)

	// Everything bought on Schwab was sold again; the platform still counts.
	trades := []domain.Trade{
		trade("Zerodha", "INFY", domain.ActionBuy, "10", "1500", 1),
		trade("Charles Schwab", "AAPL", domain.ActionBuy, "5", "170", 2),
		trade("Charles Schwab", "AAPL", domain.ActionSell, "5", "180", 3),
	}

	out := a.Aggregate(context.Background(), "C001", trades, nil)
	assert.Equal(t, 2, out.Summary.PlatformCount)
	assert.Equal(t, []string{"Charles Schwab", "Zerodha"}, out.Summary.Platforms)
	require.Len(t, out.Holdings, 1)
	assert.Equal(t, "INFY", out.Holdings[0].Symbol)
}

func TestAggregateHoldingsByBroker(t *testing.T) {
	a := New(nil, nil)

	trades := []domain.Trade{
		trade("Zerodha", "INFY", domain.ActionBuy, "10", "1500", 1),
		trade("Groww", "INFY", domain.ActionBuy, "5", "1520", 2),
	}

	out := a.Aggregate(context.Background(), "C001", trades, nil)

	require.Len(t, out.Holdings, 1)
	assert.True(t, out.Holdings[0].NetQuantity.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, []string{"Groww", "Zerodha"}, out.Holdings[0].Platforms)

	require.Len(t, out.HoldingsByBroker, 2)
	assert.Equal(t, "Groww", out.HoldingsByBroker[0].Broker)
	assert.True(t, out.HoldingsByBroker[0].NetQuantity.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, "Zerodha", out.HoldingsByBroker[1].Broker)
	assert.True(t, out.HoldingsByBroker[1].NetQuantity.Equal(decimal.NewFromInt(10)))
}

func TestAggregateGainBuckets(t *testing.T) {
	a := New(nil, nil)

	gains := []domain.CapitalGainEvent{
		gainEvent("INFY", domain.HoldingPeriodShort, "500"),
		gainEvent("INFY", domain.HoldingPeriodLong, "1200"),
		gainEvent("TCS", domain.HoldingPeriodShort, "-300"),
	}

	out := a.Aggregate(context.Background(), "C001", nil, gains)

	assert.True(t, out.Summary.RealizedGainTotal.Equal(decimal.NewFromInt(1400)))
	assert.True(t, out.Summary.ShortTermGain.Equal(decimal.NewFromInt(200)))
	assert.True(t, out.Summary.LongTermGain.Equal(decimal.NewFromInt(1200)))
	assert.Equal(t, 3, out.Summary.GainEventCount)

	require.Len(t, out.GainSummaries, 2)
	infy := out.GainSummaries[0]
	assert.Equal(t, "INFY", infy.Symbol)
	assert.True(t, infy.TotalGain.Equal(decimal.NewFromInt(1700)))
	assert.Equal(t, 2, infy.Events)

	require.Len(t, out.Summary.TopGainers, 1)
	assert.Equal(t, "INFY", out.Summary.TopGainers[0].Symbol)
	require.Len(t, out.Summary.TopLosers, 1)
	assert.Equal(t, "TCS", out.Summary.TopLosers[0].Symbol)
}

func TestAggregateMarketData(t *testing.T) {
	a := New(nil, stubPrices{"INFY": "1520.50"})

	trades := []domain.Trade{
		trade("Zerodha", "INFY", domain.ActionBuy, "10", "1500", 1),
		trade("Zerodha", "UNPRICED", domain.ActionBuy, "5", "100", 2),
	}

	out := a.Aggregate(context.Background(), "C001", trades, nil)
	require.Len(t, out.Holdings, 2)

	infy := out.Holdings[0]
	require.True(t, infy.HasMarketPrice())
	assert.True(t, infy.MarketValue.Equal(decimal.RequireFromString("15205")), "value %s", infy.MarketValue)
	assert.True(t, infy.UnrealizedGain.Equal(decimal.RequireFromString("205")), "unrealized %s", infy.UnrealizedGain)
	// INFY is the only priced position, so it is 100% of the priced value.
	assert.True(t, infy.AllocationPct.Equal(decimal.NewFromInt(100)), "alloc %s", infy.AllocationPct)

	unpriced := out.Holdings[1]
	assert.False(t, unpriced.HasMarketPrice())
	assert.Nil(t, unpriced.AllocationPct)

	// The missing price is reported, not fatal.
	require.Len(t, out.Issues, 1)
	assert.Equal(t, domain.IssueMissingPrice, out.Issues[0].Code)
}

func TestAggregateIsIdempotent(t *testing.T) {
	a := New(nil, nil)

	trades := []domain.Trade{
		trade("Zerodha", "INFY", domain.ActionBuy, "100", "10", 1),
		trade("Zerodha", "INFY", domain.ActionSell, "40", "11", 2),
		trade("Groww", "TCS", domain.ActionBuy, "3", "3000", 3),
	}
	gains := []domain.CapitalGainEvent{
		gainEvent("INFY", domain.HoldingPeriodShort, "40"),
	}

	first := a.Aggregate(context.Background(), "C001", trades, gains)
	second := a.Aggregate(context.Background(), "C001", trades, gains)

	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.GainSummaries, second.GainSummaries)
	require.Equal(t, len(first.Holdings), len(second.Holdings))
	for i := range first.Holdings {
		assert.Equal(t, first.Holdings[i].Symbol, second.Holdings[i].Symbol)
		assert.True(t, first.Holdings[i].NetQuantity.Equal(second.Holdings[i].NetQuantity))
		assert.True(t, first.Holdings[i].AvgCost.Equal(second.Holdings[i].AvgCost))
	}
}
