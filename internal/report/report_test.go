package report

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/rahulprajapat123/investment-manager/pkg/contracts/domain"
)

func sampleResult() *domain.ClientResult {
	price := decimal.RequireFromString("1520.5")
	value := decimal.RequireFromString("15205")
	unrealized := decimal.RequireFromString("205")
	alloc := decimal.NewFromInt(100)

	return &domain.ClientResult{
		ClientID:    "C001",
		RunID:       "run-1",
		GeneratedAt: time.Date(2023, time.July, 1, 12, 0, 0, 0, time.UTC),
		Holdings: []domain.HoldingPosition{
			{
				ClientID:       "C001",
				Symbol:         "INFY",
				Platforms:      []string{"Zerodha"},
				NetQuantity:    decimal.NewFromInt(10),
				AvgCost:        decimal.NewFromInt(1500),
				TotalInvested:  decimal.NewFromInt(15000),
				CurrentPrice:   &price,
				MarketValue:    &value,
				UnrealizedGain: &unrealized,
				AllocationPct:  &alloc,
			},
		},
		HoldingsByBroker: []domain.HoldingPosition{
			{
				ClientID:      "C001",
				Symbol:        "INFY",
				Broker:        "Zerodha",
				NetQuantity:   decimal.NewFromInt(10),
				AvgCost:       decimal.NewFromInt(1500),
				TotalInvested: decimal.NewFromInt(15000),
			},
		},
		Summary: domain.ClientPortfolioSummary{
			ClientID:          "C001",
			SymbolsTraded:     1,
			TradeCount:        1,
			BuyCount:          1,
			PlatformCount:     1,
			Platforms:         []string{"Zerodha"},
			RealizedGainTotal: decimal.NewFromInt(150),
			ShortTermGain:     decimal.NewFromInt(150),
			GainEventCount:    1,
			TopGainers:        []domain.SymbolGain{{Symbol: "INFY", Gain: decimal.NewFromInt(150)}},
		},
		GainSummaries: []domain.SymbolGainSummary{
			{ClientID: "C001", Symbol: "INFY", TotalGain: decimal.NewFromInt(150), ShortTermGain: decimal.NewFromInt(150), Events: 1},
		},
		Trades: []domain.Trade{
			{
				ClientID:  "C001",
				Broker:    "Zerodha",
				Symbol:    "INFY",
				Action:    domain.ActionBuy,
				TradeDate: time.Date(2023, time.April, 15, 0, 0, 0, 0, time.UTC),
				Quantity:  decimal.NewFromInt(10),
				Price:     decimal.NewFromInt(1500),
				Amount:    decimal.NewFromInt(15000),
				Currency:  "INR",
			},
		},
		Gains: []domain.CapitalGainEvent{
			{
				ClientID:      "C001",
				Broker:        "Zerodha",
				Symbol:        "INFY",
				Quantity:      decimal.NewFromInt(30),
				BuyDate:       time.Date(2023, time.April, 15, 0, 0, 0, 0, time.UTC),
				SellDate:      time.Date(2023, time.April, 17, 0, 0, 0, 0, time.UTC),
				CostBasis:     decimal.NewFromInt(300),
				Proceeds:      decimal.NewFromInt(450),
				GainLoss:      decimal.NewFromInt(150),
				HoldingPeriod: domain.HoldingPeriodShort,
			},
		},
		Issues: []domain.ValidationIssue{
			domain.NewIssue(domain.SeverityWarning, domain.IssueAmbiguousDate, "date", "resolved by convention",
				domain.RecordRef{ClientID: "C001", Broker: "Zerodha", FilePath: "tradebook.csv", Row: 4}),
		},
		FilesRead:    2,
		FilesSkipped: 0,
	}
}

func TestWriteWorkbook(t *testing.T) {
	outDir := t.TempDir()
	w := NewWriter(nil)

	path, err := w.Write(context.Background(), sampleResult(), outDir)
	require.NoError(t, err)
	assert.Contains(t, path, "C001_portfolio.xlsx")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	for _, want := range []string{sheetSummary, sheetHoldings, sheetByPlatform, sheetGains, sheetTrades, sheetDataQuality} {
		assert.Contains(t, sheets, want)
	}
	assert.NotContains(t, sheets, "Sheet1")

	// Summary identifies the client.
	client, err := f.GetCellValue(sheetSummary, "B1")
	require.NoError(t, err)
	assert.Equal(t, "C001", client)

	// Holdings carry the exact decimal average cost.
	avg, err := f.GetCellValue(sheetHoldings, "C2")
	require.NoError(t, err)
	assert.Equal(t, "1500.0000", avg)

	symbol, err := f.GetCellValue(sheetHoldings, "A2")
	require.NoError(t, err)
	assert.Equal(t, "INFY", symbol)

	// Per-broker view leads with the platform column.
	broker, err := f.GetCellValue(sheetByPlatform, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Zerodha", broker)

	action, err := f.GetCellValue(sheetTrades, "C2")
	require.NoError(t, err)
	assert.Equal(t, "Buy", action)

	severity, err := f.GetCellValue(sheetDataQuality, "A2")
	require.NoError(t, err)
	assert.Equal(t, "warning", severity)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "C042_portfolio.xlsx", Filename("C042"))
}
