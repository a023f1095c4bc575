// Package report renders a consolidated client result into an Excel
// workbook. Each view gets its own sheet; numbers are written as strings
// from their exact decimal representation so no cell value passes through a
// binary float.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	apperrors "github.com/rahulprajapat123/investment-manager/internal/errors"
	"github.com/rahulprajapat123/investment-manager/pkg/contracts/domain"
)

// Sheet names in tab order.
const (
	sheetSummary     = "Summary"
	sheetHoldings    = "Holdings"
	sheetByPlatform  = "Holdings by Platform"
	sheetGains       = "Capital Gains"
	sheetTrades      = "Transactions"
	sheetDataQuality = "Data Quality"
)

// Writer renders client results to workbook files.
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a report writer.
func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger}
}

// Write renders the result into <outputDir>/<clientID>_portfolio.xlsx and
// returns the written path.
func (w *Writer) Write(ctx context.Context, result *domain.ClientResult, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", apperrors.NewStorageError("failed to create output directory", err).WithContext("dir", outputDir)
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return "", apperrors.NewStorageError("failed to create header style", err)
	}

	if err := w.writeSummary(f, header, result); err != nil {
		return "", err
	}
	if err := w.writeHoldings(f, header, sheetHoldings, result.Holdings, true); err != nil {
		return "", err
	}
	if err := w.writeHoldings(f, header, sheetByPlatform, result.HoldingsByBroker, false); err != nil {
		return "", err
	}
	if err := w.writeGains(f, header, result); err != nil {
		return "", err
	}
	if err := w.writeTrades(f, header, result); err != nil {
		return "", err
	}
	if err := w.writeDataQuality(f, header, result); err != nil {
		return "", err
	}

	// Drop the default sheet excelize creates.
	f.DeleteSheet("Sheet1")
	if idx, err := f.GetSheetIndex(sheetSummary); err == nil {
		f.SetActiveSheet(idx)
	}

	path := filepath.Join(outputDir, result.ClientID+"_portfolio.xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", apperrors.NewStorageError("failed to save report workbook", err).WithContext("path", path)
	}

	w.logger.InfoContext(ctx, "wrote client report",
		slog.String("client_id", result.ClientID),
		slog.String("path", path))

	return path, nil
}

func (w *Writer) writeSummary(f *excelize.File, header int, result *domain.ClientResult) error {
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return apperrors.NewStorageError("failed to create sheet", err)
	}

	s := result.Summary
	rows := [][]any{
		{"Client", result.ClientID},
		{"Generated", result.GeneratedAt.Format("2006-01-02 15:04:05 UTC")},
		{"Run", result.RunID},
		{},
		{"Platforms", s.PlatformCount},
		{"Symbols traded", s.SymbolsTraded},
		{"Trades", s.TradeCount},
		{"Buys", s.BuyCount},
		{"Sells", s.SellCount},
		{},
		{"Realized gain", s.RealizedGainTotal.StringFixed(2)},
		{"Short-term gain", s.ShortTermGain.StringFixed(2)},
		{"Long-term gain", s.LongTermGain.StringFixed(2)},
		{"Gain events", s.GainEventCount},
		{},
		{"Files read", result.FilesRead},
		{"Files skipped", result.FilesSkipped},
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return apperrors.NewStorageError("failed to write summary row", err)
		}
	}
	_ = f.SetCellStyle(sheetSummary, "A1", "A17", header)

	next := len(rows) + 2
	next = writeMovers(f, sheetSummary, header, next, "Top gainers", s.TopGainers)
	writeMovers(f, sheetSummary, header, next, "Top losers", s.TopLosers)

	_ = f.SetColWidth(sheetSummary, "A", "A", 20)
	_ = f.SetColWidth(sheetSummary, "B", "B", 40)
	return nil
}

// writeMovers writes a titled symbol/gain block and returns the next free row.
func writeMovers(f *excelize.File, sheet string, header, row int, title string, movers []domain.SymbolGain) int {
	if len(movers) == 0 {
		return row
	}
	cell, _ := excelize.CoordinatesToCellName(1, row)
	_ = f.SetCellValue(sheet, cell, title)
	_ = f.SetCellStyle(sheet, cell, cell, header)
	row++
	for _, m := range movers {
		cell, _ = excelize.CoordinatesToCellName(1, row)
		values := []any{m.Symbol, m.Gain.StringFixed(2)}
		_ = f.SetSheetRow(sheet, cell, &values)
		row++
	}
	return row + 1
}

func (w *Writer) writeHoldings(f *excelize.File, header int, sheet string, holdings []domain.HoldingPosition, aggregate bool) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return apperrors.NewStorageError("failed to create sheet", err)
	}

	columns := []any{"Symbol", "Quantity", "Avg Cost", "Invested", "Current Price", "Market Value", "Unrealized Gain", "Allocation %"}
	if aggregate {
		columns = append(columns, "Platforms")
	} else {
		columns = append([]any{"Platform"}, columns...)
	}
	if err := f.SetSheetRow(sheet, "A1", &columns); err != nil {
		return apperrors.NewStorageError("failed to write header row", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	_ = f.SetCellStyle(sheet, "A1", last, header)

	for i, h := range holdings {
		row := []any{
			h.Symbol,
			h.NetQuantity.String(),
			h.AvgCost.StringFixed(4),
			h.TotalInvested.StringFixed(2),
			optional(h.CurrentPrice, 4),
			optional(h.MarketValue, 2),
			optional(h.UnrealizedGain, 2),
			optional(h.AllocationPct, 2),
		}
		if aggregate {
			row = append(row, strings.Join(h.Platforms, ", "))
		} else {
			row = append([]any{h.Broker}, row...)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return apperrors.NewStorageError("failed to write holding row", err)
		}
	}

	_ = f.SetColWidth(sheet, "A", "I", 16)
	return nil
}

func (w *Writer) writeGains(f *excelize.File, header int, result *domain.ClientResult) error {
	if _, err := f.NewSheet(sheetGains); err != nil {
		return apperrors.NewStorageError("failed to create sheet", err)
	}

	columns := []any{"Symbol", "Platform", "Quantity", "Buy Date", "Sell Date", "Cost Basis", "Proceeds", "Gain/Loss", "Holding Period"}
	if err := f.SetSheetRow(sheetGains, "A1", &columns); err != nil {
		return apperrors.NewStorageError("failed to write header row", err)
	}
	_ = f.SetCellStyle(sheetGains, "A1", "I1", header)

	for i, g := range result.Gains {
		row := []any{
			g.Symbol,
			g.Broker,
			g.Quantity.String(),
			g.BuyDate.Format("2006-01-02"),
			g.SellDate.Format("2006-01-02"),
			g.CostBasis.StringFixed(2),
			g.Proceeds.StringFixed(2),
			g.GainLoss.StringFixed(2),
			string(g.HoldingPeriod),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetGains, cell, &row); err != nil {
			return apperrors.NewStorageError("failed to write gain row", err)
		}
	}

	// Per-symbol rollup below the event table.
	rowIdx := len(result.Gains) + 3
	if len(result.GainSummaries) > 0 {
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx)
		title := []any{"Symbol", "Total Gain", "Short-term", "Long-term", "Events"}
		_ = f.SetSheetRow(sheetGains, cell, &title)
		last, _ := excelize.CoordinatesToCellName(len(title), rowIdx)
		_ = f.SetCellStyle(sheetGains, cell, last, header)
		for i, s := range result.GainSummaries {
			cell, _ = excelize.CoordinatesToCellName(1, rowIdx+1+i)
			row := []any{s.Symbol, s.TotalGain.StringFixed(2), s.ShortTermGain.StringFixed(2), s.LongTermGain.StringFixed(2), s.Events}
			_ = f.SetSheetRow(sheetGains, cell, &row)
		}
	}

	_ = f.SetColWidth(sheetGains, "A", "I", 14)
	return nil
}

func (w *Writer) writeTrades(f *excelize.File, header int, result *domain.ClientResult) error {
	if _, err := f.NewSheet(sheetTrades); err != nil {
		return apperrors.NewStorageError("failed to create sheet", err)
	}

	columns := []any{"Date", "Symbol", "Action", "Quantity", "Price", "Amount", "Fees", "Platform", "Exchange", "Currency"}
	if err := f.SetSheetRow(sheetTrades, "A1", &columns); err != nil {
		return apperrors.NewStorageError("failed to write header row", err)
	}
	_ = f.SetCellStyle(sheetTrades, "A1", "J1", header)

	for i, t := range result.Trades {
		row := []any{
			t.TradeDate.Format("2006-01-02"),
			t.Symbol,
			string(t.Action),
			t.Quantity.String(),
			t.Price.StringFixed(4),
			t.Amount.StringFixed(2),
			t.Fees.StringFixed(2),
			t.Broker,
			t.Exchange,
			t.Currency,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetTrades, cell, &row); err != nil {
			return apperrors.NewStorageError("failed to write trade row", err)
		}
	}

	_ = f.SetColWidth(sheetTrades, "A", "J", 13)
	return nil
}

func (w *Writer) writeDataQuality(f *excelize.File, header int, result *domain.ClientResult) error {
	if _, err := f.NewSheet(sheetDataQuality); err != nil {
		return apperrors.NewStorageError("failed to create sheet", err)
	}

	columns := []any{"Severity", "Code", "File", "Row", "Field", "Message"}
	if err := f.SetSheetRow(sheetDataQuality, "A1", &columns); err != nil {
		return apperrors.NewStorageError("failed to write header row", err)
	}
	_ = f.SetCellStyle(sheetDataQuality, "A1", "F1", header)

	for i, issue := range result.Issues {
		row := []any{
			string(issue.Severity),
			issue.Code,
			issue.Ref.FilePath,
			issue.Ref.Row,
			issue.Field,
			issue.Message,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetDataQuality, cell, &row); err != nil {
			return apperrors.NewStorageError("failed to write issue row", err)
		}
	}

	_ = f.SetColWidth(sheetDataQuality, "A", "B", 14)
	_ = f.SetColWidth(sheetDataQuality, "C", "C", 40)
	_ = f.SetColWidth(sheetDataQuality, "F", "F", 60)
	return nil
}

func optional(d *decimal.Decimal, places int32) any {
	if d == nil {
		return ""
	}
	return d.StringFixed(places)
}

// Filename reports the workbook name Write will use for a client, for
// callers that need the path before writing.
func Filename(clientID string) string {
	return fmt.Sprintf("%s_portfolio.xlsx", clientID)
}
