// Package prices supplies current market prices for holdings valuation. The
// file source covers the common case of a manually maintained or
// vendor-exported price sheet; symbols absent from the sheet simply have no
// market-derived fields in the report.
package prices

import (
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	apperrors "github.com/rahulprajapat123/investment-manager/internal/errors"
	"github.com/rahulprajapat123/investment-manager/internal/normalizer"
)

// FilePrices serves prices loaded from a two-column CSV of symbol,price.
// It is read-only after load and safe for concurrent lookups.
type FilePrices struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

// LoadFile loads a price sheet. A header row is detected and skipped; rows
// with an unparseable price are skipped with a warning rather than failing
// the whole sheet.
func LoadFile(logger *slog.Logger, path string) (*FilePrices, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open price file", err).WithContext("path", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to parse price file", err).WithContext("path", path)
	}

	fp := &FilePrices{prices: make(map[string]decimal.Decimal, len(rows))}
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		symbol := strings.TrimSpace(row[0])
		if symbol == "" {
			continue
		}
		price, err := normalizer.ParseDecimal(row[1])
		if err != nil {
			if i == 0 {
				// Header row.
				continue
			}
			logger.Warn("skipping price row with unparseable price",
				slog.String("path", path),
				slog.Int("row", i),
				slog.String("symbol", symbol))
			continue
		}
		fp.prices[strings.ToUpper(symbol)] = price
	}

	logger.Info("loaded price sheet",
		slog.String("path", path),
		slog.Int("symbols", len(fp.prices)))

	return fp, nil
}

// Price returns the current price for a symbol, case-insensitively.
func (p *FilePrices) Price(_ context.Context, symbol string) (decimal.Decimal, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	price, ok := p.prices[strings.ToUpper(strings.TrimSpace(symbol))]
	return price, ok
}

// Len reports how many symbols have prices.
func (p *FilePrices) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.prices)
}
