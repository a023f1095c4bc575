// Package reader loads broker export spreadsheets into untyped raw records.
// It repairs the common malformation where an entire export was written as
// one delimiter-joined string per row in a single column, extracts leading
// metadata rows, and locates the real header row before the data starts.
package reader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/rahulprajapat123/investment-manager/internal/errors"
	"github.com/rahulprajapat123/investment-manager/pkg/contracts/domain"
)

// headerAnchors maps a file kind to the lowercased first-column value that
// marks the header row of the data table.
var headerAnchors = map[domain.FileKind]func(string) bool{
	domain.FileKindTradeBook: func(cell string) bool {
		return cell == "date"
	},
	domain.FileKindCapitalGains: func(cell string) bool {
		return strings.Contains(cell, "stock")
	},
	domain.FileKindHoldings: func(cell string) bool {
		return strings.Contains(cell, "asset") || strings.Contains(cell, "stock") || strings.Contains(cell, "symbol")
	},
}

// Reader loads and repairs broker export files.
type Reader struct {
	logger    *slog.Logger
	delimiter string
}

// New creates a reader. delimiter is the separator used when repairing
// exports collapsed into a single column; tab when empty.
func New(logger *slog.Logger, delimiter string) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	if delimiter == "" {
		delimiter = "\t"
	}
	return &Reader{logger: logger, delimiter: delimiter}
}

// Read loads the file at path into a RawFile for the given kind and
// already-resolved identity. A structurally broken file returns a critical
// issue and no RawFile; the caller continues with the remaining files.
func (r *Reader) Read(ctx context.Context, path string, kind domain.FileKind, clientID, broker string) (*domain.RawFile, []domain.ValidationIssue, error) {
	fileRef := domain.RecordRef{ClientID: clientID, Broker: broker, FilePath: path}

	rows, err := r.loadRows(path)
	if err != nil {
		issue := domain.NewIssue(domain.SeverityCritical, domain.IssueUnreadableFile, "",
			fmt.Sprintf("file could not be read: %v", err), fileRef)
		return nil, []domain.ValidationIssue{issue}, apperrors.NewParsingError("failed to read file", err).WithContext("path", path)
	}

	rows, repaired, raggedRow := repairRows(rows, r.delimiter)
	if raggedRow >= 0 {
		ref := fileRef
		ref.Row = raggedRow
		issue := domain.NewIssue(domain.SeverityCritical, domain.IssueRaggedRepair, "",
			"re-splitting the delimiter-joined column produced a ragged column count", ref)
		return nil, []domain.ValidationIssue{issue},
			apperrors.NewParsingError("ragged column count after re-split", nil).WithContext("path", path)
	}
	if repaired {
		r.logger.InfoContext(ctx, "repaired delimiter-joined single-column export",
			slog.String("path", path),
			slog.String("delimiter", fmt.Sprintf("%q", r.delimiter)))
	}

	headerIdx := findHeaderRow(rows, kind)
	if headerIdx < 0 {
		issue := domain.NewIssue(domain.SeverityCritical, domain.IssueMissingHeader, "",
			"no header row found for file kind "+string(kind), fileRef)
		return nil, []domain.ValidationIssue{issue},
			apperrors.NewParsingError("header row not found", nil).WithContext("path", path)
	}

	metadata := extractMetadata(rows[:headerIdx])
	columns := trimRow(rows[headerIdx])

	raw := &domain.RawFile{
		Path:     path,
		ClientID: clientID,
		Broker:   broker,
		Kind:     kind,
		Metadata: metadata,
		Columns:  columns,
	}

	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		if len(row) > len(columns) {
			ref := fileRef
			ref.Row = i
			issue := domain.NewIssue(domain.SeverityCritical, domain.IssueRaggedRepair, "",
				fmt.Sprintf("row has %d columns, header has %d", len(row), len(columns)), ref)
			return nil, []domain.ValidationIssue{issue},
				apperrors.NewParsingError("ragged data row", nil).WithContext("path", path)
		}

		fields := make(map[string]string, len(columns))
		for j, col := range columns {
			if col == "" {
				continue
			}
			if j < len(row) {
				fields[col] = strings.TrimSpace(row[j])
			} else {
				fields[col] = ""
			}
		}
		raw.Records = append(raw.Records, domain.RawRecord{
			Ref:    domain.RecordRef{ClientID: clientID, Broker: broker, FilePath: path, Row: i},
			Fields: fields,
		})
	}

	r.logger.InfoContext(ctx, "read broker export file",
		slog.String("path", path),
		slog.String("kind", string(kind)),
		slog.Int("records", len(raw.Records)),
		slog.Bool("repaired", repaired))

	return raw, nil, nil
}

// loadRows reads the file into untyped rows based on its extension.
func (r *Reader) loadRows(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSVRows(path)
	case ".xls":
		// The legacy BIFF format is not parseable by the xlsx reader. Fail
		// with a message that names the remedy instead of a zip error.
		return nil, fmt.Errorf("legacy .xls workbooks are not supported, re-export the file as .xlsx or .csv")
	default:
		return readExcelRows(path)
	}
}

// readExcelRows reads the first sheet of an Excel workbook.
func readExcelRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

// findHeaderRow locates the row where the data table starts, using the
// kind-specific anchor value in the first populated column.
func findHeaderRow(rows [][]string, kind domain.FileKind) int {
	anchor, ok := headerAnchors[kind]
	if !ok {
		return -1
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		first := strings.ToLower(strings.TrimSpace(row[0]))
		if anchor(first) {
			return i
		}
	}
	return -1
}

// extractMetadata captures the account/name/period rows that precede the
// data table in broker exports.
func extractMetadata(rows [][]string) map[string]string {
	metadata := make(map[string]string)
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(row[0]))
		value := ""
		if len(row) > 1 {
			value = strings.TrimSpace(row[1])
		}
		switch {
		case key == "account":
			metadata["account"] = value
		case key == "name":
			metadata["name"] = value
		case strings.Contains(key, "trade book"):
			metadata["period"] = value
		case strings.Contains(key, "capital gain"):
			metadata["fiscal_year"] = value
		}
	}
	return metadata
}

func trimRow(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = strings.TrimSpace(cell)
	}
	// Drop trailing empty header cells.
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
