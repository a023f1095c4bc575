package reader

import (
	"encoding/csv"
	"os"
	"strings"
)

// repairSampleSize is how many populated rows the malformation heuristic
// inspects before deciding to re-split.
const repairSampleSize = 10

// repairRows detects the single delimiter-joined column malformation and
// re-splits it. The heuristic requires a majority of sampled populated rows
// to carry the delimiter in the first column with at most one other column
// populated, so a legitimate multi-word field in one row does not trigger a
// re-split. Returns the (possibly repaired) rows, whether a repair happened,
// and the index of the first ragged row (-1 when none): a ragged re-split
// means the file must be rejected, not mis-aligned.
func repairRows(rows [][]string, delimiter string) ([][]string, bool, int) {
	if !needsRepair(rows, delimiter) {
		return rows, false, -1
	}

	repaired := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			repaired = append(repaired, row)
			continue
		}
		cell := row[0]
		if !strings.Contains(cell, delimiter) {
			// Rows without the delimiter (a lone metadata label) stay as-is.
			repaired = append(repaired, []string{cell})
			continue
		}
		parts := strings.Split(cell, delimiter)
		// Strip trailing empties left by trailing delimiters.
		for len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
			parts = parts[:len(parts)-1]
		}
		repaired = append(repaired, parts)
	}

	if idx := raggedRowIndex(repaired); idx >= 0 {
		return rows, false, idx
	}

	return repaired, true, -1
}

// needsRepair applies the majority heuristic over the first populated rows.
func needsRepair(rows [][]string, delimiter string) bool {
	sampled, joined := 0, 0

	for _, row := range rows {
		if sampled >= repairSampleSize {
			break
		}
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		sampled++

		populated := 0
		for _, cell := range row[1:] {
			if strings.TrimSpace(cell) != "" {
				populated++
			}
		}
		if strings.Contains(row[0], delimiter) && populated <= 1 {
			joined++
		}
	}

	return sampled > 0 && joined*2 > sampled
}

// raggedRowIndex finds the first re-split row wider than the table itself.
// The reference width comes from the first row with more than two cells
// (the header once the metadata rows are past); later rows may be narrower,
// since trailing empties are stripped, but never wider.
func raggedRowIndex(rows [][]string) int {
	refWidth := 0
	for _, row := range rows {
		if len(row) > 2 {
			refWidth = len(row)
			break
		}
	}
	if refWidth == 0 {
		return -1
	}

	for i, row := range rows {
		if len(row) > refWidth {
			return i
		}
	}
	return -1
}

// readCSVRows reads a CSV file, sniffing the delimiter from the common
// candidates and keeping whichever yields the most multi-column rows.
func readCSVRows(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	candidates := []rune{',', '\t', ';', '|'}
	var best [][]string
	bestScore := -1

	for _, comma := range candidates {
		r := csv.NewReader(strings.NewReader(string(data)))
		r.Comma = comma
		r.FieldsPerRecord = -1
		r.LazyQuotes = true

		rows, err := r.ReadAll()
		if err != nil {
			continue
		}

		score := 0
		for _, row := range rows {
			if len(row) > 1 {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = rows
		}
	}

	if best == nil {
		return nil, csv.ErrFieldCount
	}
	return best, nil
}
