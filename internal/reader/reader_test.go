package reader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulprajapat123/investment-manager/pkg/contracts/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadTradeBookCSV(t *testing.T) {
	content := "Account,ZD1234\n" +
		"Name,Asha Mehta\n" +
		"Trade Book,FY 2023-24\n" +
		"Date,Symbol,Action,Qty,Price,Trade Value\n" +
		"15/04/2023,INFY,Buy,10,1500.50,15005\n" +
		",,,,,\n" +
		"16/04/2023,TCS,Sell,5,3200,16000\n"
	path := writeFile(t, "tradebook.csv", content)

	r := New(nil, "\t")
	raw, issues, err := r.Read(context.Background(), path, domain.FileKindTradeBook, "C001", "Zerodha")
	require.NoError(t, err)
	assert.Empty(t, issues)

	assert.Equal(t, "C001", raw.ClientID)
	assert.Equal(t, "Zerodha", raw.Broker)
	assert.Equal(t, "ZD1234", raw.Metadata["account"])
	assert.Equal(t, "Asha Mehta", raw.Metadata["name"])
	assert.Equal(t, "FY 2023-24", raw.Metadata["period"])
	assert.Equal(t, []string{"Date", "Symbol", "Action", "Qty", "Price", "Trade Value"}, raw.Columns)

	// The blank padding row is skipped.
	require.Len(t, raw.Records, 2)
	first := raw.Records[0]
	assert.Equal(t, "INFY", first.Fields["Symbol"])
	assert.Equal(t, "15/04/2023", first.Fields["Date"])
	assert.Equal(t, 4, first.Ref.Row)
	assert.Equal(t, 6, raw.Records[1].Ref.Row)
}

func TestReadCapitalGainsHeaderAnchor(t *testing.T) {
	content := "Capital Gains Statement,FY 2023-24\n" +
		"Stock Symbol,Qty,Purchase Date,Sale Date,Profit/Loss\n" +
		"INFY,5,10/01/2022,15/06/2023,1000\n"
	path := writeFile(t, "capital_gains.csv", content)

	r := New(nil, "\t")
	raw, issues, err := r.Read(context.Background(), path, domain.FileKindCapitalGains, "C001", "HDFC Bank")
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, "FY 2023-24", raw.Metadata["fiscal_year"])
	require.Len(t, raw.Records, 1)
	assert.Equal(t, "INFY", raw.Records[0].Fields["Stock Symbol"])
}

func TestReadMissingHeaderIsCritical(t *testing.T) {
	content := "Something,Else\nNo,Header,Here\n"
	path := writeFile(t, "tradebook.csv", content)

	r := New(nil, "\t")
	raw, issues, err := r.Read(context.Background(), path, domain.FileKindTradeBook, "C001", "Zerodha")
	require.Error(t, err)
	assert.Nil(t, raw)
	require.Len(t, issues, 1)
	assert.Equal(t, domain.SeverityCritical, issues[0].Severity)
	assert.Equal(t, domain.IssueMissingHeader, issues[0].Code)
}

func TestReadRaggedDataRowIsCritical(t *testing.T) {
	content := "Date,Symbol,Qty\n" +
		"15/04/2023,INFY,10,excess,cells\n"
	path := writeFile(t, "tradebook.csv", content)

	r := New(nil, "\t")
	raw, issues, err := r.Read(context.Background(), path, domain.FileKindTradeBook, "C001", "Zerodha")
	require.Error(t, err)
	assert.Nil(t, raw)
	require.Len(t, issues, 1)
	assert.Equal(t, domain.IssueRaggedRepair, issues[0].Code)
	assert.Equal(t, 1, issues[0].Ref.Row)
}

func TestReadUnreadableFile(t *testing.T) {
	r := New(nil, "\t")
	raw, issues, err := r.Read(context.Background(), "does/not/exist.csv", domain.FileKindTradeBook, "C001", "Zerodha")
	require.Error(t, err)
	assert.Nil(t, raw)
	require.Len(t, issues, 1)
	assert.Equal(t, domain.IssueUnreadableFile, issues[0].Code)
}

func TestReadLegacyXlsRejectedWithRemedy(t *testing.T) {
	path := writeFile(t, "tradebook.xls", "\xd0\xcf\x11\xe0 not a real workbook")

	r := New(nil, "\t")
	raw, issues, err := r.Read(context.Background(), path, domain.FileKindTradeBook, "C001", "Zerodha")
	require.Error(t, err)
	assert.Nil(t, raw)
	require.Len(t, issues, 1)
	assert.Equal(t, domain.IssueUnreadableFile, issues[0].Code)
	assert.Contains(t, issues[0].Message, ".xlsx")
}

func TestReadShortRowsPadded(t *testing.T) {
	content := "Date,Symbol,Action,Qty\n" +
		"15/04/2023,INFY,Buy\n"
	path := writeFile(t, "tradebook.csv", content)

	r := New(nil, "\t")
	raw, _, err := r.Read(context.Background(), path, domain.FileKindTradeBook, "C001", "Zerodha")
	require.NoError(t, err)
	require.Len(t, raw.Records, 1)
	assert.Equal(t, "", raw.Records[0].Fields["Qty"])
}
