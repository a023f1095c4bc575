package detector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rahulprajapat123/investment-manager/pkg/contracts/domain"
)

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name string
		path string
		want domain.FileKind
	}{
		{
			name: "tradebook with broker suffix",
			path: "data/C001/uploads/tradebook_Zerodha.xlsx",
			want: domain.FileKindTradeBook,
		},
		{
			name: "trades plural",
			path: "data/C002/Fidelity/trades_2023.csv",
			want: domain.FileKindTradeBook,
		},
		{
			name: "capital gains with space",
			path: "data/C001/Capital Gains FY23.xlsx",
			want: domain.FileKindCapitalGains,
		},
		{
			name: "capital gains underscore",
			path: "data/C003/capital_gains_HDFC_Bank.csv",
			want: domain.FileKindCapitalGains,
		},
		{
			name: "capgain shorthand",
			path: "data/C001/capgain2023.xlsx",
			want: domain.FileKindCapitalGains,
		},
		{
			name: "capital gains mentioning trade wins over trade rule",
			path: "data/C001/capital_gains_trades.xlsx",
			want: domain.FileKindCapitalGains,
		},
		{
			name: "holdings snapshot",
			path: "data/C001/holdings_Groww.xlsx",
			want: domain.FileKindHoldings,
		},
		{
			name: "unrecognized filename",
			path: "data/C001/statement_march.xlsx",
			want: domain.FileKindUnknown,
		},
		{
			name: "case insensitive",
			path: "data/C001/TradeBook_ICICI.XLSX",
			want: domain.FileKindTradeBook,
		},
	}

	d := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.DetectKind(context.Background(), tt.path)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKindRuleMatches(t *testing.T) {
	rule := KindRule{Kind: domain.FileKindCapitalGains, AllOf: []string{"capital", "gain"}}
	assert.True(t, rule.Matches("capital gains 2023.xlsx"))
	assert.False(t, rule.Matches("capital account.xlsx"))

	anyRule := KindRule{Kind: domain.FileKindTradeBook, AnyOf: []string{"tradebook", "trades"}}
	assert.True(t, anyRule.Matches("my_trades.csv"))
	assert.False(t, anyRule.Matches("statement.csv"))
}
