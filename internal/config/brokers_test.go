package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBrokerMappingsDefaults(t *testing.T) {
	mappings, err := LoadBrokerMappings("")
	require.NoError(t, err)

	tests := []struct {
		name           string
		broker         string
		wantName       string
		wantConvention string
	}{
		{name: "named broker", broker: "Zerodha", wantName: "Zerodha", wantConvention: "dmy"},
		{name: "case insensitive lookup", broker: "zerodha", wantName: "Zerodha", wantConvention: "dmy"},
		{name: "us broker uses mdy", broker: "Charles Schwab", wantName: "Charles Schwab", wantConvention: "mdy"},
		{name: "unknown broker falls back to default", broker: "Some New Broker", wantName: "default"},
		{name: "account pseudo broker falls back to default", broker: "Account_123456", wantName: "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bm, ok := mappings.Resolve(tt.broker)
			require.True(t, ok)
			assert.Equal(t, tt.wantName, bm.Name)
			assert.Equal(t, tt.wantConvention, bm.DateConvention)
		})
	}
}

func TestLoadBrokerMappingsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "brokers.yaml")
	content := `brokers:
  - name: Upstox
    date_convention: dmy
    trade:
      Trade Date: date
      Scrip: symbol
      Side: action
      Quantity: quantity
      Rate: price
      Value: amount
      Charges: fees
    gains:
      Scrip: symbol
      Quantity: quantity
      Buy Date: buy_date
      Sell Date: sell_date
      Buy Value: cost_basis
      Sell Value: proceeds
      P&L: gain_loss
      Term: holding_period
    not_provided:
      - exchange
      - currency
      - isin
      - buy_price
      - sell_price
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	mappings, err := LoadBrokerMappings(path)
	require.NoError(t, err)

	bm, ok := mappings.Resolve("Upstox")
	require.True(t, ok)
	assert.Equal(t, "Upstox", bm.Name)

	// Source column lookup is case- and whitespace-insensitive.
	field, ok := bm.CanonicalField(bm.Trade, "  TRADE DATE ")
	require.True(t, ok)
	assert.Equal(t, FieldDate, field)

	// Built-in entries survive alongside the file entries.
	_, ok = mappings.Resolve("Zerodha")
	assert.True(t, ok)
}

func TestLoadBrokerMappingsRejectsIncompleteCoverage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "brokers.yaml")
	content := `brokers:
  - name: Sparse
    trade:
      Date: date
      Symbol: symbol
    gains:
      Symbol: symbol
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadBrokerMappings(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no source column")
}

func TestDefaultMappingsCoverCanonicalSchema(t *testing.T) {
	for _, bm := range defaultBrokerMappings() {
		bm.Trade = lowerKeys(bm.Trade)
		bm.Gains = lowerKeys(bm.Gains)
		assert.NoError(t, checkCoverage(bm), "mapping %s", bm.Name)
	}
}
