// Package normalizer maps raw broker-specific rows onto the two canonical
// record shapes. Every numeric field is parsed into an exact decimal and
// every date against the accepted format list. The normalizer never drops a
// record over a recoverable problem: it tags the record with issues and
// forwards it, leaving the accept/reject decision to the validator.
package normalizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rahulprajapat123/investment-manager/internal/config"
	"github.com/rahulprajapat123/investment-manager/pkg/contracts/domain"
)

// Normalizer converts RawFiles into canonical Trade and CapitalGainEvent
// records using the per-broker column mapping tables.
type Normalizer struct {
	logger            *slog.Logger
	mappings          *config.BrokerMappings
	defaultConvention string
}

// Result is the output of normalizing one file: canonical records in their
// own, non-interchangeable containers, plus the issues raised on the way.
type Result struct {
	Trades []domain.Trade
	Gains  []domain.CapitalGainEvent
	Issues []domain.ValidationIssue
}

// New creates a normalizer. defaultConvention resolves ambiguous dates for
// brokers without a regional convention of their own.
func New(logger *slog.Logger, mappings *config.BrokerMappings, defaultConvention string) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultConvention == "" {
		defaultConvention = ConventionDMY
	}
	return &Normalizer{logger: logger, mappings: mappings, defaultConvention: defaultConvention}
}

// NormalizeFile converts one raw file into canonical records. A broker with
// no mapping entry and no declared default is rejected with a critical
// issue rather than guessed at.
func (n *Normalizer) NormalizeFile(ctx context.Context, raw *domain.RawFile) Result {
	var result Result

	mapping, ok := n.mappings.Resolve(raw.Broker)
	if !ok {
		result.Issues = append(result.Issues, domain.NewIssue(
			domain.SeverityCritical, domain.IssueUnknownBroker, "",
			fmt.Sprintf("no column mapping for broker %q and no default mapping declared", raw.Broker),
			domain.RecordRef{ClientID: raw.ClientID, Broker: raw.Broker, FilePath: raw.Path}))
		return result
	}

	convention := mapping.DateConvention
	if convention == "" {
		convention = n.defaultConvention
	}

	switch raw.Kind {
	case domain.FileKindTradeBook:
		for _, record := range raw.Records {
			trade, issues, ok := n.normalizeTrade(record, raw, mapping, convention)
			result.Issues = append(result.Issues, issues...)
			if ok {
				result.Trades = append(result.Trades, trade)
			}
		}
	case domain.FileKindCapitalGains:
		for _, record := range raw.Records {
			gain, issues, ok := n.normalizeGain(record, raw, mapping, convention)
			result.Issues = append(result.Issues, issues...)
			if ok {
				result.Gains = append(result.Gains, gain)
			}
		}
	}

	n.logger.InfoContext(ctx, "normalized file",
		slog.String("path", raw.Path),
		slog.String("broker", raw.Broker),
		slog.Int("trades", len(result.Trades)),
		slog.Int("gains", len(result.Gains)),
		slog.Int("issues", len(result.Issues)))

	return result
}

// fieldValues collects every source cell mapped onto canonical fields. The
// lookup is case- and whitespace-insensitive on column names. Multiple
// source columns mapping to the same canonical field are all kept, in
// support of summed fee columns.
func fieldValues(record domain.RawRecord, table map[string]string) map[string][]string {
	values := make(map[string][]string)
	for column, cell := range record.Fields {
		key := strings.ToLower(strings.TrimSpace(column))
		if canonical, ok := table[key]; ok {
			values[canonical] = append(values[canonical], cell)
		}
	}
	return values
}

func first(values map[string][]string, field string) string {
	if vs, ok := values[field]; ok && len(vs) > 0 {
		return strings.TrimSpace(vs[0])
	}
	return ""
}

// normalizeTrade maps one raw row to a canonical Trade. Rows with neither a
// symbol nor a quantity are structural noise (totals, blank padding) and
// are skipped without an issue.
func (n *Normalizer) normalizeTrade(record domain.RawRecord, raw *domain.RawFile, mapping config.BrokerMapping, convention string) (domain.Trade, []domain.ValidationIssue, bool) {
	var issues []domain.ValidationIssue
	values := fieldValues(record, mapping.Trade)

	symbol := first(values, config.FieldSymbol)
	qtyRaw := first(values, config.FieldQuantity)
	if symbol == "" && qtyRaw == "" {
		return domain.Trade{}, nil, false
	}

	trade := domain.Trade{
		ClientID: raw.ClientID,
		Broker:   raw.Broker,
		Account:  raw.Metadata["account"],
		Symbol:   symbol,
		Action:   normalizeAction(first(values, config.FieldAction)),
		Exchange: first(values, config.FieldExchange),
		Currency: first(values, config.FieldCurrency),
		Source:   record.Ref,
	}
	if trade.Currency == "" {
		trade.Currency = "USD"
	}

	trade.TradeDate, issues = n.parseDateField(first(values, config.FieldDate), config.FieldDate, convention, record.Ref, issues)
	trade.Quantity, issues = n.parseDecimalField(qtyRaw, config.FieldQuantity, record.Ref, issues)
	trade.Price, issues = n.parseDecimalField(first(values, config.FieldPrice), config.FieldPrice, record.Ref, issues)
	trade.Price = RoundPrice(trade.Price)

	amount, issues2 := n.parseOptionalDecimalField(first(values, config.FieldAmount), config.FieldAmount, record.Ref, issues)
	trade.Amount = RoundMoney(amount)
	issues = issues2

	// Fee columns are summed: a broker may split charges across several
	// columns that all map onto the fees field.
	fees := decimal.Zero
	for _, cell := range values[config.FieldFees] {
		fee, err := ParseOptionalDecimal(cell)
		if err != nil {
			issues = append(issues, domain.NewIssue(domain.SeverityCritical, domain.IssueBadNumber,
				config.FieldFees, err.Error(), record.Ref))
			continue
		}
		fees = fees.Add(fee)
	}
	trade.Fees = RoundMoney(fees)

	return trade, issues, true
}

// normalizeGain maps one raw row to a canonical CapitalGainEvent.
func (n *Normalizer) normalizeGain(record domain.RawRecord, raw *domain.RawFile, mapping config.BrokerMapping, convention string) (domain.CapitalGainEvent, []domain.ValidationIssue, bool) {
	var issues []domain.ValidationIssue
	values := fieldValues(record, mapping.Gains)

	symbol := first(values, config.FieldSymbol)
	qtyRaw := first(values, config.FieldQuantity)
	if symbol == "" && qtyRaw == "" {
		return domain.CapitalGainEvent{}, nil, false
	}

	gain := domain.CapitalGainEvent{
		ClientID:      raw.ClientID,
		Broker:        raw.Broker,
		Account:       raw.Metadata["account"],
		Symbol:        symbol,
		ISIN:          first(values, config.FieldISIN),
		HoldingPeriod: normalizeHoldingPeriod(first(values, config.FieldHoldingPeriod)),
		Source:        record.Ref,
	}

	gain.Quantity, issues = n.parseDecimalField(qtyRaw, config.FieldQuantity, record.Ref, issues)
	gain.BuyDate, issues = n.parseDateField(first(values, config.FieldBuyDate), config.FieldBuyDate, convention, record.Ref, issues)
	gain.SellDate, issues = n.parseDateField(first(values, config.FieldSellDate), config.FieldSellDate, convention, record.Ref, issues)

	var buyPrice, sellPrice, costBasis, proceeds decimal.Decimal
	buyPrice, issues = n.parseOptionalDecimalField(first(values, config.FieldBuyPrice), config.FieldBuyPrice, record.Ref, issues)
	sellPrice, issues = n.parseOptionalDecimalField(first(values, config.FieldSellPrice), config.FieldSellPrice, record.Ref, issues)
	costBasis, issues = n.parseOptionalDecimalField(first(values, config.FieldCostBasis), config.FieldCostBasis, record.Ref, issues)
	proceeds, issues = n.parseOptionalDecimalField(first(values, config.FieldProceeds), config.FieldProceeds, record.Ref, issues)

	gain.BuyPrice = RoundPrice(buyPrice)
	gain.SellPrice = RoundPrice(sellPrice)
	gain.CostBasis = RoundMoney(costBasis)
	gain.Proceeds = RoundMoney(proceeds)

	gainRaw := first(values, config.FieldGainLoss)
	if gainRaw == "" {
		// The broker did not report a gain figure; it is by definition
		// proceeds minus cost basis.
		gain.GainLoss = gain.Proceeds.Sub(gain.CostBasis)
	} else {
		var gl decimal.Decimal
		gl, issues = n.parseDecimalField(gainRaw, config.FieldGainLoss, record.Ref, issues)
		gain.GainLoss = RoundMoney(gl)
	}

	return gain, issues, true
}

// parseDecimalField parses a required numeric cell. A failed conversion is a
// critical issue and never a silent zero.
func (n *Normalizer) parseDecimalField(value, field string, ref domain.RecordRef, issues []domain.ValidationIssue) (decimal.Decimal, []domain.ValidationIssue) {
	d, err := ParseDecimal(value)
	if err != nil {
		return decimal.Zero, append(issues, domain.NewIssue(
			domain.SeverityCritical, domain.IssueBadNumber, field, err.Error(), ref))
	}
	return d, issues
}

// parseOptionalDecimalField parses a numeric cell that may be absent.
func (n *Normalizer) parseOptionalDecimalField(value, field string, ref domain.RecordRef, issues []domain.ValidationIssue) (decimal.Decimal, []domain.ValidationIssue) {
	d, err := ParseOptionalDecimal(value)
	if err != nil {
		return decimal.Zero, append(issues, domain.NewIssue(
			domain.SeverityCritical, domain.IssueBadNumber, field, err.Error(), ref))
	}
	return d, issues
}

// parseDateField parses a date cell. An unparseable date is critical; an
// ambiguous one is resolved by convention and flagged advisory for audit.
func (n *Normalizer) parseDateField(value, field, convention string, ref domain.RecordRef, issues []domain.ValidationIssue) (time.Time, []domain.ValidationIssue) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, issues
	}
	t, ambiguous, err := ParseDate(value, convention)
	if err != nil {
		return time.Time{}, append(issues, domain.NewIssue(
			domain.SeverityCritical, domain.IssueBadDate, field, err.Error(), ref))
	}
	if ambiguous {
		issues = append(issues, domain.NewIssue(
			domain.SeverityWarning, domain.IssueAmbiguousDate, field,
			fmt.Sprintf("date %q is ambiguous, resolved as %s using %s convention", value, t.Format("2006-01-02"), convention), ref))
	}
	return t, issues
}

// normalizeAction canonicalizes the trade side: case-insensitive buy/sell
// and the common purchase/sale synonyms. Anything else passes through
// unchanged for the validator to reject; it is never coerced.
func normalizeAction(value string) domain.TradeAction {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "buy", "b", "purchase", "bought":
		return domain.ActionBuy
	case "sell", "s", "sale", "sold":
		return domain.ActionSell
	default:
		return domain.TradeAction(strings.TrimSpace(value))
	}
}

// normalizeHoldingPeriod canonicalizes ST/LT style markers. Unrecognized
// values pass through for the validator to reject.
func normalizeHoldingPeriod(value string) domain.HoldingPeriod {
	s := strings.ToLower(strings.TrimSpace(value))
	switch {
	case s == "st" || s == "stcg" || strings.HasPrefix(s, "short"):
		return domain.HoldingPeriodShort
	case s == "lt" || s == "ltcg" || strings.HasPrefix(s, "long"):
		return domain.HoldingPeriodLong
	default:
		return domain.HoldingPeriod(strings.TrimSpace(value))
	}
}
