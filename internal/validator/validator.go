// Package validator applies the record-level acceptance rules to normalized
// trades and realized-gain events. It combines its own findings with the
// issues the earlier stages attached, then excludes every record that has at
// least one critical issue. Advisory findings keep the record in play.
package validator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	playground "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/rahulprajapat123/investment-manager/pkg/contracts/domain"
)

// Validator checks normalized records against the acceptance rules.
type Validator struct {
	logger    *slog.Logger
	checker   *playground.Validate
	tolerance decimal.Decimal
}

// Result carries the accepted records and the full issue list, including the
// issues that excluded records.
type Result struct {
	Trades []domain.Trade
	Gains  []domain.CapitalGainEvent
	Issues []domain.ValidationIssue
}

// New creates a validator. tolerance bounds the cross-check discrepancies
// (reported amount vs quantity*price, reported gain vs proceeds-cost).
func New(logger *slog.Logger, tolerance decimal.Decimal) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		logger:    logger,
		checker:   playground.New(),
		tolerance: tolerance,
	}
}

// Validate checks every record, merges prior with new issues, and drops the
// records carrying critical issues. A record is keyed by its source file and
// row, so a critical finding from any stage excludes it.
func (v *Validator) Validate(ctx context.Context, trades []domain.Trade, gains []domain.CapitalGainEvent, prior []domain.ValidationIssue) Result {
	issues := make([]domain.ValidationIssue, 0, len(prior))
	issues = append(issues, prior...)

	for _, t := range trades {
		issues = append(issues, v.checkTrade(t)...)
	}
	for _, g := range gains {
		issues = append(issues, v.checkGain(g)...)
	}
	issues = append(issues, findDuplicateTrades(trades)...)
	issues = append(issues, findDuplicateGains(gains)...)

	rejected := criticalRefs(issues)

	result := Result{Issues: issues}
	for _, t := range trades {
		if _, bad := rejected[refKey(t.Source)]; !bad {
			result.Trades = append(result.Trades, t)
		}
	}
	for _, g := range gains {
		if _, bad := rejected[refKey(g.Source)]; !bad {
			result.Gains = append(result.Gains, g)
		}
	}

	v.logger.InfoContext(ctx, "validated records",
		slog.Int("trades_in", len(trades)),
		slog.Int("trades_accepted", len(result.Trades)),
		slog.Int("gains_in", len(gains)),
		slog.Int("gains_accepted", len(result.Gains)),
		slog.Int("issues", len(issues)))

	return result
}

func (v *Validator) checkTrade(t domain.Trade) []domain.ValidationIssue {
	issues := v.structIssues(t, t.Source)

	if t.TradeDate.IsZero() {
		issues = append(issues, domain.NewIssue(domain.SeverityCritical, domain.IssueMissingField,
			"date", "trade date is missing", t.Source))
	}
	if !t.Quantity.IsPositive() {
		issues = append(issues, domain.NewIssue(domain.SeverityCritical, domain.IssueNonPositive,
			"quantity", fmt.Sprintf("quantity must be positive, got %s", t.Quantity), t.Source))
	}
	if !t.Price.IsPositive() {
		issues = append(issues, domain.NewIssue(domain.SeverityCritical, domain.IssueNonPositive,
			"price", fmt.Sprintf("price must be positive, got %s", t.Price), t.Source))
	}
	if t.Fees.IsNegative() {
		issues = append(issues, domain.NewIssue(domain.SeverityCritical, domain.IssueNegativeFees,
			"fees", fmt.Sprintf("fees must not be negative, got %s", t.Fees), t.Source))
	}

	// Reported amount against quantity*price. A zero amount means the broker
	// did not provide the column; there is nothing to cross-check.
	if !t.Amount.IsZero() && t.Quantity.IsPositive() && t.Price.IsPositive() {
		expected := t.Quantity.Mul(t.Price)
		if t.Amount.Sub(expected).Abs().GreaterThan(v.tolerance) {
			issues = append(issues, domain.NewIssue(domain.SeverityWarning, domain.IssueAmountMismatch,
				"amount",
				fmt.Sprintf("reported amount %s differs from quantity*price %s by more than %s",
					t.Amount, expected, v.tolerance), t.Source))
		}
	}

	return issues
}

func (v *Validator) checkGain(g domain.CapitalGainEvent) []domain.ValidationIssue {
	issues := v.structIssues(g, g.Source)

	if g.BuyDate.IsZero() {
		issues = append(issues, domain.NewIssue(domain.SeverityCritical, domain.IssueMissingField,
			"buy_date", "buy date is missing", g.Source))
	}
	if g.SellDate.IsZero() {
		issues = append(issues, domain.NewIssue(domain.SeverityCritical, domain.IssueMissingField,
			"sell_date", "sell date is missing", g.Source))
	}
	if !g.BuyDate.IsZero() && !g.SellDate.IsZero() && g.SellDate.Before(g.BuyDate) {
		issues = append(issues, domain.NewIssue(domain.SeverityCritical, domain.IssueDateOrder,
			"sell_date",
			fmt.Sprintf("sell date %s precedes buy date %s",
				g.SellDate.Format("2006-01-02"), g.BuyDate.Format("2006-01-02")), g.Source))
	}
	if !g.Quantity.IsPositive() {
		issues = append(issues, domain.NewIssue(domain.SeverityCritical, domain.IssueNonPositive,
			"quantity", fmt.Sprintf("quantity must be positive, got %s", g.Quantity), g.Source))
	}

	// Reported gain against proceeds minus cost basis, when both sides exist.
	if !g.Proceeds.IsZero() || !g.CostBasis.IsZero() {
		expected := g.Proceeds.Sub(g.CostBasis)
		if g.GainLoss.Sub(expected).Abs().GreaterThan(v.tolerance) {
			issues = append(issues, domain.NewIssue(domain.SeverityWarning, domain.IssueGainMismatch,
				"gain_loss",
				fmt.Sprintf("reported gain %s differs from proceeds-cost %s by more than %s",
					g.GainLoss, expected, v.tolerance), g.Source))
		}
	}

	return issues
}

// structIssues runs the declarative struct rules and converts failures into
// field-level issues.
func (v *Validator) structIssues(record any, ref domain.RecordRef) []domain.ValidationIssue {
	err := v.checker.Struct(record)
	if err == nil {
		return nil
	}
	verrs, ok := err.(playground.ValidationErrors)
	if !ok {
		return []domain.ValidationIssue{domain.NewIssue(
			domain.SeverityCritical, domain.IssueMissingField, "", err.Error(), ref)}
	}

	issues := make([]domain.ValidationIssue, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		code := domain.IssueMissingField
		message := fmt.Sprintf("required field %s is missing", field)
		if fe.Tag() == "oneof" {
			switch fe.Field() {
			case "Action":
				code = domain.IssueBadAction
			case "HoldingPeriod":
				code = domain.IssueBadPeriod
			}
			message = fmt.Sprintf("value %q is not one of the allowed values", fe.Value())
		}
		issues = append(issues, domain.NewIssue(domain.SeverityCritical, code, field, message, ref))
	}
	return issues
}

// findDuplicateTrades flags exact repeats of (broker, symbol, action, date,
// quantity, price) as advisory. Genuine repeat orders are possible, so the
// records stay in.
func findDuplicateTrades(trades []domain.Trade) []domain.ValidationIssue {
	var issues []domain.ValidationIssue
	seen := make(map[string]domain.RecordRef, len(trades))
	for _, t := range trades {
		key := strings.Join([]string{
			t.Broker, t.Symbol, string(t.Action),
			t.TradeDate.Format("2006-01-02"),
			t.Quantity.String(), t.Price.String(),
		}, "|")
		if firstRef, dup := seen[key]; dup {
			issues = append(issues, domain.NewIssue(domain.SeverityWarning, domain.IssueDuplicateRecord, "",
				fmt.Sprintf("identical trade already seen at %s row %d", firstRef.FilePath, firstRef.Row), t.Source))
			continue
		}
		seen[key] = t.Source
	}
	return issues
}

func findDuplicateGains(gains []domain.CapitalGainEvent) []domain.ValidationIssue {
	var issues []domain.ValidationIssue
	seen := make(map[string]domain.RecordRef, len(gains))
	for _, g := range gains {
		key := strings.Join([]string{
			g.Broker, g.Symbol,
			g.BuyDate.Format("2006-01-02"), g.SellDate.Format("2006-01-02"),
			g.Quantity.String(), g.GainLoss.String(),
		}, "|")
		if firstRef, dup := seen[key]; dup {
			issues = append(issues, domain.NewIssue(domain.SeverityWarning, domain.IssueDuplicateRecord, "",
				fmt.Sprintf("identical gain event already seen at %s row %d", firstRef.FilePath, firstRef.Row), g.Source))
			continue
		}
		seen[key] = g.Source
	}
	return issues
}

func refKey(ref domain.RecordRef) string {
	return fmt.Sprintf("%s#%d", ref.FilePath, ref.Row)
}

// criticalRefs collects the (file, row) keys carrying at least one critical
// issue. File-level issues (row 0 with no record) only match records that
// actually sit on that row, which broker exports never place data on.
func criticalRefs(issues []domain.ValidationIssue) map[string]struct{} {
	refs := make(map[string]struct{})
	for _, issue := range issues {
		if issue.Critical() {
			refs[refKey(issue.Ref)] = struct{}{}
		}
	}
	return refs
}
