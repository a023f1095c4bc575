package domain

import "fmt"

// Severity separates issues that exclude a record or file from aggregation
// (critical) from issues that keep the record flagged (warning).
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// Issue codes raised by the pipeline. Codes are stable identifiers for the
// data-quality report; messages are for humans.
const (
	IssueUnknownFileKind  = "unknown_file_kind"
	IssueUnknownBroker    = "unknown_broker"
	IssueUnresolvedClient = "unresolved_client"
	IssueRaggedRepair     = "ragged_resplit"
	IssueUnreadableFile   = "unreadable_file"
	IssueMissingHeader    = "missing_header_row"
	IssueBadNumber        = "invalid_numeric"
	IssueBadDate          = "invalid_date"
	IssueAmbiguousDate    = "ambiguous_date"
	IssueMissingField     = "missing_required_field"
	IssueBadAction        = "invalid_action"
	IssueBadPeriod        = "invalid_holding_period"
	IssueNonPositive      = "non_positive_value"
	IssueNegativeFees     = "negative_fees"
	IssueDateOrder        = "sell_before_buy"
	IssueAmountMismatch   = "amount_mismatch"
	IssueGainMismatch     = "gain_loss_mismatch"
	IssueDuplicateRecord  = "duplicate_record"
	IssueNegativePosition = "negative_net_position"
	IssueMissingPrice     = "missing_market_price"
)

// ValidationIssue is one data-quality finding. Issues are accumulated per
// pipeline run and surfaced in the report; they are never silently dropped.
type ValidationIssue struct {
	Severity Severity  `json:"severity"`
	Code     string    `json:"code"`
	Field    string    `json:"field,omitempty"`
	Message  string    `json:"message"`
	Ref      RecordRef `json:"ref"`
}

// Critical reports whether the issue excludes its record from aggregation.
func (i ValidationIssue) Critical() bool {
	return i.Severity == SeverityCritical
}

func (i ValidationIssue) String() string {
	if i.Field != "" {
		return fmt.Sprintf("%s [%s] %s.%s row %d: %s",
			i.Severity, i.Code, i.Ref.FilePath, i.Field, i.Ref.Row, i.Message)
	}
	return fmt.Sprintf("%s [%s] %s row %d: %s",
		i.Severity, i.Code, i.Ref.FilePath, i.Ref.Row, i.Message)
}

// NewIssue builds a ValidationIssue for a record reference.
func NewIssue(severity Severity, code, field, message string, ref RecordRef) ValidationIssue {
	return ValidationIssue{
		Severity: severity,
		Code:     code,
		Field:    field,
		Message:  message,
		Ref:      ref,
	}
}
