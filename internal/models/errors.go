package models

import "fmt"

// ValidationError reports malformed input: a non-positive amount,
// splits that do not sum to the expense total, a member outside the
// group. Surfaced to the caller immediately, never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports that a referenced record does not exist.
// Callers may treat a double delete as idempotent success if they wish;
// the engine itself always reports it.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// NoDebtError reports a settlement request between members with
// nothing outstanding between them. TotalOwed carries the computed
// (near-zero) outstanding total so callers show the same ceiling for
// every settlement precondition failure.
type NoDebtError struct {
	FromMemberID string
	ToMemberID   string
	TotalOwed    float64
}

func (e *NoDebtError) Error() string {
	return fmt.Sprintf("no outstanding debt from %s to %s", e.FromMemberID, e.ToMemberID)
}

// OverpaymentError reports a settlement request above the outstanding
// total. TotalOwed carries the ceiling so callers can show it.
type OverpaymentError struct {
	Requested float64
	TotalOwed float64
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("requested %.2f exceeds total owed %.2f", e.Requested, e.TotalOwed)
}

// InvalidAmountError reports a zero or negative settlement amount.
// TotalOwed carries the outstanding total at the time of the request.
type InvalidAmountError struct {
	Amount    float64
	TotalOwed float64
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid settlement amount %.2f", e.Amount)
}

// ConflictError reports that a concurrent settlement consumed a split's
// remaining balance between this settlement's read and its write. The
// whole transaction is rolled back; the caller must recompute the
// remaining balances and resubmit.
type ConflictError struct {
	SplitID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("split %s was settled concurrently", e.SplitID)
}
