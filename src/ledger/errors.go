package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidationError reports input rejected before any state change.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Invalid builds a ValidationError with a formatted reason.
func Invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NotBalancedError reports an attempt to post an unbalanced entry.
type NotBalancedError struct {
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

func (e *NotBalancedError) Error() string {
	return fmt.Sprintf("entry is not balanced: debits %s, credits %s",
		e.TotalDebit.StringFixed(2), e.TotalCredit.StringFixed(2))
}

// AlreadyPostedError reports a post attempt on an entry that is not DRAFT.
type AlreadyPostedError struct {
	EntryNumber string
}

func (e *AlreadyPostedError) Error() string {
	return fmt.Sprintf("journal entry %s is already posted", e.EntryNumber)
}

// InvalidStateError reports an operation against the wrong lifecycle state,
// such as editing a posted entry or mutating a completed session.
type InvalidStateError struct {
	Op    string
	State string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s in state %s", e.Op, e.State)
}

// ConflictError reports a uniqueness violation: a duplicate match, a
// duplicate in-progress session, or closing an already-closed month.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

// AlreadyClosedError reports a close attempt on a month that already has a
// non-reopened CLOSED record.
type AlreadyClosedError struct {
	Period Period
}

func (e *AlreadyClosedError) Error() string {
	return fmt.Sprintf("period %s is already closed", e.Period)
}

// PermissionError reports an action the actor's role does not allow.
type PermissionError struct {
	Action string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Action)
}

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }
