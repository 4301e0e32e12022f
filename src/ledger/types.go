package ledger

import "github.com/shopspring/decimal"

// AccountType classifies account heads in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Valid reports whether t is one of the five account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity,
		AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// EntryStatus represents the lifecycle state of a journal entry.
// DRAFT entries may be edited or deleted; POSTED is terminal.
type EntryStatus string

const (
	EntryStatusDraft  EntryStatus = "DRAFT"
	EntryStatusPosted EntryStatus = "POSTED"
)

// AccountStatus marks whether an account head accepts new postings.
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "ACTIVE"
	AccountStatusInactive AccountStatus = "INACTIVE"
)

// SessionStatus is the lifecycle state of a bank reconciliation session.
// COMPLETED is terminal; there is no reopen for reconciliations.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionCompleted  SessionStatus = "COMPLETED"
)

// PeriodCloseStatus is the lifecycle state of a period close record.
type PeriodCloseStatus string

const (
	PeriodClosed   PeriodCloseStatus = "CLOSED"
	PeriodReopened PeriodCloseStatus = "REOPENED"
)

// Tolerance is the fixed-point tolerance for balance comparisons:
// two totals are considered equal when they differ by less than 0.01
// currency units.
var Tolerance = decimal.New(1, -2)

// LineAmount is the debit/credit pair of a single journal line, as seen by
// the validation routines. Exactly one side must be strictly positive.
type LineAmount struct {
	AccountHeadID string
	Debit         decimal.Decimal
	Credit        decimal.Decimal
}
