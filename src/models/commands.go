package models

import "github.com/shopspring/decimal"

// Each workflow's input is an explicit typed command, validated at a single
// boundary before any state change.

// JournalLineInput is one requested line of a draft entry.
type JournalLineInput struct {
	AccountHeadID string          `json:"accountHeadId"`
	DebitAmount   decimal.Decimal `json:"debitAmount"`
	CreditAmount  decimal.Decimal `json:"creditAmount"`
	Description   string          `json:"description,omitempty"`
}

// CreateJournalEntryCommand creates a DRAFT entry.
type CreateJournalEntryCommand struct {
	Date          string             `json:"date"`
	Description   string             `json:"description"`
	ReferenceType string             `json:"referenceType,omitempty"`
	ReferenceID   string             `json:"referenceId,omitempty"`
	Lines         []JournalLineInput `json:"lines"`
}

// UpdateJournalEntryCommand edits a DRAFT entry. A non-nil Lines slice
// replaces the full line set; partial line patches are not supported.
type UpdateJournalEntryCommand struct {
	Date          string             `json:"date,omitempty"`
	Description   string             `json:"description,omitempty"`
	ReferenceType string             `json:"referenceType,omitempty"`
	ReferenceID   string             `json:"referenceId,omitempty"`
	Lines         []JournalLineInput `json:"lines,omitempty"`
}

// CreateAccountHeadCommand creates a chart-of-accounts node.
type CreateAccountHeadCommand struct {
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	AccountType     string          `json:"accountType"`
	ParentID        *string         `json:"parentId,omitempty"`
	OpeningBalance  decimal.Decimal `json:"openingBalance"`
	Status          string          `json:"status,omitempty"`
	IsSystemAccount bool            `json:"isSystemAccount,omitempty"`
	Description     string          `json:"description,omitempty"`
}

// UpdateAccountHeadCommand mutates the editable fields of an account head.
// Code and account type are immutable.
type UpdateAccountHeadCommand struct {
	Name           *string          `json:"name,omitempty"`
	ParentID       *string          `json:"parentId,omitempty"`
	ClearParent    bool             `json:"clearParent,omitempty"`
	OpeningBalance *decimal.Decimal `json:"openingBalance,omitempty"`
	Status         *string          `json:"status,omitempty"`
	Description    *string          `json:"description,omitempty"`
}

// CreateReconciliationCommand opens a reconciliation session.
type CreateReconciliationCommand struct {
	BankAccountID    string          `json:"bankAccountId"`
	StatementDate    string          `json:"statementDate"`
	StatementBalance decimal.Decimal `json:"statementBalance"`
}

// AddStatementItemCommand adds one external statement line to a session.
type AddStatementItemCommand struct {
	Description     string          `json:"description"`
	StatementAmount decimal.Decimal `json:"statementAmount"`
	StatementDate   string          `json:"statementDate"`
}

// MatchItemCommand links a statement item to a journal entry line.
type MatchItemCommand struct {
	JournalEntryLineID string `json:"journalEntryLineId"`
}

// CloseMonthCommand closes a calendar month.
type CloseMonthCommand struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// ReopenPeriodCommand reopens a closed period; Reason is mandatory.
type ReopenPeriodCommand struct {
	Reason string `json:"reason"`
}
