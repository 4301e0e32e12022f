package models

import (
	"github.com/shopspring/decimal"

	"github.com/username/ledgererp/backend/src/ledger"
)

// BankReconciliation is a statement-matching session for one bank account.
// While IN_PROGRESS items may be added, matched, unmatched and removed;
// once COMPLETED the session and all its items are immutable.
type BankReconciliation struct {
	ID               string               `json:"id"`
	BankAccountID    string               `json:"bankAccountId"`
	BankAccountCode  string               `json:"bankAccountCode,omitempty"`
	BankAccountName  string               `json:"bankAccountName,omitempty"`
	StatementDate    string               `json:"statementDate"`
	StatementBalance decimal.Decimal      `json:"statementBalance"`
	SystemBalance    decimal.Decimal      `json:"systemBalance"`
	Status           ledger.SessionStatus `json:"status"`
	ReconciledBy     int64                `json:"reconciledBy"`
	Items            []ReconciliationItem `json:"items,omitempty"`
	CreatedAt        string               `json:"createdAt"`
	UpdatedAt        string               `json:"updatedAt"`
}

// ReconciliationItem is one external bank-statement line. StatementAmount is
// signed: positive for inflows, negative for outflows. A matched item links
// one-to-one to a posted journal entry line of the session's bank account.
type ReconciliationItem struct {
	ID                 string          `json:"id"`
	ReconciliationID   string          `json:"reconciliationId"`
	Description        string          `json:"description"`
	StatementAmount    decimal.Decimal `json:"statementAmount"`
	StatementDate      string          `json:"statementDate"`
	Matched            bool            `json:"matched"`
	JournalEntryLineID *string         `json:"journalEntryLineId"`
	CreatedAt          string          `json:"createdAt"`
}

// UnmatchedTransaction is a posted journal line of the session's bank
// account that no reconciliation item (in any session) has claimed yet.
type UnmatchedTransaction struct {
	LineID        string          `json:"id"`
	EntryNumber   string          `json:"entryNumber"`
	Date          string          `json:"date"`
	Description   string          `json:"description"`
	ReferenceType string          `json:"referenceType,omitempty"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	NetAmount     decimal.Decimal `json:"netAmount"`
}

// ReconciliationSummary surfaces the match progress and the statement vs
// system difference the UI must show prominently.
type ReconciliationSummary struct {
	MatchedCount            int             `json:"matchedCount"`
	UnmatchedCount          int             `json:"unmatchedCount"`
	Difference              decimal.Decimal `json:"difference"`
	UnmatchedStatementTotal decimal.Decimal `json:"unmatchedStatementTotal"`
}
