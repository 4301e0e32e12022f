package models

import (
	"github.com/shopspring/decimal"

	"github.com/username/ledgererp/backend/src/ledger"
)

// JournalEntry is a balanced set of debit/credit lines against account
// heads. Dates are ISO "YYYY-MM-DD" strings throughout the API and storage.
type JournalEntry struct {
	ID            string             `json:"id"`
	EntryNumber   string             `json:"entryNumber"`
	Date          string             `json:"date"`
	Description   string             `json:"description"`
	Status        ledger.EntryStatus `json:"status"`
	ReferenceType string             `json:"referenceType,omitempty"`
	ReferenceID   string             `json:"referenceId,omitempty"`
	CreatedBy     int64              `json:"createdBy"`
	ApprovedBy    *int64             `json:"approvedBy"`
	Lines         []JournalEntryLine `json:"lines"`
	CreatedAt     string             `json:"createdAt"`
	UpdatedAt     string             `json:"updatedAt"`
}

// JournalEntryLine is one side of a double entry. Exactly one of
// DebitAmount/CreditAmount is strictly positive.
type JournalEntryLine struct {
	ID             string          `json:"id"`
	JournalEntryID string          `json:"journalEntryId"`
	AccountHeadID  string          `json:"accountHeadId"`
	AccountCode    string          `json:"accountCode,omitempty"`
	AccountName    string          `json:"accountName,omitempty"`
	DebitAmount    decimal.Decimal `json:"debitAmount"`
	CreditAmount   decimal.Decimal `json:"creditAmount"`
	Description    string          `json:"description,omitempty"`
}

// LineAmounts projects the entry's lines into the validation shape used by
// the ledger package.
func (e *JournalEntry) LineAmounts() []ledger.LineAmount {
	amounts := make([]ledger.LineAmount, len(e.Lines))
	for i, l := range e.Lines {
		amounts[i] = ledger.LineAmount{
			AccountHeadID: l.AccountHeadID,
			Debit:         l.DebitAmount,
			Credit:        l.CreditAmount,
		}
	}
	return amounts
}
