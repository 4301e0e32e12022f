package models

import (
	"github.com/shopspring/decimal"

	"github.com/username/ledgererp/backend/src/ledger"
)

// PeriodClose records a month-end close. PeriodDate is the last day of the
// closed month; at most one non-reopened CLOSED record may exist per month.
type PeriodClose struct {
	ID                    string                   `json:"id"`
	PeriodType            string                   `json:"periodType"`
	PeriodDate            string                   `json:"periodDate"`
	NetProfit             decimal.Decimal          `json:"netProfit"`
	Status                ledger.PeriodCloseStatus `json:"status"`
	ClosingJournalEntryID *string                  `json:"closingJournalEntryId"`
	ClosingEntryNumber    string                   `json:"closingEntryNumber,omitempty"`
	ReopenReason          *string                  `json:"reopenReason"`
	ClosedBy              int64                    `json:"closedBy"`
	CreatedAt             string                   `json:"createdAt"`
}

// PnLAccount is one revenue or expense account's net movement in a period.
type PnLAccount struct {
	AccountHeadID string          `json:"accountHeadId"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
}

// MonthPnL is the profit-and-loss summary for a calendar month, excluding
// closing entries themselves.
type MonthPnL struct {
	Period        string          `json:"period"`
	Revenues      []PnLAccount    `json:"revenues"`
	Expenses      []PnLAccount    `json:"expenses"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	NetProfit     decimal.Decimal `json:"netProfit"`
}
