package models

import "github.com/shopspring/decimal"

// GeneralLedgerRow is one posted line in an account's ledger, with the
// running balance after applying it.
type GeneralLedgerRow struct {
	Date           string          `json:"date"`
	EntryNumber    string          `json:"entryNumber"`
	Description    string          `json:"description"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	RunningBalance decimal.Decimal `json:"runningBalance"`
}

// GeneralLedgerReport is the ledger of one account over a date range.
type GeneralLedgerReport struct {
	AccountHeadID  string             `json:"accountHeadId"`
	AccountCode    string             `json:"accountCode"`
	AccountName    string             `json:"accountName"`
	AccountType    string             `json:"accountType"`
	DateFrom       string             `json:"dateFrom"`
	DateTo         string             `json:"dateTo"`
	OpeningBalance decimal.Decimal    `json:"openingBalance"`
	Rows           []GeneralLedgerRow `json:"rows"`
	TotalDebit     decimal.Decimal    `json:"totalDebit"`
	TotalCredit    decimal.Decimal    `json:"totalCredit"`
	ClosingBalance decimal.Decimal    `json:"closingBalance"`
}

// TrialBalanceRow places one account's net balance in the debit or credit
// column according to its natural side.
type TrialBalanceRow struct {
	AccountHeadID string          `json:"accountHeadId"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	AccountType   string          `json:"accountType"`
	DebitBalance  decimal.Decimal `json:"debitBalance"`
	CreditBalance decimal.Decimal `json:"creditBalance"`
}

// TrialBalanceReport lists every account with activity or an opening balance
// as of a date. IsBalanced asserts the fundamental identity: total debit
// column equals total credit column within tolerance.
type TrialBalanceReport struct {
	AsOf        string            `json:"asOf"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"totalDebit"`
	TotalCredit decimal.Decimal   `json:"totalCredit"`
	IsBalanced  bool              `json:"isBalanced"`
}

// BalanceSheetLine is one account within a balance sheet section.
type BalanceSheetLine struct {
	AccountHeadID string          `json:"accountHeadId"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Balance       decimal.Decimal `json:"balance"`
}

// BalanceSheetSection is one side grouping (assets, liabilities or equity).
type BalanceSheetSection struct {
	Accounts []BalanceSheetLine `json:"accounts"`
	Total    decimal.Decimal    `json:"total"`
}

// BalanceSheetReport is the statement of financial position as of a date.
// RetainedEarnings carries the not-yet-closed revenue minus expense for the
// periods up to AsOf, so the sheet balances even before month-end close.
type BalanceSheetReport struct {
	AsOf                      string              `json:"asOf"`
	Assets                    BalanceSheetSection `json:"assets"`
	Liabilities               BalanceSheetSection `json:"liabilities"`
	Equity                    BalanceSheetSection `json:"equity"`
	RetainedEarnings          decimal.Decimal     `json:"retainedEarnings"`
	TotalAssets               decimal.Decimal     `json:"totalAssets"`
	TotalLiabilitiesAndEquity decimal.Decimal     `json:"totalLiabilitiesAndEquity"`
	IsBalanced                bool                `json:"isBalanced"`
}
