package services

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/username/ledgererp/backend/src/ledger"
	"github.com/username/ledgererp/backend/src/logger"
	"github.com/username/ledgererp/backend/src/models"
	"github.com/username/ledgererp/backend/src/utils"
)

// ReportService derives the general ledger, trial balance and balance sheet
// from posted journal lines. Reports never read the denormalized
// current_balance column; everything is recomputed from lines so that "as
// of" dates are exact. Results are cached until the next posting flushes the
// cache.
type ReportService struct {
	db    *sql.DB
	cache *cache.Cache
}

func NewReportService(db *sql.DB, reportCache *cache.Cache) *ReportService {
	return &ReportService{db: db, cache: reportCache}
}

// accountActivity is one account's aggregated posted movement.
type accountActivity struct {
	id          string
	code        string
	name        string
	accountType ledger.AccountType
	opening     decimal.Decimal
	totalDebit  decimal.Decimal
	totalCredit decimal.Decimal
}

// balance nets the activity against the account's natural side, on top of
// the opening balance.
func (a accountActivity) balance() decimal.Decimal {
	return a.opening.Add(ledger.BalanceChange(a.accountType, a.totalDebit, a.totalCredit))
}

// GeneralLedger returns one account's ledger over [dateFrom, dateTo], with
// the opening balance carried in from everything posted before the range.
func (s *ReportService) GeneralLedger(accountID, dateFrom, dateTo string) (*models.GeneralLedgerReport, error) {
	if err := validateDateRange(dateFrom, dateTo); err != nil {
		return nil, err
	}
	cacheKey := fmt.Sprintf("general_ledger:%s:%s:%s", accountID, dateFrom, dateTo)
	if cached, found := s.cache.Get(cacheKey); found {
		return cached.(*models.GeneralLedgerReport), nil
	}

	var code, name, accountType string
	var openingBalance decimal.Decimal
	err := s.db.QueryRow(`
	SELECT code, name, account_type, opening_balance FROM account_heads WHERE id = ?`,
		accountID).Scan(&code, &name, &accountType, &openingBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.NotFoundError{Entity: "account head"}
	}
	if err != nil {
		return nil, err
	}
	natural := ledger.AccountType(accountType)

	// Movement before the range shifts the opening balance.
	rows, err := s.db.Query(`
	SELECT l.debit_amount, l.credit_amount
	FROM journal_entry_lines l
	JOIN journal_entries e ON e.id = l.journal_entry_id
	WHERE l.account_head_id = ? AND e.status = 'POSTED' AND e.date < ?`,
		accountID, dateFrom)
	if err != nil {
		return nil, err
	}
	opening := openingBalance
	for rows.Next() {
		var debit, credit decimal.Decimal
		if err := rows.Scan(&debit, &credit); err != nil {
			rows.Close()
			return nil, err
		}
		opening = opening.Add(ledger.BalanceChange(natural, debit, credit))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	report := &models.GeneralLedgerReport{
		AccountHeadID:  accountID,
		AccountCode:    code,
		AccountName:    name,
		AccountType:    accountType,
		DateFrom:       dateFrom,
		DateTo:         dateTo,
		OpeningBalance: opening,
		Rows:           []models.GeneralLedgerRow{},
		TotalDebit:     decimal.Zero,
		TotalCredit:    decimal.Zero,
		ClosingBalance: opening,
	}

	rows, err = s.db.Query(`
	SELECT e.date, e.entry_number, e.description, l.debit_amount, l.credit_amount
	FROM journal_entry_lines l
	JOIN journal_entries e ON e.id = l.journal_entry_id
	WHERE l.account_head_id = ? AND e.status = 'POSTED' AND e.date >= ? AND e.date <= ?
	ORDER BY e.date ASC, e.entry_number ASC, l.seq ASC`,
		accountID, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	running := opening
	for rows.Next() {
		var row models.GeneralLedgerRow
		if err := rows.Scan(&row.Date, &row.EntryNumber, &row.Description, &row.Debit, &row.Credit); err != nil {
			return nil, err
		}
		running = running.Add(ledger.BalanceChange(natural, row.Debit, row.Credit))
		row.RunningBalance = running
		report.Rows = append(report.Rows, row)
		report.TotalDebit = report.TotalDebit.Add(row.Debit)
		report.TotalCredit = report.TotalCredit.Add(row.Credit)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	report.ClosingBalance = running

	s.cache.SetDefault(cacheKey, report)
	return report, nil
}

// TrialBalance lists every account with an opening balance or posted
// activity as of a date, each netted into its natural column.
func (s *ReportService) TrialBalance(asOf string) (*models.TrialBalanceReport, error) {
	if _, err := utils.ParseDate(asOf); err != nil {
		return nil, ledger.Invalid("invalid asOf date %q: expected YYYY-MM-DD", asOf)
	}
	cacheKey := "trial_balance:" + asOf
	if cached, found := s.cache.Get(cacheKey); found {
		return cached.(*models.TrialBalanceReport), nil
	}

	activities, err := s.activityAsOf(asOf)
	if err != nil {
		return nil, err
	}

	report := &models.TrialBalanceReport{
		AsOf:        asOf,
		Rows:        []models.TrialBalanceRow{},
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for _, a := range activities {
		balance := a.balance()
		if balance.IsZero() && a.totalDebit.IsZero() && a.totalCredit.IsZero() {
			continue
		}
		row := models.TrialBalanceRow{
			AccountHeadID: a.id,
			Code:          a.code,
			Name:          a.name,
			AccountType:   string(a.accountType),
			DebitBalance:  decimal.Zero,
			CreditBalance: decimal.Zero,
		}
		// A negative natural balance flips to the opposite column.
		debitSide := ledger.IsDebitNormal(a.accountType)
		if balance.IsNegative() {
			debitSide = !debitSide
			balance = balance.Abs()
		}
		if debitSide {
			row.DebitBalance = balance
		} else {
			row.CreditBalance = balance
		}
		report.Rows = append(report.Rows, row)
		report.TotalDebit = report.TotalDebit.Add(row.DebitBalance)
		report.TotalCredit = report.TotalCredit.Add(row.CreditBalance)
	}
	report.IsBalanced = ledger.WithinTolerance(report.TotalDebit, report.TotalCredit)
	if !report.IsBalanced {
		logger.L.Warn("Trial balance does not balance",
			"asOf", asOf,
			"totalDebit", report.TotalDebit.StringFixed(2),
			"totalCredit", report.TotalCredit.StringFixed(2))
	}

	s.cache.SetDefault(cacheKey, report)
	return report, nil
}

// BalanceSheet builds the statement of financial position as of a date.
// Retained earnings is derived on the fly as total revenue minus total
// expense up to the date, so unclosed months still produce a balanced sheet.
func (s *ReportService) BalanceSheet(asOf string) (*models.BalanceSheetReport, error) {
	if _, err := utils.ParseDate(asOf); err != nil {
		return nil, ledger.Invalid("invalid asOf date %q: expected YYYY-MM-DD", asOf)
	}
	cacheKey := "balance_sheet:" + asOf
	if cached, found := s.cache.Get(cacheKey); found {
		return cached.(*models.BalanceSheetReport), nil
	}

	activities, err := s.activityAsOf(asOf)
	if err != nil {
		return nil, err
	}

	report := &models.BalanceSheetReport{
		AsOf:             asOf,
		Assets:           models.BalanceSheetSection{Accounts: []models.BalanceSheetLine{}, Total: decimal.Zero},
		Liabilities:      models.BalanceSheetSection{Accounts: []models.BalanceSheetLine{}, Total: decimal.Zero},
		Equity:           models.BalanceSheetSection{Accounts: []models.BalanceSheetLine{}, Total: decimal.Zero},
		RetainedEarnings: decimal.Zero,
	}
	for _, a := range activities {
		balance := a.balance()
		line := models.BalanceSheetLine{AccountHeadID: a.id, Code: a.code, Name: a.name, Balance: balance}
		switch a.accountType {
		case ledger.AccountTypeAsset:
			if !balance.IsZero() {
				report.Assets.Accounts = append(report.Assets.Accounts, line)
				report.Assets.Total = report.Assets.Total.Add(balance)
			}
		case ledger.AccountTypeLiability:
			if !balance.IsZero() {
				report.Liabilities.Accounts = append(report.Liabilities.Accounts, line)
				report.Liabilities.Total = report.Liabilities.Total.Add(balance)
			}
		case ledger.AccountTypeEquity:
			if !balance.IsZero() {
				report.Equity.Accounts = append(report.Equity.Accounts, line)
				report.Equity.Total = report.Equity.Total.Add(balance)
			}
		case ledger.AccountTypeRevenue:
			report.RetainedEarnings = report.RetainedEarnings.Add(balance)
		case ledger.AccountTypeExpense:
			report.RetainedEarnings = report.RetainedEarnings.Sub(balance)
		}
	}
	report.TotalAssets = report.Assets.Total
	report.TotalLiabilitiesAndEquity = report.Liabilities.Total.
		Add(report.Equity.Total).
		Add(report.RetainedEarnings)
	report.IsBalanced = ledger.WithinTolerance(report.TotalAssets, report.TotalLiabilitiesAndEquity)

	s.cache.SetDefault(cacheKey, report)
	return report, nil
}

// activityAsOf aggregates, per account, the posted debit/credit totals with
// entry date <= asOf, together with each account's opening balance. Amounts
// are summed in decimal, not by the database, to keep cents exact.
func (s *ReportService) activityAsOf(asOf string) ([]accountActivity, error) {
	rows, err := s.db.Query(`
	SELECT id, code, name, account_type, opening_balance FROM account_heads`)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*accountActivity)
	for rows.Next() {
		var a accountActivity
		var accountType string
		if err := rows.Scan(&a.id, &a.code, &a.name, &accountType, &a.opening); err != nil {
			rows.Close()
			return nil, err
		}
		a.accountType = ledger.AccountType(accountType)
		a.totalDebit = decimal.Zero
		a.totalCredit = decimal.Zero
		byID[a.id] = &a
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(`
	SELECT l.account_head_id, l.debit_amount, l.credit_amount
	FROM journal_entry_lines l
	JOIN journal_entries e ON e.id = l.journal_entry_id
	WHERE e.status = 'POSTED' AND e.date <= ?`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var accountID string
		var debit, credit decimal.Decimal
		if err := rows.Scan(&accountID, &debit, &credit); err != nil {
			return nil, err
		}
		if a, ok := byID[accountID]; ok {
			a.totalDebit = a.totalDebit.Add(debit)
			a.totalCredit = a.totalCredit.Add(credit)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	activities := make([]accountActivity, 0, len(byID))
	for _, a := range byID {
		activities = append(activities, *a)
	}
	sort.Slice(activities, func(i, j int) bool { return activities[i].code < activities[j].code })
	return activities, nil
}

func validateDateRange(dateFrom, dateTo string) error {
	from, err := utils.ParseDate(dateFrom)
	if err != nil {
		return ledger.Invalid("invalid dateFrom %q: expected YYYY-MM-DD", dateFrom)
	}
	to, err := utils.ParseDate(dateTo)
	if err != nil {
		return ledger.Invalid("invalid dateTo %q: expected YYYY-MM-DD", dateTo)
	}
	if to.Before(from) {
		return ledger.Invalid("dateTo %s is before dateFrom %s", dateTo, dateFrom)
	}
	return nil
}
