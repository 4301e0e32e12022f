package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/username/ledgererp/backend/src/ledger"
	"github.com/username/ledgererp/backend/src/logger"
	"github.com/username/ledgererp/backend/src/models"
	"github.com/username/ledgererp/backend/src/utils"
)

// referenceTypePeriodClose tags closing entries so P&L computations can
// exclude them.
const referenceTypePeriodClose = "PERIOD_CLOSE"

// PeriodCloseService runs month-end closes: it nets every revenue and
// expense account into retained earnings through an auto-posted closing
// entry, and records the close so later postings into the month are
// rejected.
type PeriodCloseService struct {
	db                   *sql.DB
	audit                *AuditService
	reports              *ReportService
	reportCache          *cache.Cache
	retainedEarningsCode string
}

func NewPeriodCloseService(db *sql.DB, audit *AuditService, reports *ReportService, reportCache *cache.Cache, retainedEarningsCode string) *PeriodCloseService {
	return &PeriodCloseService{
		db:                   db,
		audit:                audit,
		reports:              reports,
		reportCache:          reportCache,
		retainedEarningsCode: retainedEarningsCode,
	}
}

// List returns all period close records, newest first.
func (s *PeriodCloseService) List() ([]models.PeriodClose, error) {
	rows, err := s.db.Query(`
	SELECT p.id, p.period_type, p.period_date, p.net_profit, p.status,
		p.closing_journal_entry_id, e.entry_number, p.reopen_reason, p.closed_by, p.created_at
	FROM period_closes p
	LEFT JOIN journal_entries e ON e.id = p.closing_journal_entry_id
	ORDER BY p.period_date DESC, p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	closes := []models.PeriodClose{}
	for rows.Next() {
		record, err := scanPeriodClose(rows)
		if err != nil {
			return nil, err
		}
		closes = append(closes, *record)
	}
	return closes, rows.Err()
}

func (s *PeriodCloseService) GetByID(id string) (*models.PeriodClose, error) {
	record, err := scanPeriodClose(s.db.QueryRow(`
	SELECT p.id, p.period_type, p.period_date, p.net_profit, p.status,
		p.closing_journal_entry_id, e.entry_number, p.reopen_reason, p.closed_by, p.created_at
	FROM period_closes p
	LEFT JOIN journal_entries e ON e.id = p.closing_journal_entry_id
	WHERE p.id = ?`, id))
	if err != nil {
		return nil, err
	}
	return record, nil
}

// CloseMonth closes a calendar month: it verifies the trial balance as of
// month end, nets the month's revenue and expense movement into retained
// earnings via an auto-posted closing entry, and records the close.
// Everything lands in one transaction.
func (s *PeriodCloseService) CloseMonth(cmd models.CloseMonthCommand, actor models.Actor) (*models.PeriodClose, error) {
	if !actor.Can(models.ActionClosePeriod) {
		return nil, &ledger.PermissionError{Action: string(models.ActionClosePeriod)}
	}
	period, err := ledger.NewPeriod(cmd.Year, time.Month(cmd.Month))
	if err != nil {
		return nil, err
	}
	periodDate := utils.FormatDate(period.End())

	var alreadyClosed int
	err = s.db.QueryRow(`
	SELECT COUNT(1) FROM period_closes
	WHERE period_type = 'MONTH' AND period_date = ? AND status = 'CLOSED'`,
		periodDate).Scan(&alreadyClosed)
	if err != nil {
		return nil, err
	}
	if alreadyClosed > 0 {
		return nil, &ledger.AlreadyClosedError{Period: period}
	}

	var draftsInPeriod int
	err = s.db.QueryRow(`
	SELECT COUNT(1) FROM journal_entries
	WHERE status = 'DRAFT' AND date >= ? AND date <= ?`,
		utils.FormatDate(period.Start()), periodDate).Scan(&draftsInPeriod)
	if err != nil {
		return nil, err
	}
	if draftsInPeriod > 0 {
		return nil, ledger.Invalid("%d draft entries remain in %s; post or delete them before closing",
			draftsInPeriod, period)
	}

	trialBalance, err := s.reports.TrialBalance(periodDate)
	if err != nil {
		return nil, err
	}
	if !trialBalance.IsBalanced {
		return nil, ledger.Invalid("trial balance as of %s does not balance (debits %s, credits %s)",
			periodDate, trialBalance.TotalDebit.StringFixed(2), trialBalance.TotalCredit.StringFixed(2))
	}

	// Include prior closing entries here so a reopened month's already-closed
	// amounts net out and only the remaining activity is closed.
	pnl, err := s.monthPnL(period, false)
	if err != nil {
		return nil, err
	}

	var retainedEarningsID string
	var retainedEarningsType string
	err = s.db.QueryRow(`
	SELECT id, account_type FROM account_heads WHERE code = ?`,
		s.retainedEarningsCode).Scan(&retainedEarningsID, &retainedEarningsType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.NotFoundError{Entity: "retained earnings account " + s.retainedEarningsCode}
	}
	if err != nil {
		return nil, err
	}

	closeID := uuid.NewString()
	now := utils.Today()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var closingEntryID any
	lines := closingLines(pnl, retainedEarningsID)
	if len(lines) > 0 {
		entryID := uuid.NewString()
		entryNumber, err := nextEntryNumber(tx, periodDate)
		if err != nil {
			return nil, err
		}
		_, err = tx.Exec(`
		INSERT INTO journal_entries
			(id, entry_number, date, description, status, reference_type, reference_id,
			 created_by, approved_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, 'POSTED', ?, ?, ?, ?, ?, ?)`,
			entryID, entryNumber,
			periodDate, fmt.Sprintf("Closing entry for %s", period),
			referenceTypePeriodClose, closeID,
			actor.UserID, actor.UserID, now, now)
		if err != nil {
			return nil, err
		}
		if err := insertLinesTx(tx, entryID, lines); err != nil {
			return nil, err
		}
		for _, l := range lines {
			var accountType string
			if err := tx.QueryRow(`SELECT account_type FROM account_heads WHERE id = ?`,
				l.AccountHeadID).Scan(&accountType); err != nil {
				return nil, err
			}
			delta := ledger.BalanceChange(ledger.AccountType(accountType), l.DebitAmount, l.CreditAmount)
			if err := applyBalanceChangeTx(tx, l.AccountHeadID, delta); err != nil {
				return nil, err
			}
		}
		closingEntryID = entryID
	}

	_, err = tx.Exec(`
	INSERT INTO period_closes
		(id, period_type, period_date, net_profit, status, closing_journal_entry_id,
		 closed_by, created_at)
	VALUES (?, 'MONTH', ?, ?, 'CLOSED', ?, ?, ?)`,
		closeID, periodDate, pnl.NetProfit, closingEntryID, actor.UserID, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, &ledger.AlreadyClosedError{Period: period}
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.reportCache.Flush()
	s.audit.Log(actor.UserID, "CLOSE", "PeriodClose", closeID,
		fmt.Sprintf("Period %s closed with net profit %s", period, pnl.NetProfit.StringFixed(2)))
	logger.L.Info("Period closed", "period", period.String(), "netProfit", pnl.NetProfit.StringFixed(2))

	return s.GetByID(closeID)
}

// Reopen flips a CLOSED record to REOPENED with a mandatory reason. The
// closing entry is left in place; the accountant reverses it manually if the
// month's figures must change.
func (s *PeriodCloseService) Reopen(id string, cmd models.ReopenPeriodCommand, actor models.Actor) (*models.PeriodClose, error) {
	if !actor.Can(models.ActionReopenPeriod) {
		return nil, &ledger.PermissionError{Action: string(models.ActionReopenPeriod)}
	}
	if strings.TrimSpace(cmd.Reason) == "" {
		return nil, ledger.Invalid("a reason is required to reopen a period")
	}
	record, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if record.Status != ledger.PeriodClosed {
		return nil, &ledger.InvalidStateError{Op: "reopen period", State: string(record.Status)}
	}

	_, err = s.db.Exec(`
	UPDATE period_closes SET status = 'REOPENED', reopen_reason = ? WHERE id = ?`,
		strings.TrimSpace(cmd.Reason), id)
	if err != nil {
		return nil, err
	}

	s.reportCache.Flush()
	s.audit.Log(actor.UserID, "REOPEN", "PeriodClose", id,
		fmt.Sprintf("Period ending %s reopened: %s", record.PeriodDate, cmd.Reason))

	return s.GetByID(id)
}

// GetMonthPnL aggregates the month's posted revenue and expense movement,
// excluding closing entries.
func (s *PeriodCloseService) GetMonthPnL(year, month int) (*models.MonthPnL, error) {
	period, err := ledger.NewPeriod(year, time.Month(month))
	if err != nil {
		return nil, err
	}
	return s.monthPnL(period, true)
}

func (s *PeriodCloseService) monthPnL(period ledger.Period, excludeClosing bool) (*models.MonthPnL, error) {
	query := `
	SELECT a.id, a.code, a.name, a.account_type, l.debit_amount, l.credit_amount
	FROM journal_entry_lines l
	JOIN journal_entries e ON e.id = l.journal_entry_id
	JOIN account_heads a ON a.id = l.account_head_id
	WHERE e.status = 'POSTED'
		AND e.date >= ? AND e.date <= ?
		AND a.account_type IN ('REVENUE', 'EXPENSE')`
	args := []any{utils.FormatDate(period.Start()), utils.FormatDate(period.End())}
	if excludeClosing {
		query += ` AND e.reference_type != ?`
		args = append(args, referenceTypePeriodClose)
	}
	query += ` ORDER BY a.code ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type bucket struct {
		account models.PnLAccount
		isRev   bool
		order   int
	}
	buckets := make(map[string]*bucket)
	var order []string
	for rows.Next() {
		var id, code, name, accountType string
		var debit, credit decimal.Decimal
		if err := rows.Scan(&id, &code, &name, &accountType, &debit, &credit); err != nil {
			return nil, err
		}
		b, ok := buckets[id]
		if !ok {
			b = &bucket{
				account: models.PnLAccount{AccountHeadID: id, Code: code, Name: name, Amount: decimal.Zero},
				isRev:   ledger.AccountType(accountType) == ledger.AccountTypeRevenue,
			}
			buckets[id] = b
			order = append(order, id)
		}
		b.account.Amount = b.account.Amount.Add(
			ledger.BalanceChange(ledger.AccountType(accountType), debit, credit))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pnl := &models.MonthPnL{
		Period:        period.String(),
		Revenues:      []models.PnLAccount{},
		Expenses:      []models.PnLAccount{},
		TotalRevenue:  decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	for _, id := range order {
		b := buckets[id]
		if b.account.Amount.IsZero() {
			continue
		}
		if b.isRev {
			pnl.Revenues = append(pnl.Revenues, b.account)
			pnl.TotalRevenue = pnl.TotalRevenue.Add(b.account.Amount)
		} else {
			pnl.Expenses = append(pnl.Expenses, b.account)
			pnl.TotalExpenses = pnl.TotalExpenses.Add(b.account.Amount)
		}
	}
	pnl.NetProfit = pnl.TotalRevenue.Sub(pnl.TotalExpenses)
	return pnl, nil
}

// closingLines builds the closing entry's lines: each revenue account is
// debited by its net (credited if the net is negative), each expense account
// is credited by its net, and the resulting net profit lands in retained
// earnings. A profitable month credits retained earnings.
func closingLines(pnl *models.MonthPnL, retainedEarningsID string) []models.JournalLineInput {
	var lines []models.JournalLineInput
	for _, r := range pnl.Revenues {
		line := models.JournalLineInput{AccountHeadID: r.AccountHeadID, Description: "Close " + r.Name}
		if r.Amount.IsPositive() {
			line.DebitAmount = r.Amount
		} else {
			line.CreditAmount = r.Amount.Abs()
		}
		lines = append(lines, line)
	}
	for _, e := range pnl.Expenses {
		line := models.JournalLineInput{AccountHeadID: e.AccountHeadID, Description: "Close " + e.Name}
		if e.Amount.IsPositive() {
			line.CreditAmount = e.Amount
		} else {
			line.DebitAmount = e.Amount.Abs()
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil
	}
	reLine := models.JournalLineInput{AccountHeadID: retainedEarningsID, Description: "Net result to retained earnings"}
	if pnl.NetProfit.IsPositive() {
		reLine.CreditAmount = pnl.NetProfit
	} else if pnl.NetProfit.IsNegative() {
		reLine.DebitAmount = pnl.NetProfit.Abs()
	} else {
		// Revenue exactly offsets expense; the entry balances without a
		// retained earnings line.
		return lines
	}
	return append(lines, reLine)
}

func scanPeriodClose(scanner interface{ Scan(...any) error }) (*models.PeriodClose, error) {
	var p models.PeriodClose
	var status string
	var closingEntryID, closingEntryNumber, reopenReason sql.NullString
	err := scanner.Scan(&p.ID, &p.PeriodType, &p.PeriodDate, &p.NetProfit, &status,
		&closingEntryID, &closingEntryNumber, &reopenReason, &p.ClosedBy, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &ledger.NotFoundError{Entity: "period close"}
		}
		return nil, err
	}
	p.Status = ledger.PeriodCloseStatus(status)
	if closingEntryID.Valid {
		p.ClosingJournalEntryID = &closingEntryID.String
	}
	if closingEntryNumber.Valid {
		p.ClosingEntryNumber = closingEntryNumber.String
	}
	if reopenReason.Valid {
		p.ReopenReason = &reopenReason.String
	}
	return &p, nil
}
