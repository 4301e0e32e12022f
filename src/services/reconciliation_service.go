package services

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/username/ledgererp/backend/src/ledger"
	"github.com/username/ledgererp/backend/src/logger"
	"github.com/username/ledgererp/backend/src/models"
	"github.com/username/ledgererp/backend/src/parsers"
	"github.com/username/ledgererp/backend/src/utils"
)

// ReconciliationService runs statement-matching sessions against bank
// accounts. A session's system balance is computed from the posted ledger as
// of the statement date, not from the live account balance, so entries
// posted after the statement date never skew an open session.
type ReconciliationService struct {
	db                *sql.DB
	audit             *AuditService
	bankAccountPrefix string
}

func NewReconciliationService(db *sql.DB, audit *AuditService, bankAccountPrefix string) *ReconciliationService {
	return &ReconciliationService{db: db, audit: audit, bankAccountPrefix: bankAccountPrefix}
}

// ReconciliationFilters narrows list queries.
type ReconciliationFilters struct {
	Status        string
	BankAccountID string
	Page          int
	Limit         int
}

func (s *ReconciliationService) Create(cmd models.CreateReconciliationCommand, actor models.Actor) (*models.BankReconciliation, error) {
	if !actor.Can(models.ActionWriteLedger) {
		return nil, &ledger.PermissionError{Action: string(models.ActionWriteLedger)}
	}
	if _, err := utils.ParseDate(cmd.StatementDate); err != nil {
		return nil, ledger.Invalid("invalid statement date %q: expected YYYY-MM-DD", cmd.StatementDate)
	}

	var code, name, accountType, status string
	err := s.db.QueryRow(`
	SELECT code, name, account_type, status FROM account_heads WHERE id = ?`,
		cmd.BankAccountID).Scan(&code, &name, &accountType, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.NotFoundError{Entity: "bank account"}
	}
	if err != nil {
		return nil, err
	}
	if !ledger.IsBankAccountCode(code, s.bankAccountPrefix) {
		return nil, ledger.Invalid("account %s is not a bank account (code must start with %q)",
			code, s.bankAccountPrefix)
	}
	if ledger.AccountStatus(status) != ledger.AccountStatusActive {
		return nil, ledger.Invalid("bank account %s is inactive", code)
	}

	var open int
	err = s.db.QueryRow(`
	SELECT COUNT(1) FROM bank_reconciliations
	WHERE bank_account_id = ? AND statement_date = ? AND status = 'IN_PROGRESS'`,
		cmd.BankAccountID, cmd.StatementDate).Scan(&open)
	if err != nil {
		return nil, err
	}
	if open > 0 {
		return nil, &ledger.ConflictError{Reason: fmt.Sprintf(
			"a reconciliation for account %s and statement date %s is already in progress",
			code, cmd.StatementDate)}
	}

	systemBalance, err := s.ledgerBalanceAsOf(cmd.BankAccountID, cmd.StatementDate)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	now := utils.Today()
	_, err = s.db.Exec(`
	INSERT INTO bank_reconciliations
		(id, bank_account_id, statement_date, statement_balance, system_balance,
		 status, reconciled_by, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, 'IN_PROGRESS', ?, ?, ?)`,
		id, cmd.BankAccountID, cmd.StatementDate, cmd.StatementBalance, systemBalance,
		actor.UserID, now, now)
	if err != nil {
		return nil, err
	}

	s.audit.Log(actor.UserID, "CREATE", "BankReconciliation", id,
		fmt.Sprintf("Reconciliation started for %s as of %s (statement %s, system %s)",
			code, cmd.StatementDate, cmd.StatementBalance.StringFixed(2), systemBalance.StringFixed(2)))

	return s.GetByID(id)
}

func (s *ReconciliationService) GetByID(id string) (*models.BankReconciliation, error) {
	session, err := s.scanSession(s.db.QueryRow(`
	SELECT r.id, r.bank_account_id, a.code, a.name, r.statement_date, r.statement_balance,
		r.system_balance, r.status, r.reconciled_by, r.created_at, r.updated_at
	FROM bank_reconciliations r
	JOIN account_heads a ON a.id = r.bank_account_id
	WHERE r.id = ?`, id))
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
	SELECT id, reconciliation_id, description, statement_amount, statement_date,
		matched, journal_entry_line_id, created_at
	FROM bank_reconciliation_items
	WHERE reconciliation_id = ?
	ORDER BY statement_date ASC, created_at ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	session.Items = []models.ReconciliationItem{}
	for rows.Next() {
		var item models.ReconciliationItem
		var lineID sql.NullString
		if err := rows.Scan(&item.ID, &item.ReconciliationID, &item.Description,
			&item.StatementAmount, &item.StatementDate, &item.Matched, &lineID, &item.CreatedAt); err != nil {
			return nil, err
		}
		if lineID.Valid {
			item.JournalEntryLineID = &lineID.String
		}
		session.Items = append(session.Items, item)
	}
	return session, rows.Err()
}

func (s *ReconciliationService) GetAll(filters ReconciliationFilters) ([]models.BankReconciliation, int, error) {
	where := []string{"1=1"}
	var args []any
	if filters.Status != "" {
		where = append(where, "r.status = ?")
		args = append(args, filters.Status)
	}
	if filters.BankAccountID != "" {
		where = append(where, "r.bank_account_id = ?")
		args = append(args, filters.BankAccountID)
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	err := s.db.QueryRow(`
	SELECT COUNT(1) FROM bank_reconciliations r WHERE `+whereClause, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(filters.Page, filters.Limit)
	rows, err := s.db.Query(`
	SELECT r.id, r.bank_account_id, a.code, a.name, r.statement_date, r.statement_balance,
		r.system_balance, r.status, r.reconciled_by, r.created_at, r.updated_at
	FROM bank_reconciliations r
	JOIN account_heads a ON a.id = r.bank_account_id
	WHERE `+whereClause+`
	ORDER BY r.statement_date DESC, r.created_at DESC
	LIMIT ? OFFSET ?`, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	sessions := []models.BankReconciliation{}
	for rows.Next() {
		session, err := s.scanSession(rows)
		if err != nil {
			return nil, 0, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, total, rows.Err()
}

// AddItem records one external statement line on an in-progress session.
func (s *ReconciliationService) AddItem(sessionID string, cmd models.AddStatementItemCommand, actor models.Actor) (*models.ReconciliationItem, error) {
	if !actor.Can(models.ActionWriteLedger) {
		return nil, &ledger.PermissionError{Action: string(models.ActionWriteLedger)}
	}
	session, err := s.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != ledger.SessionInProgress {
		return nil, &ledger.InvalidStateError{Op: "add statement item", State: string(session.Status)}
	}
	if strings.TrimSpace(cmd.Description) == "" {
		return nil, ledger.Invalid("statement item description is required")
	}
	if cmd.StatementAmount.IsZero() {
		return nil, ledger.Invalid("statement amount must be non-zero")
	}
	if _, err := utils.ParseDate(cmd.StatementDate); err != nil {
		return nil, ledger.Invalid("invalid statement item date %q: expected YYYY-MM-DD", cmd.StatementDate)
	}

	item := models.ReconciliationItem{
		ID:               uuid.NewString(),
		ReconciliationID: sessionID,
		Description:      strings.TrimSpace(cmd.Description),
		StatementAmount:  cmd.StatementAmount,
		StatementDate:    cmd.StatementDate,
		CreatedAt:        utils.Today(),
	}
	_, err = s.db.Exec(`
	INSERT INTO bank_reconciliation_items
		(id, reconciliation_id, description, statement_amount, statement_date, matched, created_at)
	VALUES (?, ?, ?, ?, ?, FALSE, ?)`,
		item.ID, item.ReconciliationID, item.Description, item.StatementAmount,
		item.StatementDate, item.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := s.touch(sessionID); err != nil {
		return nil, err
	}
	return &item, nil
}

// ImportStatement parses an uploaded bank statement and adds every
// transaction as an unmatched item on the session.
func (s *ReconciliationService) ImportStatement(sessionID, format string, r io.Reader, actor models.Actor) (int, error) {
	if !actor.Can(models.ActionWriteLedger) {
		return 0, &ledger.PermissionError{Action: string(models.ActionWriteLedger)}
	}
	session, err := s.GetByID(sessionID)
	if err != nil {
		return 0, err
	}
	if session.Status != ledger.SessionInProgress {
		return 0, &ledger.InvalidStateError{Op: "import statement", State: string(session.Status)}
	}

	parser, err := parsers.GetParser(format)
	if err != nil {
		return 0, ledger.Invalid("%s", err)
	}
	lines, err := parser.Parse(r)
	if err != nil {
		return 0, ledger.Invalid("failed to parse statement: %s", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := utils.Today()
	for _, line := range lines {
		_, err := tx.Exec(`
		INSERT INTO bank_reconciliation_items
			(id, reconciliation_id, description, statement_amount, statement_date, matched, created_at)
		VALUES (?, ?, ?, ?, ?, FALSE, ?)`,
			uuid.NewString(), sessionID, line.Description, line.Amount, line.Date, now)
		if err != nil {
			return 0, err
		}
	}
	if _, err := tx.Exec(`UPDATE bank_reconciliations SET updated_at = ? WHERE id = ?`, now, sessionID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	s.audit.Log(actor.UserID, "IMPORT", "BankReconciliation", sessionID,
		fmt.Sprintf("Imported %d statement transactions", len(lines)))
	logger.L.Info("Statement imported", "sessionId", sessionID, "transactions", len(lines))
	return len(lines), nil
}

// GetUnmatchedTransactions lists the posted journal lines of the session's
// bank account, dated on or before the statement date, that no item in any
// session has claimed.
func (s *ReconciliationService) GetUnmatchedTransactions(sessionID string) ([]models.UnmatchedTransaction, error) {
	session, err := s.GetByID(sessionID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
	SELECT l.id, e.entry_number, e.date, e.description, e.reference_type,
		l.debit_amount, l.credit_amount
	FROM journal_entry_lines l
	JOIN journal_entries e ON e.id = l.journal_entry_id
	WHERE l.account_head_id = ? AND e.status = 'POSTED' AND e.date <= ?
		AND l.id NOT IN (
			SELECT journal_entry_line_id FROM bank_reconciliation_items
			WHERE journal_entry_line_id IS NOT NULL
		)
	ORDER BY e.date ASC, e.entry_number ASC, l.seq ASC`,
		session.BankAccountID, session.StatementDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []models.UnmatchedTransaction{}
	for rows.Next() {
		var t models.UnmatchedTransaction
		if err := rows.Scan(&t.LineID, &t.EntryNumber, &t.Date, &t.Description,
			&t.ReferenceType, &t.Debit, &t.Credit); err != nil {
			return nil, err
		}
		// Bank accounts are assets: debits are inflows.
		t.NetAmount = t.Debit.Sub(t.Credit)
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// MatchItem links a statement item to a posted journal line of the session's
// bank account. A line may back at most one item across all sessions; the
// partial unique index backstops concurrent matches.
func (s *ReconciliationService) MatchItem(sessionID, itemID string, cmd models.MatchItemCommand, actor models.Actor) (*models.ReconciliationItem, error) {
	if !actor.Can(models.ActionWriteLedger) {
		return nil, &ledger.PermissionError{Action: string(models.ActionWriteLedger)}
	}
	session, item, err := s.sessionItem(sessionID, itemID)
	if err != nil {
		return nil, err
	}
	if session.Status != ledger.SessionInProgress {
		return nil, &ledger.InvalidStateError{Op: "match statement item", State: string(session.Status)}
	}
	if item.Matched {
		return nil, &ledger.ConflictError{Reason: "statement item is already matched"}
	}

	var lineAccountID, entryStatus string
	err = s.db.QueryRow(`
	SELECT l.account_head_id, e.status
	FROM journal_entry_lines l
	JOIN journal_entries e ON e.id = l.journal_entry_id
	WHERE l.id = ?`, cmd.JournalEntryLineID).Scan(&lineAccountID, &entryStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.NotFoundError{Entity: "journal entry line"}
	}
	if err != nil {
		return nil, err
	}
	if lineAccountID != session.BankAccountID {
		return nil, ledger.Invalid("journal line does not belong to the session's bank account")
	}
	if ledger.EntryStatus(entryStatus) != ledger.EntryStatusPosted {
		return nil, ledger.Invalid("only lines of posted entries can be matched")
	}

	var claimed int
	err = s.db.QueryRow(`
	SELECT COUNT(1) FROM bank_reconciliation_items WHERE journal_entry_line_id = ?`,
		cmd.JournalEntryLineID).Scan(&claimed)
	if err != nil {
		return nil, err
	}
	if claimed > 0 {
		return nil, &ledger.ConflictError{Reason: "journal line is already matched to another statement item"}
	}

	_, err = s.db.Exec(`
	UPDATE bank_reconciliation_items SET matched = TRUE, journal_entry_line_id = ? WHERE id = ?`,
		cmd.JournalEntryLineID, itemID)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, &ledger.ConflictError{Reason: "journal line is already matched to another statement item"}
		}
		return nil, err
	}
	if err := s.touch(sessionID); err != nil {
		return nil, err
	}

	item.Matched = true
	item.JournalEntryLineID = &cmd.JournalEntryLineID
	return item, nil
}

// UnmatchItem releases a matched item's journal line.
func (s *ReconciliationService) UnmatchItem(sessionID, itemID string, actor models.Actor) (*models.ReconciliationItem, error) {
	if !actor.Can(models.ActionWriteLedger) {
		return nil, &ledger.PermissionError{Action: string(models.ActionWriteLedger)}
	}
	session, item, err := s.sessionItem(sessionID, itemID)
	if err != nil {
		return nil, err
	}
	if session.Status != ledger.SessionInProgress {
		return nil, &ledger.InvalidStateError{Op: "unmatch statement item", State: string(session.Status)}
	}
	if !item.Matched {
		return nil, ledger.Invalid("statement item is not matched")
	}

	_, err = s.db.Exec(`
	UPDATE bank_reconciliation_items SET matched = FALSE, journal_entry_line_id = NULL WHERE id = ?`,
		itemID)
	if err != nil {
		return nil, err
	}
	if err := s.touch(sessionID); err != nil {
		return nil, err
	}

	item.Matched = false
	item.JournalEntryLineID = nil
	return item, nil
}

// DeleteItem removes an unmatched statement item.
func (s *ReconciliationService) DeleteItem(sessionID, itemID string, actor models.Actor) error {
	if !actor.Can(models.ActionWriteLedger) {
		return &ledger.PermissionError{Action: string(models.ActionWriteLedger)}
	}
	session, item, err := s.sessionItem(sessionID, itemID)
	if err != nil {
		return err
	}
	if session.Status != ledger.SessionInProgress {
		return &ledger.InvalidStateError{Op: "delete statement item", State: string(session.Status)}
	}
	if item.Matched {
		return ledger.Invalid("unmatch the statement item before deleting it")
	}
	if _, err := s.db.Exec(`DELETE FROM bank_reconciliation_items WHERE id = ?`, itemID); err != nil {
		return err
	}
	return s.touch(sessionID)
}

// Complete closes the session. The session and its items become immutable;
// a non-zero difference is allowed but logged.
func (s *ReconciliationService) Complete(sessionID string, actor models.Actor) (*models.BankReconciliation, *models.ReconciliationSummary, error) {
	if !actor.Can(models.ActionWriteLedger) {
		return nil, nil, &ledger.PermissionError{Action: string(models.ActionWriteLedger)}
	}
	session, err := s.GetByID(sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.Status != ledger.SessionInProgress {
		return nil, nil, &ledger.InvalidStateError{Op: "complete reconciliation", State: string(session.Status)}
	}

	summary := s.Summarize(session)
	if !summary.Difference.IsZero() {
		logger.L.Warn("Reconciliation completed with a non-zero difference",
			"sessionId", sessionID, "difference", summary.Difference.StringFixed(2))
	}

	_, err = s.db.Exec(`
	UPDATE bank_reconciliations SET status = 'COMPLETED', updated_at = ? WHERE id = ?`,
		utils.Today(), sessionID)
	if err != nil {
		return nil, nil, err
	}

	s.audit.Log(actor.UserID, "COMPLETE", "BankReconciliation", sessionID,
		fmt.Sprintf("Reconciliation completed: %d matched, %d unmatched, difference %s",
			summary.MatchedCount, summary.UnmatchedCount, summary.Difference.StringFixed(2)))

	session, err = s.GetByID(sessionID)
	if err != nil {
		return nil, nil, err
	}
	return session, summary, nil
}

// Summarize computes the session's match progress and the statement vs
// system difference.
func (s *ReconciliationService) Summarize(session *models.BankReconciliation) *models.ReconciliationSummary {
	summary := &models.ReconciliationSummary{
		Difference:              session.StatementBalance.Sub(session.SystemBalance),
		UnmatchedStatementTotal: decimal.Zero,
	}
	for _, item := range session.Items {
		if item.Matched {
			summary.MatchedCount++
		} else {
			summary.UnmatchedCount++
			summary.UnmatchedStatementTotal = summary.UnmatchedStatementTotal.Add(item.StatementAmount)
		}
	}
	return summary
}

// ledgerBalanceAsOf computes an account's balance from its opening balance
// plus every posted line dated on or before asOf.
func (s *ReconciliationService) ledgerBalanceAsOf(accountID, asOf string) (decimal.Decimal, error) {
	var accountType string
	var balance decimal.Decimal
	err := s.db.QueryRow(`
	SELECT account_type, opening_balance FROM account_heads WHERE id = ?`,
		accountID).Scan(&accountType, &balance)
	if err != nil {
		return decimal.Zero, err
	}
	natural := ledger.AccountType(accountType)

	rows, err := s.db.Query(`
	SELECT l.debit_amount, l.credit_amount
	FROM journal_entry_lines l
	JOIN journal_entries e ON e.id = l.journal_entry_id
	WHERE l.account_head_id = ? AND e.status = 'POSTED' AND e.date <= ?`,
		accountID, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()
	for rows.Next() {
		var debit, credit decimal.Decimal
		if err := rows.Scan(&debit, &credit); err != nil {
			return decimal.Zero, err
		}
		balance = balance.Add(ledger.BalanceChange(natural, debit, credit))
	}
	return balance, rows.Err()
}

func (s *ReconciliationService) scanSession(scanner interface{ Scan(...any) error }) (*models.BankReconciliation, error) {
	var r models.BankReconciliation
	var status string
	err := scanner.Scan(&r.ID, &r.BankAccountID, &r.BankAccountCode, &r.BankAccountName,
		&r.StatementDate, &r.StatementBalance, &r.SystemBalance, &status,
		&r.ReconciledBy, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &ledger.NotFoundError{Entity: "reconciliation session"}
		}
		return nil, err
	}
	r.Status = ledger.SessionStatus(status)
	return &r, nil
}

// sessionItem loads a session and one of its items, verifying ownership.
func (s *ReconciliationService) sessionItem(sessionID, itemID string) (*models.BankReconciliation, *models.ReconciliationItem, error) {
	session, err := s.GetByID(sessionID)
	if err != nil {
		return nil, nil, err
	}
	for i := range session.Items {
		if session.Items[i].ID == itemID {
			return session, &session.Items[i], nil
		}
	}
	return nil, nil, &ledger.NotFoundError{Entity: "statement item"}
}

func (s *ReconciliationService) touch(sessionID string) error {
	_, err := s.db.Exec(`UPDATE bank_reconciliations SET updated_at = ? WHERE id = ?`,
		utils.Today(), sessionID)
	return err
}
