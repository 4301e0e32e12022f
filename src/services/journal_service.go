package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/username/ledgererp/backend/src/ledger"
	"github.com/username/ledgererp/backend/src/logger"
	"github.com/username/ledgererp/backend/src/models"
	"github.com/username/ledgererp/backend/src/utils"
)

// JournalEntryService owns the draft/posted lifecycle of journal entries.
// Posting is a single SQL transaction: the status flip and every account
// balance delta land together or not at all.
type JournalEntryService struct {
	db          *sql.DB
	audit       *AuditService
	reportCache *cache.Cache
}

func NewJournalEntryService(db *sql.DB, audit *AuditService, reportCache *cache.Cache) *JournalEntryService {
	return &JournalEntryService{db: db, audit: audit, reportCache: reportCache}
}

// JournalEntryFilters narrows list queries.
type JournalEntryFilters struct {
	Status   string
	DateFrom string
	DateTo   string
	Search   string
	Page     int
	Limit    int
}

func (s *JournalEntryService) Create(cmd models.CreateJournalEntryCommand, actor models.Actor) (*models.JournalEntry, error) {
	if !actor.Can(models.ActionWriteLedger) {
		return nil, &ledger.PermissionError{Action: string(models.ActionWriteLedger)}
	}
	if err := s.validateCommand(cmd.Date, cmd.Description, cmd.Lines); err != nil {
		return nil, err
	}

	entryNumber, err := nextEntryNumber(s.db, cmd.Date)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	now := utils.Today()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
	INSERT INTO journal_entries
		(id, entry_number, date, description, status, reference_type, reference_id,
		 created_by, created_at, updated_at)
	VALUES (?, ?, ?, ?, 'DRAFT', ?, ?, ?, ?, ?)`,
		id, entryNumber, cmd.Date, strings.TrimSpace(cmd.Description),
		cmd.ReferenceType, cmd.ReferenceID, actor.UserID, now, now)
	if err != nil {
		return nil, err
	}
	if err := insertLinesTx(tx, id, cmd.Lines); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.audit.Log(actor.UserID, "CREATE", "JournalEntry", id,
		fmt.Sprintf("Journal entry created: %s - %s", entryNumber, cmd.Description))

	return s.GetByID(id)
}

func (s *JournalEntryService) GetByID(id string) (*models.JournalEntry, error) {
	entry, err := s.scanEntry(s.db.QueryRow(`
	SELECT id, entry_number, date, description, status, reference_type, reference_id,
		created_by, approved_by, created_at, updated_at
	FROM journal_entries WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	lines, err := s.loadLines([]string{id})
	if err != nil {
		return nil, err
	}
	entry.Lines = lines[id]
	return entry, nil
}

func (s *JournalEntryService) GetAll(filters JournalEntryFilters) ([]models.JournalEntry, int, error) {
	where := []string{"1=1"}
	var args []any
	if filters.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filters.Status)
	}
	if filters.DateFrom != "" {
		where = append(where, "date >= ?")
		args = append(args, filters.DateFrom)
	}
	if filters.DateTo != "" {
		where = append(where, "date <= ?")
		args = append(args, filters.DateTo)
	}
	if filters.Search != "" {
		where = append(where, "(entry_number LIKE ? OR description LIKE ?)")
		pattern := "%" + filters.Search + "%"
		args = append(args, pattern, pattern)
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM journal_entries WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(filters.Page, filters.Limit)
	rows, err := s.db.Query(`
	SELECT id, entry_number, date, description, status, reference_type, reference_id,
		created_by, approved_by, created_at, updated_at
	FROM journal_entries
	WHERE `+whereClause+`
	ORDER BY date DESC, entry_number DESC
	LIMIT ? OFFSET ?`, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := []models.JournalEntry{}
	var ids []string
	for rows.Next() {
		entry, err := s.scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, *entry)
		ids = append(ids, entry.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	lines, err := s.loadLines(ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range entries {
		entries[i].Lines = lines[entries[i].ID]
	}
	return entries, total, nil
}

// Update replaces the editable fields of a DRAFT entry. A non-nil line set
// replaces all existing lines; partial line patches are not supported, so a
// stale client can never leave an entry half-edited and unbalanced.
func (s *JournalEntryService) Update(id string, cmd models.UpdateJournalEntryCommand, actor models.Actor) (*models.JournalEntry, error) {
	if !actor.Can(models.ActionWriteLedger) {
		return nil, &ledger.PermissionError{Action: string(models.ActionWriteLedger)}
	}
	existing, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing.Status != ledger.EntryStatusDraft {
		return nil, &ledger.InvalidStateError{Op: "edit journal entry", State: string(existing.Status)}
	}

	date := existing.Date
	if cmd.Date != "" {
		date = cmd.Date
	}
	description := existing.Description
	if cmd.Description != "" {
		description = cmd.Description
	}
	lines := cmd.Lines
	if lines == nil {
		// Re-validate the stored lines against the possibly-changed header.
		lines = make([]models.JournalLineInput, len(existing.Lines))
		for i, l := range existing.Lines {
			lines[i] = models.JournalLineInput{
				AccountHeadID: l.AccountHeadID,
				DebitAmount:   l.DebitAmount,
				CreditAmount:  l.CreditAmount,
				Description:   l.Description,
			}
		}
	}
	if err := s.validateCommand(date, description, lines); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
	UPDATE journal_entries
	SET date = ?, description = ?, reference_type = ?, reference_id = ?, updated_at = ?
	WHERE id = ?`,
		date, strings.TrimSpace(description),
		firstNonEmpty(cmd.ReferenceType, existing.ReferenceType),
		firstNonEmpty(cmd.ReferenceID, existing.ReferenceID),
		utils.Today(), id)
	if err != nil {
		return nil, err
	}
	if cmd.Lines != nil {
		if _, err := tx.Exec(`DELETE FROM journal_entry_lines WHERE journal_entry_id = ?`, id); err != nil {
			return nil, err
		}
		if err := insertLinesTx(tx, id, cmd.Lines); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.audit.Log(actor.UserID, "UPDATE", "JournalEntry", id,
		fmt.Sprintf("Journal entry updated: %s", existing.EntryNumber))

	return s.GetByID(id)
}

// Post transitions a DRAFT entry to POSTED and applies each line's signed
// delta to its account head, all inside one transaction.
func (s *JournalEntryService) Post(id string, actor models.Actor) (*models.JournalEntry, error) {
	if !actor.Can(models.ActionPostEntry) {
		return nil, &ledger.PermissionError{Action: string(models.ActionPostEntry)}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	entry, err := s.scanEntry(tx.QueryRow(`
	SELECT id, entry_number, date, description, status, reference_type, reference_id,
		created_by, approved_by, created_at, updated_at
	FROM journal_entries WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	if entry.Status != ledger.EntryStatusDraft {
		return nil, &ledger.AlreadyPostedError{EntryNumber: entry.EntryNumber}
	}

	closed, period, err := isPeriodClosedTx(tx, entry.Date)
	if err != nil {
		return nil, err
	}
	if closed {
		return nil, ledger.Invalid("entry date %s falls in closed period %s", entry.Date, period)
	}

	rows, err := tx.Query(`
	SELECT l.id, l.account_head_id, l.debit_amount, l.credit_amount, a.account_type
	FROM journal_entry_lines l
	JOIN account_heads a ON a.id = l.account_head_id
	WHERE l.journal_entry_id = ?
	ORDER BY l.seq ASC`, id)
	if err != nil {
		return nil, err
	}
	type postedLine struct {
		accountID string
		delta     decimal.Decimal
	}
	var amounts []ledger.LineAmount
	var deltas []postedLine
	for rows.Next() {
		var lineID, accountID, accountType string
		var debit, credit decimal.Decimal
		if err := rows.Scan(&lineID, &accountID, &debit, &credit, &accountType); err != nil {
			rows.Close()
			return nil, err
		}
		amounts = append(amounts, ledger.LineAmount{AccountHeadID: accountID, Debit: debit, Credit: credit})
		deltas = append(deltas, postedLine{
			accountID: accountID,
			delta:     ledger.BalanceChange(ledger.AccountType(accountType), debit, credit),
		})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	check := ledger.ValidateBalance(amounts)
	if !check.IsBalanced {
		return nil, &ledger.NotBalancedError{TotalDebit: check.TotalDebit, TotalCredit: check.TotalCredit}
	}

	if _, err := tx.Exec(`
	UPDATE journal_entries SET status = 'POSTED', approved_by = ?, updated_at = ? WHERE id = ?`,
		actor.UserID, utils.Today(), id); err != nil {
		return nil, err
	}
	for _, d := range deltas {
		if err := applyBalanceChangeTx(tx, d.accountID, d.delta); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.invalidateReports()
	s.audit.Log(actor.UserID, "POST", "JournalEntry", id,
		fmt.Sprintf("Journal entry posted: %s (Debits: %s, Credits: %s)",
			entry.EntryNumber, check.TotalDebit.StringFixed(2), check.TotalCredit.StringFixed(2)))
	logger.L.Info("Journal entry posted", "entryNumber", entry.EntryNumber, "lines", len(deltas))

	return s.GetByID(id)
}

func (s *JournalEntryService) Delete(id string, actor models.Actor) error {
	if !actor.Can(models.ActionWriteLedger) {
		return &ledger.PermissionError{Action: string(models.ActionWriteLedger)}
	}
	existing, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if existing.Status != ledger.EntryStatusDraft {
		return &ledger.InvalidStateError{Op: "delete journal entry", State: string(existing.Status)}
	}
	if _, err := s.db.Exec(`DELETE FROM journal_entries WHERE id = ?`, id); err != nil {
		return err
	}
	s.audit.Log(actor.UserID, "DELETE", "JournalEntry", id,
		fmt.Sprintf("Journal entry deleted: %s", existing.EntryNumber))
	return nil
}

// ValidateLines exposes the pure balance check for the pre-flight endpoint:
// clients validate drafts as the user types without creating anything.
func (s *JournalEntryService) ValidateLines(lines []models.JournalLineInput) ledger.BalanceCheck {
	return ledger.ValidateBalance(toLineAmounts(lines))
}

func (s *JournalEntryService) validateCommand(date, description string, lines []models.JournalLineInput) error {
	if date == "" {
		return ledger.Invalid("entry date is required")
	}
	if _, err := utils.ParseDate(date); err != nil {
		return ledger.Invalid("invalid entry date %q: expected YYYY-MM-DD", date)
	}
	if err := ledger.ValidateDescription(strings.TrimSpace(description)); err != nil {
		return err
	}
	amounts := toLineAmounts(lines)
	if err := ledger.ValidateLines(amounts); err != nil {
		return err
	}
	check := ledger.ValidateBalance(amounts)
	if !check.IsBalanced {
		return &ledger.NotBalancedError{TotalDebit: check.TotalDebit, TotalCredit: check.TotalCredit}
	}

	// Every referenced account must exist and accept postings.
	for _, l := range lines {
		var status string
		err := s.db.QueryRow(`SELECT status FROM account_heads WHERE id = ?`, l.AccountHeadID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return &ledger.NotFoundError{Entity: "account head " + l.AccountHeadID}
		}
		if err != nil {
			return err
		}
		if ledger.AccountStatus(status) != ledger.AccountStatusActive {
			return ledger.Invalid("account %s is inactive", l.AccountHeadID)
		}
	}
	return nil
}

// rowQuerier is satisfied by both *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRow(query string, args ...any) *sql.Row
}

// nextEntryNumber produces the next JE-YYYYMMDD-NNN number for the entry
// date. The unique index on entry_number backstops concurrent callers.
func nextEntryNumber(q rowQuerier, date string) (string, error) {
	prefix := "JE-" + strings.ReplaceAll(date, "-", "") + "-"
	var latest sql.NullString
	err := q.QueryRow(`
	SELECT MAX(entry_number) FROM journal_entries WHERE entry_number LIKE ?`,
		prefix+"%").Scan(&latest)
	if err != nil {
		return "", err
	}
	next := 1
	if latest.Valid {
		parts := strings.Split(latest.String, "-")
		fmt.Sscanf(parts[len(parts)-1], "%d", &next)
		next++
	}
	return fmt.Sprintf("%s%03d", prefix, next), nil
}

func (s *JournalEntryService) scanEntry(scanner interface{ Scan(...any) error }) (*models.JournalEntry, error) {
	var e models.JournalEntry
	var status string
	var approvedBy sql.NullInt64
	err := scanner.Scan(&e.ID, &e.EntryNumber, &e.Date, &e.Description, &status,
		&e.ReferenceType, &e.ReferenceID, &e.CreatedBy, &approvedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &ledger.NotFoundError{Entity: "journal entry"}
		}
		return nil, err
	}
	e.Status = ledger.EntryStatus(status)
	if approvedBy.Valid {
		e.ApprovedBy = &approvedBy.Int64
	}
	return &e, nil
}

func (s *JournalEntryService) loadLines(entryIDs []string) (map[string][]models.JournalEntryLine, error) {
	result := make(map[string][]models.JournalEntryLine, len(entryIDs))
	if len(entryIDs) == 0 {
		return result, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(entryIDs)), ",")
	args := make([]any, len(entryIDs))
	for i, id := range entryIDs {
		args[i] = id
	}
	rows, err := s.db.Query(`
	SELECT l.id, l.journal_entry_id, l.account_head_id, a.code, a.name,
		l.debit_amount, l.credit_amount, l.description
	FROM journal_entry_lines l
	JOIN account_heads a ON a.id = l.account_head_id
	WHERE l.journal_entry_id IN (`+placeholders+`)
	ORDER BY l.seq ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var l models.JournalEntryLine
		if err := rows.Scan(&l.ID, &l.JournalEntryID, &l.AccountHeadID, &l.AccountCode,
			&l.AccountName, &l.DebitAmount, &l.CreditAmount, &l.Description); err != nil {
			return nil, err
		}
		result[l.JournalEntryID] = append(result[l.JournalEntryID], l)
	}
	return result, rows.Err()
}

func (s *JournalEntryService) invalidateReports() {
	if s.reportCache != nil {
		s.reportCache.Flush()
	}
}

func insertLinesTx(tx *sql.Tx, entryID string, lines []models.JournalLineInput) error {
	for i, l := range lines {
		_, err := tx.Exec(`
		INSERT INTO journal_entry_lines
			(id, journal_entry_id, account_head_id, debit_amount, credit_amount, description, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), entryID, l.AccountHeadID, l.DebitAmount, l.CreditAmount, l.Description, i)
		if err != nil {
			return err
		}
	}
	return nil
}

// applyBalanceChangeTx adds a signed delta to an account's current balance.
func applyBalanceChangeTx(tx *sql.Tx, accountID string, delta decimal.Decimal) error {
	var balance decimal.Decimal
	if err := tx.QueryRow(`SELECT current_balance FROM account_heads WHERE id = ?`, accountID).Scan(&balance); err != nil {
		return err
	}
	_, err := tx.Exec(`UPDATE account_heads SET current_balance = ? WHERE id = ?`,
		balance.Add(delta), accountID)
	return err
}

// isPeriodClosedTx reports whether the date falls in a month with a
// non-reopened CLOSED record.
func isPeriodClosedTx(tx *sql.Tx, date string) (bool, string, error) {
	t, err := utils.ParseDate(date)
	if err != nil {
		return false, "", ledger.Invalid("invalid date %q", date)
	}
	period := ledger.PeriodOf(t)
	var count int
	err = tx.QueryRow(`
	SELECT COUNT(1) FROM period_closes
	WHERE period_type = 'MONTH' AND period_date = ? AND status = 'CLOSED'`,
		utils.FormatDate(period.End())).Scan(&count)
	if err != nil {
		return false, "", err
	}
	return count > 0, period.String(), nil
}

func toLineAmounts(lines []models.JournalLineInput) []ledger.LineAmount {
	amounts := make([]ledger.LineAmount, len(lines))
	for i, l := range lines {
		amounts[i] = ledger.LineAmount{
			AccountHeadID: l.AccountHeadID,
			Debit:         l.DebitAmount,
			Credit:        l.CreditAmount,
		}
	}
	return amounts
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
