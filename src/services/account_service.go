package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/username/ledgererp/backend/src/ledger"
	"github.com/username/ledgererp/backend/src/models"
	"github.com/username/ledgererp/backend/src/utils"
)

// AccountHeadService owns the chart of accounts.
type AccountHeadService struct {
	db    *sql.DB
	audit *AuditService
}

func NewAccountHeadService(db *sql.DB, audit *AuditService) *AccountHeadService {
	return &AccountHeadService{db: db, audit: audit}
}

// AccountHeadFilters narrows list queries.
type AccountHeadFilters struct {
	Status      string
	AccountType string
	Search      string
	Page        int
	Limit       int
}

const accountHeadColumns = `id, code, name, account_type, parent_id, opening_balance,
	current_balance, status, is_system_account, description, created_at, updated_at`

func scanAccountHead(scanner interface{ Scan(...any) error }) (models.AccountHead, error) {
	var a models.AccountHead
	var parentID sql.NullString
	var accountType, status string
	err := scanner.Scan(&a.ID, &a.Code, &a.Name, &accountType, &parentID,
		&a.OpeningBalance, &a.CurrentBalance, &status, &a.IsSystemAccount,
		&a.Description, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return models.AccountHead{}, err
	}
	a.AccountType = ledger.AccountType(accountType)
	a.Status = ledger.AccountStatus(status)
	if parentID.Valid {
		a.ParentID = &parentID.String
	}
	return a, nil
}

func (s *AccountHeadService) Create(cmd models.CreateAccountHeadCommand, actor models.Actor) (*models.AccountHead, error) {
	if !actor.Can(models.ActionManageAccounts) {
		return nil, &ledger.PermissionError{Action: string(models.ActionManageAccounts)}
	}
	if err := ledger.ValidateCode(cmd.Code); err != nil {
		return nil, err
	}
	accountType := ledger.AccountType(cmd.AccountType)
	if !accountType.Valid() {
		return nil, ledger.Invalid("invalid account type %q", cmd.AccountType)
	}
	if expected, ok := ledger.AccountTypeForCode(cmd.Code); ok && expected != accountType {
		return nil, ledger.Invalid("code starting with %q must be of type %s, got %s",
			cmd.Code[:1], expected, accountType)
	}
	if strings.TrimSpace(cmd.Name) == "" {
		return nil, ledger.Invalid("account name is required")
	}

	var exists int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM account_heads WHERE code = ?`, cmd.Code).Scan(&exists); err != nil {
		return nil, err
	}
	if exists > 0 {
		return nil, &ledger.ConflictError{Reason: fmt.Sprintf("account with code %q already exists", cmd.Code)}
	}

	if cmd.ParentID != nil {
		parent, err := s.GetByID(*cmd.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.AccountType != accountType {
			return nil, ledger.Invalid("parent account must be of the same type")
		}
	}

	status := ledger.AccountStatusActive
	if cmd.Status != "" {
		status = ledger.AccountStatus(cmd.Status)
		if status != ledger.AccountStatusActive && status != ledger.AccountStatusInactive {
			return nil, ledger.Invalid("invalid account status %q", cmd.Status)
		}
	}

	now := utils.Today()
	id := uuid.NewString()
	var parentID any
	if cmd.ParentID != nil {
		parentID = *cmd.ParentID
	}
	_, err := s.db.Exec(`
	INSERT INTO account_heads
		(id, code, name, account_type, parent_id, opening_balance, current_balance,
		 status, is_system_account, description, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, cmd.Code, strings.TrimSpace(cmd.Name), string(accountType), parentID,
		cmd.OpeningBalance, cmd.OpeningBalance, string(status), cmd.IsSystemAccount,
		cmd.Description, now, now)
	if err != nil {
		return nil, err
	}

	s.audit.Log(actor.UserID, "CREATE", "AccountHead", id,
		fmt.Sprintf("Account head created: %s - %s (%s)", cmd.Code, cmd.Name, accountType))

	return s.GetByID(id)
}

func (s *AccountHeadService) GetByID(id string) (*models.AccountHead, error) {
	row := s.db.QueryRow(`SELECT `+accountHeadColumns+` FROM account_heads WHERE id = ?`, id)
	account, err := scanAccountHead(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &ledger.NotFoundError{Entity: "account head"}
		}
		return nil, err
	}
	return &account, nil
}

// GetByCode looks an account up by its code.
func (s *AccountHeadService) GetByCode(code string) (*models.AccountHead, error) {
	row := s.db.QueryRow(`SELECT `+accountHeadColumns+` FROM account_heads WHERE code = ?`, code)
	account, err := scanAccountHead(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &ledger.NotFoundError{Entity: "account head"}
		}
		return nil, err
	}
	return &account, nil
}

func (s *AccountHeadService) GetAll(filters AccountHeadFilters) ([]models.AccountHead, int, error) {
	where := []string{"1=1"}
	var args []any
	if filters.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filters.Status)
	}
	if filters.AccountType != "" {
		where = append(where, "account_type = ?")
		args = append(args, filters.AccountType)
	}
	if filters.Search != "" {
		where = append(where, "(code LIKE ? OR name LIKE ?)")
		pattern := "%" + filters.Search + "%"
		args = append(args, pattern, pattern)
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM account_heads WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(filters.Page, filters.Limit)
	query := `SELECT ` + accountHeadColumns + ` FROM account_heads WHERE ` + whereClause +
		` ORDER BY code ASC LIMIT ? OFFSET ?`
	args = append(args, limit, (page-1)*limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	accounts := []models.AccountHead{}
	for rows.Next() {
		account, err := scanAccountHead(rows)
		if err != nil {
			return nil, 0, err
		}
		accounts = append(accounts, account)
	}
	return accounts, total, rows.Err()
}

// GetTree returns the chart of accounts nested by parent.
func (s *AccountHeadService) GetTree() ([]*models.AccountHeadNode, error) {
	rows, err := s.db.Query(`SELECT ` + accountHeadColumns + ` FROM account_heads ORDER BY code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.AccountHead
	for rows.Next() {
		account, err := scanAccountHead(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return models.BuildAccountTree(accounts), nil
}

func (s *AccountHeadService) Update(id string, cmd models.UpdateAccountHeadCommand, actor models.Actor) (*models.AccountHead, error) {
	if !actor.Can(models.ActionManageAccounts) {
		return nil, &ledger.PermissionError{Action: string(models.ActionManageAccounts)}
	}
	existing, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if cmd.ParentID != nil {
		if *cmd.ParentID == id {
			return nil, ledger.Invalid("account cannot be its own parent")
		}
		parent, err := s.GetByID(*cmd.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.AccountType != existing.AccountType {
			return nil, ledger.Invalid("parent account must be of the same type")
		}
	}

	set := []string{"updated_at = ?"}
	args := []any{utils.Today()}
	if cmd.Name != nil {
		if strings.TrimSpace(*cmd.Name) == "" {
			return nil, ledger.Invalid("account name is required")
		}
		set = append(set, "name = ?")
		args = append(args, strings.TrimSpace(*cmd.Name))
	}
	if cmd.ClearParent {
		set = append(set, "parent_id = NULL")
	} else if cmd.ParentID != nil {
		set = append(set, "parent_id = ?")
		args = append(args, *cmd.ParentID)
	}
	if cmd.OpeningBalance != nil {
		set = append(set, "opening_balance = ?")
		args = append(args, *cmd.OpeningBalance)
	}
	if cmd.Status != nil {
		status := ledger.AccountStatus(*cmd.Status)
		if status != ledger.AccountStatusActive && status != ledger.AccountStatusInactive {
			return nil, ledger.Invalid("invalid account status %q", *cmd.Status)
		}
		set = append(set, "status = ?")
		args = append(args, string(status))
	}
	if cmd.Description != nil {
		set = append(set, "description = ?")
		args = append(args, *cmd.Description)
	}

	args = append(args, id)
	if _, err := s.db.Exec(`UPDATE account_heads SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...); err != nil {
		return nil, err
	}

	s.audit.Log(actor.UserID, "UPDATE", "AccountHead", id,
		fmt.Sprintf("Account head updated: %s - %s", existing.Code, existing.Name))

	return s.GetByID(id)
}

// Delete removes an account head. System accounts, accounts with children
// and accounts referenced by journal lines cannot be deleted; deactivate
// those via Update instead.
func (s *AccountHeadService) Delete(id string, actor models.Actor) error {
	if !actor.Can(models.ActionManageAccounts) {
		return &ledger.PermissionError{Action: string(models.ActionManageAccounts)}
	}
	existing, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if existing.IsSystemAccount {
		return ledger.Invalid("cannot delete a system account")
	}

	var children int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM account_heads WHERE parent_id = ?`, id).Scan(&children); err != nil {
		return err
	}
	if children > 0 {
		return ledger.Invalid("cannot delete account with child accounts; remove children first")
	}

	var lines int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM journal_entry_lines WHERE account_head_id = ?`, id).Scan(&lines); err != nil {
		return err
	}
	if lines > 0 {
		return ledger.Invalid("cannot delete account with journal entries; deactivate it instead")
	}

	if _, err := s.db.Exec(`DELETE FROM account_heads WHERE id = ?`, id); err != nil {
		return err
	}

	s.audit.Log(actor.UserID, "DELETE", "AccountHead", id,
		fmt.Sprintf("Account head deleted: %s - %s", existing.Code, existing.Name))
	return nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 20
	}
	return page, limit
}
