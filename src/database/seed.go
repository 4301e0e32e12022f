package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type seedAccount struct {
	code        string
	name        string
	accountType string
	parentCode  string
	system      bool
}

// Default chart of accounts. Top-level heads and Retained Earnings (3200)
// are system accounts: the period close depends on 3200 existing.
var defaultAccounts = []seedAccount{
	{code: "1000", name: "Assets", accountType: "ASSET", system: true},
	{code: "1101", name: "Cash in Hand", accountType: "ASSET", parentCode: "1000", system: true},
	{code: "1102", name: "Bank - Main", accountType: "ASSET", parentCode: "1000", system: true},
	{code: "1201", name: "Accounts Receivable", accountType: "ASSET", parentCode: "1000", system: true},
	{code: "1301", name: "Inventory", accountType: "ASSET", parentCode: "1000", system: false},

	{code: "2000", name: "Liabilities", accountType: "LIABILITY", system: true},
	{code: "2101", name: "Accounts Payable", accountType: "LIABILITY", parentCode: "2000", system: true},
	{code: "2201", name: "Sales Tax Payable", accountType: "LIABILITY", parentCode: "2000", system: false},

	{code: "3000", name: "Equity", accountType: "EQUITY", system: true},
	{code: "3100", name: "Owner Capital", accountType: "EQUITY", parentCode: "3000", system: false},
	{code: "3200", name: "Retained Earnings", accountType: "EQUITY", parentCode: "3000", system: true},

	{code: "4000", name: "Revenue", accountType: "REVENUE", system: true},
	{code: "4001", name: "Sales Revenue", accountType: "REVENUE", parentCode: "4000", system: false},
	{code: "4101", name: "Other Income", accountType: "REVENUE", parentCode: "4000", system: false},

	{code: "5000", name: "Expenses", accountType: "EXPENSE", system: true},
	{code: "5001", name: "Cost of Goods Sold", accountType: "EXPENSE", parentCode: "5000", system: false},
	{code: "5101", name: "Salaries Expense", accountType: "EXPENSE", parentCode: "5000", system: false},
	{code: "5201", name: "Rent Expense", accountType: "EXPENSE", parentCode: "5000", system: false},
	{code: "5901", name: "Bank Charges", accountType: "EXPENSE", parentCode: "5000", system: false},
}

// SeedChartOfAccounts inserts the default chart of accounts on first run.
// Existing codes are left untouched.
func SeedChartOfAccounts(db *sql.DB) error {
	now := time.Now().UTC().Format("2006-01-02")
	idsByCode := make(map[string]string, len(defaultAccounts))

	for _, acc := range defaultAccounts {
		var existingID string
		err := db.QueryRow(`SELECT id FROM account_heads WHERE code = ?`, acc.code).Scan(&existingID)
		if err == nil {
			idsByCode[acc.code] = existingID
			continue
		}
		if err != sql.ErrNoRows {
			return err
		}

		id := uuid.NewString()
		var parentID any
		if acc.parentCode != "" {
			if pid, ok := idsByCode[acc.parentCode]; ok {
				parentID = pid
			}
		}
		_, err = db.Exec(`
		INSERT INTO account_heads
			(id, code, name, account_type, parent_id, opening_balance, current_balance,
			 status, is_system_account, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, '0', '0', 'ACTIVE', ?, '', ?, ?)`,
			id, acc.code, acc.name, acc.accountType, parentID, acc.system, now, now)
		if err != nil {
			return err
		}
		idsByCode[acc.code] = id
	}
	return nil
}
