package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/ledgererp/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

// InitDB opens the database at databasePath, ensures the schema and seeds
// the default chart of accounts. It fatals on failure; the server cannot
// run without storage.
func InitDB(databasePath string) {
	db, err := Connect(databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}
	DB = db

	if err := Migrate(db); err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if err := SeedChartOfAccounts(db); err != nil {
		if logger.L != nil {
			logger.L.Error("failed to seed chart of accounts", "error", err)
		}
		stdlog.Fatalf("failed to seed chart of accounts: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.", "databasePath", databasePath)
	} else {
		stdlog.Println("Database tables ensured/created:", databasePath)
	}
}

// Connect opens a sqlite database and enables foreign key enforcement.
func Connect(databasePath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate ensures all tables and indexes exist. Amounts are stored as TEXT
// and scanned into decimal.Decimal; dates are ISO "YYYY-MM-DD" strings so
// lexicographic ordering matches chronological ordering.
func Migrate(db *sql.DB) error {
	createTableStatement := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'ACCOUNTANT',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		user_agent TEXT,
		client_ip TEXT,
		is_blocked BOOLEAN DEFAULT FALSE,
		expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS account_heads (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		account_type TEXT NOT NULL,
		parent_id TEXT,
		opening_balance TEXT NOT NULL DEFAULT '0',
		current_balance TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		is_system_account BOOLEAN NOT NULL DEFAULT FALSE,
		description TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		FOREIGN KEY(parent_id) REFERENCES account_heads(id)
	);

	CREATE TABLE IF NOT EXISTS journal_entries (
		id TEXT PRIMARY KEY,
		entry_number TEXT NOT NULL UNIQUE,
		date TEXT NOT NULL,
		description TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'DRAFT',
		reference_type TEXT NOT NULL DEFAULT '',
		reference_id TEXT NOT NULL DEFAULT '',
		created_by INTEGER NOT NULL,
		approved_by INTEGER,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		FOREIGN KEY(created_by) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS journal_entry_lines (
		id TEXT PRIMARY KEY,
		journal_entry_id TEXT NOT NULL,
		account_head_id TEXT NOT NULL,
		debit_amount TEXT NOT NULL DEFAULT '0',
		credit_amount TEXT NOT NULL DEFAULT '0',
		description TEXT NOT NULL DEFAULT '',
		seq INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY(journal_entry_id) REFERENCES journal_entries(id) ON DELETE CASCADE,
		FOREIGN KEY(account_head_id) REFERENCES account_heads(id)
	);

	CREATE TABLE IF NOT EXISTS bank_reconciliations (
		id TEXT PRIMARY KEY,
		bank_account_id TEXT NOT NULL,
		statement_date TEXT NOT NULL,
		statement_balance TEXT NOT NULL,
		system_balance TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'IN_PROGRESS',
		reconciled_by INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		FOREIGN KEY(bank_account_id) REFERENCES account_heads(id)
	);

	CREATE TABLE IF NOT EXISTS bank_reconciliation_items (
		id TEXT PRIMARY KEY,
		reconciliation_id TEXT NOT NULL,
		description TEXT NOT NULL,
		statement_amount TEXT NOT NULL,
		statement_date TEXT NOT NULL,
		matched BOOLEAN NOT NULL DEFAULT FALSE,
		journal_entry_line_id TEXT,
		created_at TEXT NOT NULL,
		FOREIGN KEY(reconciliation_id) REFERENCES bank_reconciliations(id) ON DELETE CASCADE,
		FOREIGN KEY(journal_entry_line_id) REFERENCES journal_entry_lines(id)
	);

	CREATE TABLE IF NOT EXISTS period_closes (
		id TEXT PRIMARY KEY,
		period_type TEXT NOT NULL DEFAULT 'MONTH',
		period_date TEXT NOT NULL,
		net_profit TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'CLOSED',
		closing_journal_entry_id TEXT,
		reopen_reason TEXT,
		closed_by INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		FOREIGN KEY(closing_journal_entry_id) REFERENCES journal_entries(id),
		FOREIGN KEY(closed_by) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS audit_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		action TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_journal_entries_date ON journal_entries(date);
	CREATE INDEX IF NOT EXISTS idx_journal_lines_entry ON journal_entry_lines(journal_entry_id);
	CREATE INDEX IF NOT EXISTS idx_journal_lines_account ON journal_entry_lines(account_head_id);

	-- A posted journal line may back at most one reconciliation item across
	-- all sessions.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_recon_item_line
		ON bank_reconciliation_items(journal_entry_line_id)
		WHERE journal_entry_line_id IS NOT NULL;

	-- One in-progress session per bank account + statement date.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_recon_in_progress
		ON bank_reconciliations(bank_account_id, statement_date)
		WHERE status = 'IN_PROGRESS';

	-- At most one non-reopened close per month.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_period_close_closed
		ON period_closes(period_type, period_date)
		WHERE status = 'CLOSED';
	`
	_, err := db.Exec(createTableStatement)
	return err
}
