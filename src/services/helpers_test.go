package services

import (
	"database/sql"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/username/ledgererp/backend/src/database"
	"github.com/username/ledgererp/backend/src/logger"
	"github.com/username/ledgererp/backend/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

var userSeq atomic.Int64

// newTestDB opens an isolated in-memory database with the full schema and
// the seeded chart of accounts.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	// Each new connection to :memory: is a fresh database; keep one.
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedChartOfAccounts(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestActor(t *testing.T, db *sql.DB, role models.Role) models.Actor {
	t.Helper()
	n := userSeq.Add(1)
	user := &models.User{
		Username: fmt.Sprintf("user%d", n),
		Email:    fmt.Sprintf("user%d@example.com", n),
		Role:     role,
	}
	require.NoError(t, user.HashPassword("correct-horse-battery"))
	require.NoError(t, user.CreateUser(db))
	return user.Actor()
}

func newTestCache() *cache.Cache {
	return cache.New(time.Minute, time.Minute)
}

// accountIDByCode resolves a seeded account's id.
func accountIDByCode(t *testing.T, db *sql.DB, code string) string {
	t.Helper()
	var id string
	require.NoError(t, db.QueryRow(`SELECT id FROM account_heads WHERE code = ?`, code).Scan(&id))
	return id
}

func money(v string) decimal.Decimal { return decimal.RequireFromString(v) }

// postedEntry creates and posts a simple two-line entry.
func postedEntry(t *testing.T, svc *JournalEntryService, actor models.Actor, date, debitCode, creditCode, amount string, db *sql.DB) *models.JournalEntry {
	t.Helper()
	entry, err := svc.Create(models.CreateJournalEntryCommand{
		Date:        date,
		Description: fmt.Sprintf("Test entry %s %s", date, amount),
		Lines: []models.JournalLineInput{
			{AccountHeadID: accountIDByCode(t, db, debitCode), DebitAmount: money(amount)},
			{AccountHeadID: accountIDByCode(t, db, creditCode), CreditAmount: money(amount)},
		},
	}, actor)
	require.NoError(t, err)
	posted, err := svc.Post(entry.ID, actor)
	require.NoError(t, err)
	return posted
}
