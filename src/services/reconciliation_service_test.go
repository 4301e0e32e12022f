package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/ledgererp/backend/src/ledger"
	"github.com/username/ledgererp/backend/src/models"
)

func newReconciliationFixture(t *testing.T) (*ReconciliationService, *JournalEntryService, models.Actor) {
	db := newTestDB(t)
	audit := NewAuditService(db)
	journal := NewJournalEntryService(db, audit, newTestCache())
	recon := NewReconciliationService(db, audit, "11")
	actor := newTestActor(t, db, models.RoleAccountant)
	return recon, journal, actor
}

func TestReconciliationCreate(t *testing.T) {
	recon, journal, actor := newReconciliationFixture(t)
	db := recon.db

	bank := accountIDByCode(t, db, "1102")
	postedEntry(t, journal, actor, "2026-01-05", "1102", "4001", "1000", db)
	postedEntry(t, journal, actor, "2026-01-20", "5201", "1102", "300", db)
	postedEntry(t, journal, actor, "2026-02-10", "1102", "4001", "999", db)

	session, err := recon.Create(models.CreateReconciliationCommand{
		BankAccountID:    bank,
		StatementDate:    "2026-01-31",
		StatementBalance: money("650"),
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, ledger.SessionInProgress, session.Status)
	assert.Equal(t, "1102", session.BankAccountCode)
	assert.True(t, session.SystemBalance.Equal(money("700")),
		"system balance comes from the posted ledger as of the statement date, ignoring February")

	t.Run("non-bank accounts are rejected", func(t *testing.T) {
		_, err := recon.Create(models.CreateReconciliationCommand{
			BankAccountID: accountIDByCode(t, db, "1201"),
			StatementDate: "2026-01-31",
		}, actor)
		var validationErr *ledger.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, err.Error(), "not a bank account")
	})

	t.Run("duplicate in-progress session conflicts", func(t *testing.T) {
		_, err := recon.Create(models.CreateReconciliationCommand{
			BankAccountID:    bank,
			StatementDate:    "2026-01-31",
			StatementBalance: money("650"),
		}, actor)
		var conflictErr *ledger.ConflictError
		require.ErrorAs(t, err, &conflictErr)
	})

	t.Run("viewer may not open sessions", func(t *testing.T) {
		viewer := newTestActor(t, db, models.RoleViewer)
		_, err := recon.Create(models.CreateReconciliationCommand{
			BankAccountID: bank,
			StatementDate: "2026-03-31",
		}, viewer)
		var permissionErr *ledger.PermissionError
		require.ErrorAs(t, err, &permissionErr)
	})
}

func TestReconciliationMatching(t *testing.T) {
	recon, journal, actor := newReconciliationFixture(t)
	db := recon.db

	bank := accountIDByCode(t, db, "1102")
	deposit := postedEntry(t, journal, actor, "2026-01-05", "1102", "4001", "1000", db)
	var bankLineID string
	for _, l := range deposit.Lines {
		if l.AccountHeadID == bank {
			bankLineID = l.ID
		}
	}
	require.NotEmpty(t, bankLineID)

	session, err := recon.Create(models.CreateReconciliationCommand{
		BankAccountID:    bank,
		StatementDate:    "2026-01-31",
		StatementBalance: money("1000"),
	}, actor)
	require.NoError(t, err)

	item, err := recon.AddItem(session.ID, models.AddStatementItemCommand{
		Description:     "Deposit",
		StatementAmount: money("1000"),
		StatementDate:   "2026-01-05",
	}, actor)
	require.NoError(t, err)

	t.Run("unmatched transactions list the bank line", func(t *testing.T) {
		transactions, err := recon.GetUnmatchedTransactions(session.ID)
		require.NoError(t, err)
		require.Len(t, transactions, 1)
		assert.Equal(t, bankLineID, transactions[0].LineID)
		assert.True(t, transactions[0].NetAmount.Equal(money("1000")))
	})

	matched, err := recon.MatchItem(session.ID, item.ID, models.MatchItemCommand{
		JournalEntryLineID: bankLineID,
	}, actor)
	require.NoError(t, err)
	assert.True(t, matched.Matched)

	t.Run("matched lines leave the unmatched list", func(t *testing.T) {
		transactions, err := recon.GetUnmatchedTransactions(session.ID)
		require.NoError(t, err)
		assert.Empty(t, transactions)
	})

	t.Run("a line can back only one item", func(t *testing.T) {
		other, err := recon.AddItem(session.ID, models.AddStatementItemCommand{
			Description:     "Duplicate deposit",
			StatementAmount: money("1000"),
			StatementDate:   "2026-01-05",
		}, actor)
		require.NoError(t, err)
		_, err = recon.MatchItem(session.ID, other.ID, models.MatchItemCommand{
			JournalEntryLineID: bankLineID,
		}, actor)
		var conflictErr *ledger.ConflictError
		require.ErrorAs(t, err, &conflictErr)

		require.NoError(t, recon.DeleteItem(session.ID, other.ID, actor))
	})

	t.Run("matched items cannot be deleted", func(t *testing.T) {
		err := recon.DeleteItem(session.ID, item.ID, actor)
		var validationErr *ledger.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("unmatch releases the line", func(t *testing.T) {
		released, err := recon.UnmatchItem(session.ID, item.ID, actor)
		require.NoError(t, err)
		assert.False(t, released.Matched)
		assert.Nil(t, released.JournalEntryLineID)

		transactions, err := recon.GetUnmatchedTransactions(session.ID)
		require.NoError(t, err)
		assert.Len(t, transactions, 1)

		_, err = recon.MatchItem(session.ID, item.ID, models.MatchItemCommand{
			JournalEntryLineID: bankLineID,
		}, actor)
		require.NoError(t, err)
	})

	t.Run("draft lines cannot be matched", func(t *testing.T) {
		draft, err := journal.Create(models.CreateJournalEntryCommand{
			Date:        "2026-01-10",
			Description: "Draft transfer",
			Lines: []models.JournalLineInput{
				{AccountHeadID: bank, DebitAmount: money("10")},
				{AccountHeadID: accountIDByCode(t, db, "4001"), CreditAmount: money("10")},
			},
		}, actor)
		require.NoError(t, err)

		extra, err := recon.AddItem(session.ID, models.AddStatementItemCommand{
			Description:     "Phantom",
			StatementAmount: money("10"),
			StatementDate:   "2026-01-10",
		}, actor)
		require.NoError(t, err)

		var draftBankLine string
		for _, l := range draft.Lines {
			if l.AccountHeadID == bank {
				draftBankLine = l.ID
			}
		}
		_, err = recon.MatchItem(session.ID, extra.ID, models.MatchItemCommand{
			JournalEntryLineID: draftBankLine,
		}, actor)
		var validationErr *ledger.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})
}

func TestReconciliationComplete(t *testing.T) {
	recon, journal, actor := newReconciliationFixture(t)
	db := recon.db

	bank := accountIDByCode(t, db, "1102")
	postedEntry(t, journal, actor, "2026-01-05", "1102", "4001", "500", db)

	session, err := recon.Create(models.CreateReconciliationCommand{
		BankAccountID:    bank,
		StatementDate:    "2026-01-31",
		StatementBalance: money("500"),
	}, actor)
	require.NoError(t, err)

	_, err = recon.AddItem(session.ID, models.AddStatementItemCommand{
		Description:     "Deposit",
		StatementAmount: money("500"),
		StatementDate:   "2026-01-05",
	}, actor)
	require.NoError(t, err)

	completed, summary, err := recon.Complete(session.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, ledger.SessionCompleted, completed.Status)
	assert.Equal(t, 0, summary.MatchedCount)
	assert.Equal(t, 1, summary.UnmatchedCount)
	assert.True(t, summary.Difference.IsZero())
	assert.True(t, summary.UnmatchedStatementTotal.Equal(money("500")))

	t.Run("completed sessions are immutable", func(t *testing.T) {
		_, err := recon.AddItem(session.ID, models.AddStatementItemCommand{
			Description:     "Late item",
			StatementAmount: money("5"),
			StatementDate:   "2026-01-30",
		}, actor)
		var invalidStateErr *ledger.InvalidStateError
		require.ErrorAs(t, err, &invalidStateErr)

		_, _, err = recon.Complete(session.ID, actor)
		require.ErrorAs(t, err, &invalidStateErr)
	})

	t.Run("a new session for the same month may start after completion", func(t *testing.T) {
		_, err := recon.Create(models.CreateReconciliationCommand{
			BankAccountID:    bank,
			StatementDate:    "2026-01-31",
			StatementBalance: money("500"),
		}, actor)
		require.NoError(t, err)
	})
}

func TestReconciliationImportStatement(t *testing.T) {
	recon, _, actor := newReconciliationFixture(t)
	db := recon.db

	session, err := recon.Create(models.CreateReconciliationCommand{
		BankAccountID:    accountIDByCode(t, db, "1102"),
		StatementDate:    "2026-01-31",
		StatementBalance: money("450"),
	}, actor)
	require.NoError(t, err)

	statement := `date,description,amount
2026-01-03,Customer deposit,750.00
2026-01-12,Utility payment,-300.00
`
	count, err := recon.ImportStatement(session.ID, "csv", strings.NewReader(statement), actor)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	loaded, err := recon.GetByID(session.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	assert.True(t, loaded.Items[0].StatementAmount.Equal(money("750.00")))
	assert.True(t, loaded.Items[1].StatementAmount.IsNegative())

	t.Run("malformed uploads import nothing", func(t *testing.T) {
		_, err := recon.ImportStatement(session.ID, "csv", strings.NewReader("garbage"), actor)
		require.Error(t, err)

		loaded, err := recon.GetByID(session.ID)
		require.NoError(t, err)
		assert.Len(t, loaded.Items, 2)
	})

	t.Run("unknown formats are rejected", func(t *testing.T) {
		_, err := recon.ImportStatement(session.ID, "qif", strings.NewReader(statement), actor)
		require.Error(t, err)
	})
}
