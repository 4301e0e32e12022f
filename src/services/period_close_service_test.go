package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/ledgererp/backend/src/ledger"
	"github.com/username/ledgererp/backend/src/models"
)

func newPeriodCloseFixture(t *testing.T) (*PeriodCloseService, *JournalEntryService, models.Actor) {
	db := newTestDB(t)
	audit := NewAuditService(db)
	shared := newTestCache()
	journal := NewJournalEntryService(db, audit, shared)
	reports := NewReportService(db, shared)
	closes := NewPeriodCloseService(db, audit, reports, shared, "3200")
	actor := newTestActor(t, db, models.RoleAccountant)
	return closes, journal, actor
}

func TestGetMonthPnL(t *testing.T) {
	closes, journal, actor := newPeriodCloseFixture(t)
	db := closes.db

	postedEntry(t, journal, actor, "2026-01-05", "1101", "4001", "1000", db)
	postedEntry(t, journal, actor, "2026-01-10", "5201", "1101", "300", db)
	postedEntry(t, journal, actor, "2026-02-01", "5101", "1101", "999", db)

	pnl, err := closes.GetMonthPnL(2026, 1)
	require.NoError(t, err)
	assert.Equal(t, "2026-01", pnl.Period)
	require.Len(t, pnl.Revenues, 1)
	require.Len(t, pnl.Expenses, 1)
	assert.True(t, pnl.TotalRevenue.Equal(money("1000")))
	assert.True(t, pnl.TotalExpenses.Equal(money("300")))
	assert.True(t, pnl.NetProfit.Equal(money("700")))

	t.Run("invalid months are rejected", func(t *testing.T) {
		_, err := closes.GetMonthPnL(2026, 13)
		require.Error(t, err)
	})
}

func TestCloseMonth(t *testing.T) {
	closes, journal, actor := newPeriodCloseFixture(t)
	db := closes.db
	accounts := NewAccountHeadService(db, NewAuditService(db))

	postedEntry(t, journal, actor, "2026-01-05", "1101", "4001", "1000", db)
	postedEntry(t, journal, actor, "2026-01-10", "5201", "1101", "300", db)

	record, err := closes.CloseMonth(models.CloseMonthCommand{Year: 2026, Month: 1}, actor)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-31", record.PeriodDate)
	assert.Equal(t, ledger.PeriodClosed, record.Status)
	assert.True(t, record.NetProfit.Equal(money("700")))
	require.NotNil(t, record.ClosingJournalEntryID)
	assert.NotEmpty(t, record.ClosingEntryNumber)

	t.Run("closing entry is auto-posted and tagged", func(t *testing.T) {
		entry, err := journal.GetByID(*record.ClosingJournalEntryID)
		require.NoError(t, err)
		assert.Equal(t, ledger.EntryStatusPosted, entry.Status)
		assert.Equal(t, "PERIOD_CLOSE", entry.ReferenceType)
		assert.Equal(t, "2026-01-31", entry.Date)
		require.Len(t, entry.Lines, 3, "revenue, expense and retained earnings")
	})

	t.Run("closing zeroes revenue and expense balances", func(t *testing.T) {
		sales, err := accounts.GetByCode("4001")
		require.NoError(t, err)
		assert.True(t, sales.CurrentBalance.IsZero())

		rent, err := accounts.GetByCode("5201")
		require.NoError(t, err)
		assert.True(t, rent.CurrentBalance.IsZero())

		retained, err := accounts.GetByCode("3200")
		require.NoError(t, err)
		assert.True(t, retained.CurrentBalance.Equal(money("700")))
	})

	t.Run("pnl excludes the closing entry", func(t *testing.T) {
		pnl, err := closes.GetMonthPnL(2026, 1)
		require.NoError(t, err)
		assert.True(t, pnl.NetProfit.Equal(money("700")), "unchanged by the close itself")
	})

	t.Run("closing twice conflicts", func(t *testing.T) {
		_, err := closes.CloseMonth(models.CloseMonthCommand{Year: 2026, Month: 1}, actor)
		var alreadyClosedErr *ledger.AlreadyClosedError
		require.ErrorAs(t, err, &alreadyClosedErr)
	})

	t.Run("posting into a closed month is rejected", func(t *testing.T) {
		draft, err := journal.Create(models.CreateJournalEntryCommand{
			Date:        "2026-01-20",
			Description: "Late arrival",
			Lines: []models.JournalLineInput{
				{AccountHeadID: accountIDByCode(t, db, "1101"), DebitAmount: money("10")},
				{AccountHeadID: accountIDByCode(t, db, "4001"), CreditAmount: money("10")},
			},
		}, actor)
		require.NoError(t, err)

		_, err = journal.Post(draft.ID, actor)
		var validationErr *ledger.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, err.Error(), "closed period")

		require.NoError(t, journal.Delete(draft.ID, actor))
	})
}

func TestCloseMonthGuards(t *testing.T) {
	closes, journal, actor := newPeriodCloseFixture(t)
	db := closes.db

	t.Run("draft entries block the close", func(t *testing.T) {
		_, err := journal.Create(models.CreateJournalEntryCommand{
			Date:        "2026-03-05",
			Description: "Still a draft",
			Lines: []models.JournalLineInput{
				{AccountHeadID: accountIDByCode(t, db, "1101"), DebitAmount: money("10")},
				{AccountHeadID: accountIDByCode(t, db, "4001"), CreditAmount: money("10")},
			},
		}, actor)
		require.NoError(t, err)

		_, err = closes.CloseMonth(models.CloseMonthCommand{Year: 2026, Month: 3}, actor)
		var validationErr *ledger.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, err.Error(), "draft")
	})

	t.Run("a month without activity closes with zero profit and no entry", func(t *testing.T) {
		record, err := closes.CloseMonth(models.CloseMonthCommand{Year: 2026, Month: 4}, actor)
		require.NoError(t, err)
		assert.True(t, record.NetProfit.IsZero())
		assert.Nil(t, record.ClosingJournalEntryID)
	})

	t.Run("viewer may not close", func(t *testing.T) {
		viewer := newTestActor(t, db, models.RoleViewer)
		_, err := closes.CloseMonth(models.CloseMonthCommand{Year: 2026, Month: 5}, viewer)
		var permissionErr *ledger.PermissionError
		require.ErrorAs(t, err, &permissionErr)
	})
}

func TestReopenPeriod(t *testing.T) {
	closes, journal, actor := newPeriodCloseFixture(t)
	db := closes.db
	admin := newTestActor(t, db, models.RoleAdmin)

	postedEntry(t, journal, actor, "2026-01-05", "1101", "4001", "100", db)
	record, err := closes.CloseMonth(models.CloseMonthCommand{Year: 2026, Month: 1}, actor)
	require.NoError(t, err)

	t.Run("accountant may not reopen", func(t *testing.T) {
		_, err := closes.Reopen(record.ID, models.ReopenPeriodCommand{Reason: "typo"}, actor)
		var permissionErr *ledger.PermissionError
		require.ErrorAs(t, err, &permissionErr)
	})

	t.Run("reason is mandatory", func(t *testing.T) {
		_, err := closes.Reopen(record.ID, models.ReopenPeriodCommand{Reason: "  "}, admin)
		var validationErr *ledger.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	reopened, err := closes.Reopen(record.ID, models.ReopenPeriodCommand{Reason: "missed invoice"}, admin)
	require.NoError(t, err)
	assert.Equal(t, ledger.PeriodReopened, reopened.Status)
	require.NotNil(t, reopened.ReopenReason)
	assert.Equal(t, "missed invoice", *reopened.ReopenReason)

	t.Run("reopened records cannot be reopened again", func(t *testing.T) {
		_, err := closes.Reopen(record.ID, models.ReopenPeriodCommand{Reason: "again"}, admin)
		var invalidStateErr *ledger.InvalidStateError
		require.ErrorAs(t, err, &invalidStateErr)
	})

	t.Run("the month may be posted into and closed again", func(t *testing.T) {
		postedEntry(t, journal, actor, "2026-01-15", "1101", "4001", "50", db)

		record, err := closes.CloseMonth(models.CloseMonthCommand{Year: 2026, Month: 1}, actor)
		require.NoError(t, err)
		assert.Equal(t, ledger.PeriodClosed, record.Status)
		assert.True(t, record.NetProfit.Equal(money("50")), "only the new activity remains unclosed")
	})
}
