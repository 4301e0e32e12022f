package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestIsDebitNormal(t *testing.T) {
	assert.True(t, IsDebitNormal(AccountTypeAsset))
	assert.True(t, IsDebitNormal(AccountTypeExpense))
	assert.False(t, IsDebitNormal(AccountTypeLiability))
	assert.False(t, IsDebitNormal(AccountTypeEquity))
	assert.False(t, IsDebitNormal(AccountTypeRevenue))
}

func TestBalanceChange(t *testing.T) {
	debit := decimal.NewFromInt(100)
	credit := decimal.NewFromInt(40)

	t.Run("debit-normal accounts grow on debit", func(t *testing.T) {
		change := BalanceChange(AccountTypeAsset, debit, credit)
		assert.True(t, change.Equal(decimal.NewFromInt(60)))
	})

	t.Run("credit-normal accounts grow on credit", func(t *testing.T) {
		change := BalanceChange(AccountTypeRevenue, debit, credit)
		assert.True(t, change.Equal(decimal.NewFromInt(-60)))
	})

	t.Run("a credit shrinks a debit-normal account", func(t *testing.T) {
		change := BalanceChange(AccountTypeExpense, decimal.Zero, credit)
		assert.True(t, change.Equal(decimal.NewFromInt(-40)))
	})
}

func TestWithinTolerance(t *testing.T) {
	assert.True(t, WithinTolerance(decimal.RequireFromString("10.005"), decimal.NewFromInt(10)))
	assert.False(t, WithinTolerance(decimal.RequireFromString("10.02"), decimal.NewFromInt(10)))
	assert.True(t, WithinTolerance(decimal.NewFromInt(10), decimal.NewFromInt(10)))
}
