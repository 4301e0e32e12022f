package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCode(t *testing.T) {
	assert.NoError(t, ValidateCode("1000"))
	assert.NoError(t, ValidateCode("59011"))
	assert.Error(t, ValidateCode("100"), "too short")
	assert.Error(t, ValidateCode("6000"), "leading digit outside 1-5")
	assert.Error(t, ValidateCode("10a0"), "non-digit")
	assert.Error(t, ValidateCode(""))
}

func TestAccountTypeForCode(t *testing.T) {
	cases := map[string]AccountType{
		"1101": AccountTypeAsset,
		"2101": AccountTypeLiability,
		"3200": AccountTypeEquity,
		"4001": AccountTypeRevenue,
		"5901": AccountTypeExpense,
	}
	for code, want := range cases {
		got, ok := AccountTypeForCode(code)
		assert.True(t, ok, code)
		assert.Equal(t, want, got, code)
	}

	_, ok := AccountTypeForCode("9999")
	assert.False(t, ok)
	_, ok = AccountTypeForCode("")
	assert.False(t, ok)
}

func TestIsBankAccountCode(t *testing.T) {
	assert.True(t, IsBankAccountCode("1102", "11"))
	assert.True(t, IsBankAccountCode("1101", "11"))
	assert.False(t, IsBankAccountCode("1201", "11"))
	assert.False(t, IsBankAccountCode("2101", "11"))
}
