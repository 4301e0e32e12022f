package ledger

import (
	"regexp"
	"strings"
)

// Account codes are digit strings of at least 4 digits whose leading digit
// determines the account type: 1=Asset, 2=Liability, 3=Equity, 4=Revenue,
// 5=Expense.
var codePattern = regexp.MustCompile(`^[1-5][0-9]{3,}$`)

var codeTypeMap = map[byte]AccountType{
	'1': AccountTypeAsset,
	'2': AccountTypeLiability,
	'3': AccountTypeEquity,
	'4': AccountTypeRevenue,
	'5': AccountTypeExpense,
}

// ValidateCode checks the account code format.
func ValidateCode(code string) error {
	if !codePattern.MatchString(code) {
		return Invalid("account code %q must be at least 4 digits and start with 1-5", code)
	}
	return nil
}

// AccountTypeForCode returns the account type implied by the code's leading
// digit, and false for codes outside the convention.
func AccountTypeForCode(code string) (AccountType, bool) {
	if code == "" {
		return "", false
	}
	t, ok := codeTypeMap[code[0]]
	return t, ok
}

// IsBankAccountCode reports whether the code designates a bank account.
// Bank accounts live under the given asset code prefix (by convention "11").
func IsBankAccountCode(code, prefix string) bool {
	return strings.HasPrefix(code, prefix)
}
