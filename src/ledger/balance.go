package ledger

import "github.com/shopspring/decimal"

// IsDebitNormal reports whether the account type carries its natural
// balance on the debit side. Assets and expenses grow on debit; liability,
// equity and revenue accounts grow on credit.
func IsDebitNormal(t AccountType) bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// BalanceChange returns the signed delta a debit/credit pair applies to an
// account's balance, netted against the account's natural side. Posting a
// line adds this delta to AccountHead.currentBalance.
func BalanceChange(t AccountType, debit, credit decimal.Decimal) decimal.Decimal {
	if IsDebitNormal(t) {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// WithinTolerance reports whether a and b differ by less than the
// fixed-point tolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Tolerance)
}
