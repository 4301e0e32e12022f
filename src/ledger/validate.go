package ledger

import "github.com/shopspring/decimal"

// BalanceCheck is the result of validating the debit/credit totals of a set
// of journal lines.
type BalanceCheck struct {
	IsBalanced  bool            `json:"isBalanced"`
	TotalDebit  decimal.Decimal `json:"totalDebit"`
	TotalCredit decimal.Decimal `json:"totalCredit"`
	Difference  decimal.Decimal `json:"difference"`
}

// ValidateBalance computes debit/credit totals over lines. The set is
// balanced iff |totalDebit - totalCredit| < 0.01 and totalDebit > 0: an
// entry whose total debit is zero is never balanced, so an accidental
// all-zero entry can not appear valid.
func ValidateBalance(lines []LineAmount) BalanceCheck {
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, l := range lines {
		totalDebit = totalDebit.Add(l.Debit)
		totalCredit = totalCredit.Add(l.Credit)
	}
	diff := totalDebit.Sub(totalCredit).Abs()
	return BalanceCheck{
		IsBalanced:  diff.LessThan(Tolerance) && totalDebit.IsPositive(),
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
		Difference:  diff,
	}
}

// ValidateLines enforces the structural invariants of a draft entry's line
// set: at least two lines referencing at least two distinct accounts, every
// line carrying exactly one strictly positive side, and no negative amounts.
func ValidateLines(lines []LineAmount) error {
	if len(lines) < 2 {
		return Invalid("a journal entry requires at least 2 lines, got %d", len(lines))
	}
	accounts := make(map[string]struct{}, len(lines))
	for i, l := range lines {
		if l.AccountHeadID == "" {
			return Invalid("line %d is missing an account head", i+1)
		}
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return Invalid("line %d has a negative amount", i+1)
		}
		hasDebit := l.Debit.IsPositive()
		hasCredit := l.Credit.IsPositive()
		if hasDebit && hasCredit {
			return Invalid("line %d cannot have both debit and credit amounts", i+1)
		}
		if !hasDebit && !hasCredit {
			return Invalid("line %d must have a debit or credit amount", i+1)
		}
		accounts[l.AccountHeadID] = struct{}{}
	}
	if len(accounts) < 2 {
		return Invalid("journal entry lines must reference at least 2 distinct accounts")
	}
	return nil
}

// ValidateDescription enforces the 3..500 character bound on entry
// descriptions.
func ValidateDescription(description string) error {
	if n := len(description); n < 3 || n > 500 {
		return Invalid("description must be between 3 and 500 characters, got %d", n)
	}
	return nil
}
