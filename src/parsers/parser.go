package parsers

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// StatementLine is one parsed bank-statement transaction. Amount is signed:
// positive for money into the account, negative for money out.
type StatementLine struct {
	Date        string
	Description string
	Amount      decimal.Decimal
}

// StatementParser turns an uploaded bank statement into statement lines.
type StatementParser interface {
	Parse(r io.Reader) ([]StatementLine, error)
}

// GetParser selects a parser by format name.
func GetParser(format string) (StatementParser, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "csv":
		return &CSVStatementParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported statement format: %q", format)
	}
}
