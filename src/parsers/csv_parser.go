package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CSVStatementParser reads statements in "date,description,amount" form.
// The header row names the columns (any order); dates must be YYYY-MM-DD or
// DD-MM-YYYY, and amounts may carry a thousands separator.
type CSVStatementParser struct{}

func (p *CSVStatementParser) Parse(r io.Reader) ([]StatementLine, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("statement file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read statement header: %w", err)
	}

	dateCol, descCol, amountCol := -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date", "transaction date":
			dateCol = i
		case "description", "narrative", "details":
			descCol = i
		case "amount", "value":
			amountCol = i
		}
	}
	if dateCol < 0 || descCol < 0 || amountCol < 0 {
		return nil, fmt.Errorf("statement header must contain date, description and amount columns, got %v", header)
	}

	var lines []StatementLine
	for lineNo := 2; ; lineNo++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read statement line %d: %w", lineNo, err)
		}
		if isBlankRecord(record) {
			continue
		}

		date, err := parseStatementDate(record[dateCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		amount, err := parseStatementAmount(record[amountCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		description := strings.TrimSpace(record[descCol])
		if description == "" {
			return nil, fmt.Errorf("line %d: description is empty", lineNo)
		}

		lines = append(lines, StatementLine{Date: date, Description: description, Amount: amount})
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("statement contains no transactions")
	}
	return lines, nil
}

var statementDateLayouts = []string{"2006-01-02", "02-01-2006", "02/01/2006"}

func parseStatementDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	for _, layout := range statementDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unrecognized date %q", value)
}

func parseStatementAmount(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(strings.ReplaceAll(value, ",", ""))
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", value)
	}
	if amount.IsZero() {
		return decimal.Zero, fmt.Errorf("amount must be non-zero")
	}
	return amount, nil
}

func isBlankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
