package parsers

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVStatementParser(t *testing.T) {
	input := `date,description,amount
2026-01-05,Customer payment,1500.00
2026-01-07,Office rent,-800.50

2026-01-09,"Transfer, internal",250
`
	parser := &CSVStatementParser{}
	lines, err := parser.Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, lines, 3)

	assert.Equal(t, "2026-01-05", lines[0].Date)
	assert.Equal(t, "Customer payment", lines[0].Description)
	assert.True(t, lines[0].Amount.Equal(decimal.RequireFromString("1500.00")))

	assert.True(t, lines[1].Amount.IsNegative())
	assert.Equal(t, "Transfer, internal", lines[2].Description)
}

func TestCSVStatementParserHeaderVariants(t *testing.T) {
	input := `Transaction Date,Narrative,Value
07/01/2026,Card settlement,"1,234.56"
`
	parser := &CSVStatementParser{}
	lines, err := parser.Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "2026-01-07", lines[0].Date)
	assert.True(t, lines[0].Amount.Equal(decimal.RequireFromString("1234.56")))
}

func TestCSVStatementParserErrors(t *testing.T) {
	parser := &CSVStatementParser{}

	t.Run("empty file", func(t *testing.T) {
		_, err := parser.Parse(strings.NewReader(""))
		assert.Error(t, err)
	})

	t.Run("missing columns", func(t *testing.T) {
		_, err := parser.Parse(strings.NewReader("foo,bar\n1,2\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "header")
	})

	t.Run("bad amount", func(t *testing.T) {
		_, err := parser.Parse(strings.NewReader("date,description,amount\n2026-01-05,x,abc\n"))
		assert.Error(t, err)
	})

	t.Run("zero amount", func(t *testing.T) {
		_, err := parser.Parse(strings.NewReader("date,description,amount\n2026-01-05,x,0\n"))
		assert.Error(t, err)
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := parser.Parse(strings.NewReader("date,description,amount\n01-2026,x,10\n"))
		assert.Error(t, err)
	})

	t.Run("header only", func(t *testing.T) {
		_, err := parser.Parse(strings.NewReader("date,description,amount\n"))
		assert.Error(t, err)
	})
}

func TestGetParser(t *testing.T) {
	p, err := GetParser("csv")
	require.NoError(t, err)
	assert.IsType(t, &CSVStatementParser{}, p)

	p, err = GetParser("")
	require.NoError(t, err)
	assert.IsType(t, &CSVStatementParser{}, p)

	_, err = GetParser("ofx")
	assert.Error(t, err)
}
