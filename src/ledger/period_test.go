package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPeriod(t *testing.T) {
	p, err := NewPeriod(2026, time.February)
	require.NoError(t, err)
	assert.Equal(t, 2026, p.Year())
	assert.Equal(t, time.February, p.Month())
	assert.Equal(t, "2026-02", p.String())

	_, err = NewPeriod(1999, time.January)
	assert.Error(t, err)
	_, err = NewPeriod(2026, time.Month(13))
	assert.Error(t, err)
}

func TestPeriodBounds(t *testing.T) {
	feb, err := NewPeriod(2024, time.February)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", feb.Start().Format("2006-01-02"))
	assert.Equal(t, "2024-02-29", feb.End().Format("2006-01-02"), "leap year")

	dec, err := NewPeriod(2026, time.December)
	require.NoError(t, err)
	assert.Equal(t, "2026-12-31", dec.End().Format("2006-01-02"))
	assert.Equal(t, "2027-01", dec.Next().String())
}

func TestPeriodContains(t *testing.T) {
	p, err := NewPeriod(2026, time.March)
	require.NoError(t, err)
	assert.True(t, p.Contains(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)))
}

func TestPeriodOf(t *testing.T) {
	p := PeriodOf(time.Date(2026, 8, 28, 12, 30, 0, 0, time.UTC))
	assert.Equal(t, "2026-08", p.String())
}
