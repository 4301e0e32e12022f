package ledger

import (
	"fmt"
	"time"
)

// Period represents a calendar accounting month.
type Period struct {
	year  int
	month time.Month
}

func NewPeriod(year int, month time.Month) (Period, error) {
	if year < 2000 || year > 2100 {
		return Period{}, Invalid("invalid year %d: must be between 2000 and 2100", year)
	}
	if month < time.January || month > time.December {
		return Period{}, Invalid("invalid month %d", month)
	}
	return Period{year: year, month: month}, nil
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{year: t.Year(), month: t.Month()}
}

func (p Period) Year() int         { return p.year }
func (p Period) Month() time.Month { return p.month }
func (p Period) IsZero() bool      { return p.year == 0 }

func (p Period) String() string {
	return fmt.Sprintf("%d-%02d", p.year, int(p.month))
}

// Start returns the first day of the month.
func (p Period) Start() time.Time {
	return time.Date(p.year, p.month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the month.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.year && t.Month() == p.month
}

func (p Period) Next() Period {
	if p.month == time.December {
		return Period{year: p.year + 1, month: time.January}
	}
	return Period{year: p.year, month: p.month + 1}
}
