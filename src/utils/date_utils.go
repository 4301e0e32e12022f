package utils

import "time"

// DefaultDateFormat is the ISO date format used throughout the API and
// storage. Lexicographic order on these strings matches date order.
const DefaultDateFormat = "2006-01-02"

// ParseDate parses an ISO date string.
func ParseDate(dateStr string) (time.Time, error) {
	return time.Parse(DefaultDateFormat, dateStr)
}

// FormatDate renders t in the default date format.
func FormatDate(t time.Time) string {
	return t.Format(DefaultDateFormat)
}

// Today returns the current UTC date string.
func Today() string {
	return time.Now().UTC().Format(DefaultDateFormat)
}
