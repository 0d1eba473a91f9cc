package domain

import (
	"fmt"
	"time"
)

// MonthKey identifies a calendar month as YYYY-MM
type MonthKey string

const monthKeyLayout = "2006-01"

// ISODateLayout is the layout of TransactionRecord.Date
const ISODateLayout = "2006-01-02"

// ParseMonthKey validates s and returns it as a MonthKey
func ParseMonthKey(s string) (MonthKey, error) {
	if len(s) != len(monthKeyLayout) {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	if _, err := time.Parse(monthKeyLayout, s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return MonthKey(s), nil
}

// NewMonthKey builds the key of a year and month
func NewMonthKey(year int, month time.Month) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", year, int(month)))
}

// CurrentMonthKey returns the month of t in t's location
func CurrentMonthKey(t time.Time) MonthKey {
	return NewMonthKey(t.Year(), t.Month())
}

// MonthKeyOf returns the month a transaction date belongs to (its first seven characters)
func MonthKeyOf(date string) (MonthKey, error) {
	if len(date) < len(monthKeyLayout) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return ParseMonthKey(date[:len(monthKeyLayout)])
}

// Year returns the year of the key, or 0 when malformed
func (m MonthKey) Year() int {
	t, err := time.Parse(monthKeyLayout, string(m))
	if err != nil {
		return 0
	}
	return t.Year()
}

// Month returns the month of the key, or 0 when malformed
func (m MonthKey) Month() time.Month {
	t, err := time.Parse(monthKeyLayout, string(m))
	if err != nil {
		return 0
	}
	return t.Month()
}

// String implements fmt.Stringer
func (m MonthKey) String() string {
	return string(m)
}

// ParseISODate parses the calendar date at the start of an ISO-8601 date or timestamp
func ParseISODate(date string) (time.Time, error) {
	if len(date) < len(ISODateLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	t, err := time.Parse(ISODateLayout, date[:len(ISODateLayout)])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t, nil
}
