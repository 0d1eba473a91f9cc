package util

import "time"

// LastDayOfMonth returns the last calendar day of a month
func LastDayOfMonth(year int, month time.Month) time.Time {
	// Day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the number of days in a month
func DaysInMonth(year int, month time.Month) int {
	return LastDayOfMonth(year, month).Day()
}

// CalendarDaysBetween counts whole calendar days from the date of from to the date of to.
// Times are compared by their wall-clock date, so DST shifts do not affect the result.
func CalendarDaysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
