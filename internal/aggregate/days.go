package aggregate

import (
	"time"

	"github.com/savemymoney/savemymoney-backend/internal/domain"
	"github.com/savemymoney/savemymoney-backend/internal/util"
)

// RemainingDays returns the whole days left from now until the last day of the month,
// never negative. now is read in its own location (the user's clock).
func RemainingDays(month domain.MonthKey, now time.Time) int {
	if month.Year() == 0 {
		return 0
	}
	lastDay := util.LastDayOfMonth(month.Year(), month.Month())
	days := util.CalendarDaysBetween(now, lastDay)
	if days < 0 {
		return 0
	}
	return days
}

// DaysInMonth returns the number of calendar days of the month, or 0 when malformed
func DaysInMonth(month domain.MonthKey) int {
	if month.Year() == 0 {
		return 0
	}
	return util.DaysInMonth(month.Year(), month.Month())
}
