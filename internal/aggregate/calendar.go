package aggregate

import "github.com/savemymoney/savemymoney-backend/internal/domain"

// DayMarker tells which kinds of transactions fall on a day
type DayMarker string

const (
	DayMarkerIncome   DayMarker = "income"
	DayMarkerSpending DayMarker = "spending"
	DayMarkerBoth     DayMarker = "both"
)

// DayMarkers marks every day of the month that has transactions.
// A day is both iff it has at least one income and one spending record.
// Records with an unparseable date are ignored.
func DayMarkers(ledger domain.MonthLedger) map[int]DayMarker {
	markers := make(map[int]DayMarker)
	mark := func(records []domain.TransactionRecord, kind, other DayMarker) {
		for _, t := range records {
			date, err := domain.ParseISODate(t.Date)
			if err != nil {
				continue
			}
			day := date.Day()
			switch markers[day] {
			case DayMarkerBoth:
			case other:
				markers[day] = DayMarkerBoth
			default:
				markers[day] = kind
			}
		}
	}

	mark(ledger.Income, DayMarkerIncome, DayMarkerSpending)
	mark(ledger.Spending, DayMarkerSpending, DayMarkerIncome)
	return markers
}
