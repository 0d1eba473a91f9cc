package aggregate

import (
	"time"

	"github.com/savemymoney/savemymoney-backend/internal/domain"
)

// MonthView bundles every derived view of one month, computed from a single snapshot
type MonthView struct {
	Month         domain.MonthKey   `json:"month"`
	DaysInMonth   int               `json:"daysInMonth"`
	RemainingDays int               `json:"remainingDays"`
	Budgets       []BudgetItem      `json:"budgets"`
	Spending      []Slice           `json:"spending"`
	Income        []Slice           `json:"income"`
	Summary       Summary           `json:"summary"`
	Markers       map[int]DayMarker `json:"markers"`
	Categories    []string          `json:"categories"`
	Transactions  []Entry           `json:"transactions"`
}

// BuildMonthView computes all views of a month
func BuildMonthView(doc *domain.FinanceDocument, month domain.MonthKey, filter Filter, now time.Time) MonthView {
	ledger := doc.Ledger(month)
	return MonthView{
		Month:         month,
		DaysInMonth:   DaysInMonth(month),
		RemainingDays: RemainingDays(month, now),
		Budgets:       BudgetUtilization(doc, month),
		Spending:      Breakdown(GroupByCategory(ledger.Spending)),
		Income:        Breakdown(GroupByCategory(ledger.Income)),
		Summary:       Summarize(ledger),
		Markers:       DayMarkers(ledger),
		Categories:    Categories(ledger),
		Transactions:  ListTransactions(ledger, filter),
	}
}
