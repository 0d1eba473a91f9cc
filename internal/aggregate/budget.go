package aggregate

import "github.com/savemymoney/savemymoney-backend/internal/domain"

// BudgetItem is the spend-vs-limit state of one budget category
type BudgetItem struct {
	Category  string `json:"category"`
	Icon      string `json:"icon"`
	Spent     int64  `json:"spent"`
	Limit     int64  `json:"limit"`
	Remaining int64  `json:"remaining"`
}

// BudgetUtilization returns one item per budget of the month, in budget key order.
// Spending is matched to a budget by exact, case-sensitive category equality.
func BudgetUtilization(doc *domain.FinanceDocument, month domain.MonthKey) []BudgetItem {
	budgets := doc.MonthBudgets(month)
	items := make([]BudgetItem, 0, budgets.Len())
	if budgets.Len() == 0 {
		return items
	}

	spentByCategory := make(map[string]int64)
	for _, t := range doc.Ledger(month).Spending {
		spentByCategory[t.Category] += t.Amount
	}

	for _, category := range budgets.Keys() {
		entry, _ := budgets.Get(category)
		icon := entry.Icon
		if icon == "" {
			icon = domain.DefaultBudgetIcon
		}
		spent := spentByCategory[category]
		items = append(items, BudgetItem{
			Category:  category,
			Icon:      icon,
			Spent:     spent,
			Limit:     entry.Limit,
			Remaining: entry.Limit - spent,
		})
	}
	return items
}
