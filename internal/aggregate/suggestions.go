package aggregate

import "github.com/savemymoney/savemymoney-backend/internal/domain"

// DefaultIncomeCategories are offered when recording income
var DefaultIncomeCategories = []string{
	"Lương",
	"Thưởng",
	"Lợi nhuận",
	"Kinh doanh",
	"Trợ cấp",
	"Thu hồi nợ",
}

// CategorySuggestions returns the categories offered when recording a transaction:
// the month's budget categories for spending, the default list for income.
func CategorySuggestions(doc *domain.FinanceDocument, month domain.MonthKey, t domain.TransactionType) []string {
	if t == domain.TransactionTypeIncome {
		out := make([]string, len(DefaultIncomeCategories))
		copy(out, DefaultIncomeCategories)
		return out
	}
	keys := doc.MonthBudgets(month).Keys()
	if keys == nil {
		return []string{}
	}
	return keys
}
