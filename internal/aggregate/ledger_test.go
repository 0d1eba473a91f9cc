package aggregate

import (
	"testing"

	"github.com/savemymoney/savemymoney-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func note(s string) *string {
	return &s
}

func sampleLedger() domain.MonthLedger {
	return domain.MonthLedger{
		Spending: []domain.TransactionRecord{
			{ID: "s1", Amount: 50_000, Category: "Ăn uống", Date: "2025-04-03", Note: note("Phở bò")},
			{ID: "s2", Amount: 20_000, Category: "Xe", Date: "2025-04-10"},
			{ID: "s3", Amount: 30_000, Category: "Ăn uống", Date: "2025-04-10", Note: note("cà phê")},
		},
		Income: []domain.TransactionRecord{
			{ID: "i1", Amount: 9_000_000, Category: "Lương", Date: "2025-04-01", Note: note("lương tháng 4")},
		},
	}
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleLedger())

	assert.Equal(t, int64(9_000_000), s.TotalIncome)
	assert.Equal(t, int64(100_000), s.TotalSpending)
	assert.Equal(t, int64(8_900_000), s.Net)
}

func TestSummarize_NegativeNet(t *testing.T) {
	s := Summarize(domain.MonthLedger{Spending: []domain.TransactionRecord{{Amount: 5}}})
	assert.Equal(t, int64(-5), s.Net)
}

func TestListTransactions_NoFilterSortsNewestFirst(t *testing.T) {
	entries := ListTransactions(sampleLedger(), Filter{})

	assert.Equal(t, []string{"s2", "s3", "s1", "i1"}, ids(entries))
	assert.Equal(t, domain.TransactionTypeIncome, entries[3].Type)
}

func TestListTransactions_Filters(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"by day", Filter{Day: 10}, []string{"s2", "s3"}},
		{"by category exact", Filter{Category: "Ăn uống"}, []string{"s3", "s1"}},
		{"category is case sensitive", Filter{Category: "ăn uống"}, []string{}},
		{"search note case insensitive", Filter{Search: "PHỞ"}, []string{"s1"}},
		{"search skips records without note", Filter{Search: "xe"}, []string{}},
		{"all filters combined", Filter{Day: 10, Category: "Ăn uống", Search: "cà"}, []string{"s3"}},
		{"day without records", Filter{Day: 31}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(ListTransactions(sampleLedger(), tt.filter)))
		})
	}
}

func TestCategories(t *testing.T) {
	ledger := sampleLedger()
	ledger.Spending = append(ledger.Spending, domain.TransactionRecord{ID: "s4", Category: ""})

	assert.Equal(t, []string{"Ăn uống", "Xe", "Lương"}, Categories(ledger))
}

func TestCategorySuggestions(t *testing.T) {
	doc := domain.NewFinanceDocument()
	doc.EnsureMonthBudgets("2025-04").Set("Xe", domain.BudgetEntry{Limit: 1, Icon: "🚗"})
	doc.EnsureMonthBudgets("2025-04").Set("Học tập", domain.BudgetEntry{Limit: 1, Icon: "🎓"})

	assert.Equal(t, []string{"Xe", "Học tập"}, CategorySuggestions(doc, "2025-04", domain.TransactionTypeSpending))
	assert.Empty(t, CategorySuggestions(doc, "2025-05", domain.TransactionTypeSpending))

	income := CategorySuggestions(doc, "2025-04", domain.TransactionTypeIncome)
	require.Equal(t, DefaultIncomeCategories, income)
	income[0] = "changed"
	assert.Equal(t, "Lương", DefaultIncomeCategories[0])
}
