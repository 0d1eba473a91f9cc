package aggregate

import (
	"sort"
	"strings"

	"github.com/savemymoney/savemymoney-backend/internal/domain"
)

// Summary holds the month totals of a ledger
type Summary struct {
	TotalIncome   int64 `json:"totalIncome"`
	TotalSpending int64 `json:"totalSpending"`
	Net           int64 `json:"net"`
}

// Summarize totals income and spending; Net may be negative
func Summarize(ledger domain.MonthLedger) Summary {
	var s Summary
	for _, t := range ledger.Income {
		s.TotalIncome += t.Amount
	}
	for _, t := range ledger.Spending {
		s.TotalSpending += t.Amount
	}
	s.Net = s.TotalIncome - s.TotalSpending
	return s
}

// Filter selects ledger entries. Zero values are inactive.
type Filter struct {
	Day      int
	Category string
	Search   string
}

// Entry is a transaction record tagged with its type
type Entry struct {
	domain.TransactionRecord
	Type domain.TransactionType `json:"type"`
}

// Matches reports whether a record passes every active filter.
// The search term matches the note only, so a record without a note never matches a search.
func (f Filter) Matches(t domain.TransactionRecord) bool {
	if f.Day != 0 {
		date, err := domain.ParseISODate(t.Date)
		if err != nil || date.Day() != f.Day {
			return false
		}
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Search != "" {
		if t.Note == nil {
			return false
		}
		if !strings.Contains(strings.ToLower(*t.Note), strings.ToLower(f.Search)) {
			return false
		}
	}
	return true
}

// ListTransactions merges spending and income, newest date first, keeping only entries
// that pass the filter
func ListTransactions(ledger domain.MonthLedger, filter Filter) []Entry {
	entries := make([]Entry, 0, len(ledger.Spending)+len(ledger.Income))
	for _, t := range ledger.Spending {
		if filter.Matches(t) {
			entries = append(entries, Entry{TransactionRecord: t, Type: domain.TransactionTypeSpending})
		}
	}
	for _, t := range ledger.Income {
		if filter.Matches(t) {
			entries = append(entries, Entry{TransactionRecord: t, Type: domain.TransactionTypeIncome})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date > entries[j].Date
	})
	return entries
}

// Categories returns the distinct non-empty categories of a ledger in first-seen order
func Categories(ledger domain.MonthLedger) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, records := range [][]domain.TransactionRecord{ledger.Spending, ledger.Income} {
		for _, t := range records {
			if t.Category == "" || seen[t.Category] {
				continue
			}
			seen[t.Category] = true
			out = append(out, t.Category)
		}
	}
	return out
}
