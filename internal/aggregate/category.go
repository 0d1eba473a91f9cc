package aggregate

import (
	"strings"

	"github.com/savemymoney/savemymoney-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// CategoryTotal is the summed amount of one category group
type CategoryTotal struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// Slice is a category total with its share of the breakdown
type Slice struct {
	Name    string `json:"name"`
	Value   int64  `json:"value"`
	Percent string `json:"percent"`
}

var hundred = decimal.NewFromInt(100)

// GroupByCategory sums records per category, matching categories after trimming and
// lowercasing. The first occurrence of a group fixes its displayed name, groups keep
// first-seen order, and records without a category are skipped.
func GroupByCategory(records []domain.TransactionRecord) []CategoryTotal {
	groups := make([]CategoryTotal, 0)
	index := make(map[string]int)

	for _, r := range records {
		if r.Category == "" {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(r.Category))
		if i, ok := index[key]; ok {
			groups[i].Value += r.Amount
			continue
		}
		index[key] = len(groups)
		groups = append(groups, CategoryTotal{Name: r.Category, Value: r.Amount})
	}
	return groups
}

// Breakdown labels every group with its percentage of the total, to one decimal place.
// When the total is zero every label is "0.0".
func Breakdown(groups []CategoryTotal) []Slice {
	var total int64
	for _, g := range groups {
		total += g.Value
	}

	slices := make([]Slice, len(groups))
	for i, g := range groups {
		slices[i] = Slice{Name: g.Name, Value: g.Value, Percent: Percent(g.Value, total)}
	}
	return slices
}

// Percent renders value/total as a percentage with one decimal place
func Percent(value, total int64) string {
	if total == 0 {
		return decimal.Zero.StringFixed(1)
	}
	return decimal.NewFromInt(value).
		Mul(hundred).
		Div(decimal.NewFromInt(total)).
		StringFixed(1)
}
