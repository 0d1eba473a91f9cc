package domain

// TransactionType selects one of the two sequences of a MonthLedger
type TransactionType string

const (
	TransactionTypeSpending TransactionType = "spending"
	TransactionTypeIncome   TransactionType = "income"
)

// IsValid reports whether t is a known transaction type
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeSpending || t == TransactionTypeIncome
}

// DefaultBudgetIcon is displayed for budget entries stored without an icon
const DefaultBudgetIcon = "💰"

// FinanceDocument is the single root state object of a user.
// A document whose maps are both nil is the reset document and encodes as {}.
type FinanceDocument struct {
	Budgets      map[MonthKey]*CategoryBudgets `json:"budgets,omitzero"`
	Transactions map[MonthKey]*MonthLedger     `json:"transactions,omitzero"`
}

// BudgetEntry is the spending limit and icon of one category in one month
type BudgetEntry struct {
	Limit int64  `json:"limit"`
	Icon  string `json:"icon"`
}

// MonthLedger holds the transactions of one month
type MonthLedger struct {
	Spending []TransactionRecord `json:"spending"`
	Income   []TransactionRecord `json:"income"`
}

// TransactionRecord is a single spending or income entry
type TransactionRecord struct {
	ID       string  `json:"id"`
	Amount   int64   `json:"amount"`
	Category string  `json:"category"`
	Date     string  `json:"date"`
	Note     *string `json:"note,omitempty"`
}

// NewFinanceDocument returns the default document written for users without one
func NewFinanceDocument() *FinanceDocument {
	return &FinanceDocument{
		Budgets:      make(map[MonthKey]*CategoryBudgets),
		Transactions: make(map[MonthKey]*MonthLedger),
	}
}

// Ledger returns the ledger of a month, or an empty ledger when the month was never touched.
// The returned value must be treated as read-only.
func (d *FinanceDocument) Ledger(month MonthKey) MonthLedger {
	if d == nil || d.Transactions == nil {
		return MonthLedger{}
	}
	if ledger, ok := d.Transactions[month]; ok && ledger != nil {
		return *ledger
	}
	return MonthLedger{}
}

// MonthBudgets returns the budgets of a month or nil
func (d *FinanceDocument) MonthBudgets(month MonthKey) *CategoryBudgets {
	if d == nil || d.Budgets == nil {
		return nil
	}
	return d.Budgets[month]
}

// EnsureMonth creates the ledger of a month with both sequences present
func (d *FinanceDocument) EnsureMonth(month MonthKey) *MonthLedger {
	if d.Transactions == nil {
		d.Transactions = make(map[MonthKey]*MonthLedger)
	}
	ledger, ok := d.Transactions[month]
	if !ok || ledger == nil {
		ledger = &MonthLedger{}
		d.Transactions[month] = ledger
	}
	if ledger.Spending == nil {
		ledger.Spending = []TransactionRecord{}
	}
	if ledger.Income == nil {
		ledger.Income = []TransactionRecord{}
	}
	return ledger
}

// EnsureMonthBudgets creates the budget map of a month
func (d *FinanceDocument) EnsureMonthBudgets(month MonthKey) *CategoryBudgets {
	if d.Budgets == nil {
		d.Budgets = make(map[MonthKey]*CategoryBudgets)
	}
	budgets, ok := d.Budgets[month]
	if !ok || budgets == nil {
		budgets = NewCategoryBudgets()
		d.Budgets[month] = budgets
	}
	return budgets
}

// Records returns the sequence of the given type
func (l *MonthLedger) Records(t TransactionType) []TransactionRecord {
	if t == TransactionTypeIncome {
		return l.Income
	}
	return l.Spending
}

// Append adds a record to the sequence of the given type
func (l *MonthLedger) Append(t TransactionType, record TransactionRecord) {
	if t == TransactionTypeIncome {
		l.Income = append(l.Income, record)
		return
	}
	l.Spending = append(l.Spending, record)
}

// Remove deletes the record with the given id and reports whether it existed
func (l *MonthLedger) Remove(t TransactionType, id string) bool {
	records := l.Records(t)
	for i, r := range records {
		if r.ID != id {
			continue
		}
		kept := make([]TransactionRecord, 0, len(records)-1)
		kept = append(kept, records[:i]...)
		kept = append(kept, records[i+1:]...)
		if t == TransactionTypeIncome {
			l.Income = kept
		} else {
			l.Spending = kept
		}
		return true
	}
	return false
}

// Clone returns a deep copy of the document
func (d *FinanceDocument) Clone() *FinanceDocument {
	if d == nil {
		return nil
	}
	out := &FinanceDocument{}
	if d.Budgets != nil {
		out.Budgets = make(map[MonthKey]*CategoryBudgets, len(d.Budgets))
		for month, budgets := range d.Budgets {
			out.Budgets[month] = budgets.Clone()
		}
	}
	if d.Transactions != nil {
		out.Transactions = make(map[MonthKey]*MonthLedger, len(d.Transactions))
		for month, ledger := range d.Transactions {
			out.Transactions[month] = ledger.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the ledger
func (l *MonthLedger) Clone() *MonthLedger {
	if l == nil {
		return nil
	}
	return &MonthLedger{
		Spending: cloneRecords(l.Spending),
		Income:   cloneRecords(l.Income),
	}
}

func cloneRecords(records []TransactionRecord) []TransactionRecord {
	if records == nil {
		return nil
	}
	out := make([]TransactionRecord, len(records))
	for i, r := range records {
		out[i] = r
		if r.Note != nil {
			note := *r.Note
			out[i].Note = &note
		}
	}
	return out
}

// MergeDocuments applies a merge write of patch onto base and returns the result.
// Month and category levels are merged; budget entries and month ledgers are replaced whole.
func MergeDocuments(base, patch *FinanceDocument) *FinanceDocument {
	out := base.Clone()
	if out == nil {
		out = &FinanceDocument{}
	}
	if patch == nil {
		return out
	}
	for month, budgets := range patch.Budgets {
		if budgets == nil {
			continue
		}
		target := out.EnsureMonthBudgets(month)
		for _, category := range budgets.Keys() {
			entry, _ := budgets.Get(category)
			target.Set(category, entry)
		}
	}
	if patch.Budgets != nil && out.Budgets == nil {
		out.Budgets = make(map[MonthKey]*CategoryBudgets)
	}
	for month, ledger := range patch.Transactions {
		if out.Transactions == nil {
			out.Transactions = make(map[MonthKey]*MonthLedger)
		}
		out.Transactions[month] = ledger.Clone()
	}
	if patch.Transactions != nil && out.Transactions == nil {
		out.Transactions = make(map[MonthKey]*MonthLedger)
	}
	return out
}
