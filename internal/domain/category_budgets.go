package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CategoryBudgets maps category names to budget entries and keeps the order in which
// categories were first added (or appeared in the stored JSON object).
type CategoryBudgets struct {
	keys    []string
	entries map[string]BudgetEntry
}

// NewCategoryBudgets creates an empty CategoryBudgets
func NewCategoryBudgets() *CategoryBudgets {
	return &CategoryBudgets{entries: make(map[string]BudgetEntry)}
}

// Len returns the number of categories
func (c *CategoryBudgets) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Keys returns the category names in order
func (c *CategoryBudgets) Keys() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Get returns the entry of a category
func (c *CategoryBudgets) Get(category string) (BudgetEntry, bool) {
	if c == nil {
		return BudgetEntry{}, false
	}
	entry, ok := c.entries[category]
	return entry, ok
}

// Set stores an entry; an existing category keeps its position
func (c *CategoryBudgets) Set(category string, entry BudgetEntry) {
	if c.entries == nil {
		c.entries = make(map[string]BudgetEntry)
	}
	if _, ok := c.entries[category]; !ok {
		c.keys = append(c.keys, category)
	}
	c.entries[category] = entry
}

// Delete removes a category and reports whether it existed
func (c *CategoryBudgets) Delete(category string) bool {
	if c == nil {
		return false
	}
	if _, ok := c.entries[category]; !ok {
		return false
	}
	delete(c.entries, category)
	for i, k := range c.keys {
		if k == category {
			c.keys = append(c.keys[:i:i], c.keys[i+1:]...)
			break
		}
	}
	return true
}

// Clone returns a deep copy
func (c *CategoryBudgets) Clone() *CategoryBudgets {
	if c == nil {
		return nil
	}
	out := &CategoryBudgets{
		keys:    make([]string, len(c.keys)),
		entries: make(map[string]BudgetEntry, len(c.entries)),
	}
	copy(out.keys, c.keys)
	for k, v := range c.entries {
		out.entries[k] = v
	}
	return out
}

// MarshalJSON encodes the categories as a JSON object in insertion order
func (c CategoryBudgets) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range c.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(c.entries[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping its key order
func (c *CategoryBudgets) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("category budgets: expected object, got %v", tok)
	}

	c.keys = nil
	c.entries = make(map[string]BudgetEntry)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("category budgets: expected string key, got %v", tok)
		}
		var entry BudgetEntry
		if err := dec.Decode(&entry); err != nil {
			return fmt.Errorf("category budgets: %q: %w", key, err)
		}
		c.Set(key, entry)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
