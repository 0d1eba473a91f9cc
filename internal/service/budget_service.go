package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/savemymoney/savemymoney-backend/internal/aggregate"
	"github.com/savemymoney/savemymoney-backend/internal/domain"
)

// BudgetService handles budget business logic
type BudgetService struct{}

// NewBudgetService creates a new BudgetService
func NewBudgetService() *BudgetService {
	return &BudgetService{}
}

// GetBudgets returns the spend-vs-budget view of a month
func (s *BudgetService) GetBudgets(sess DocumentSession, month domain.MonthKey) ([]aggregate.BudgetItem, error) {
	doc := sess.Document()
	if doc == nil {
		return nil, domain.ErrSessionClosed
	}
	return aggregate.BudgetUtilization(doc, month), nil
}

// AddBudget sets the budget of a category, replacing any existing entry
func (s *BudgetService) AddBudget(ctx context.Context, sess DocumentSession, month domain.MonthKey, category string, limit int64, icon string) (*domain.BudgetEntry, error) {
	category, entry, err := validateBudget(category, limit, icon)
	if err != nil {
		return nil, err
	}

	doc, err := editableDocument(sess)
	if err != nil {
		return nil, err
	}
	doc.EnsureMonthBudgets(month).Set(category, entry)

	if err := sess.Save(ctx, doc); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateBudget changes the limit and icon of an existing budget
func (s *BudgetService) UpdateBudget(ctx context.Context, sess DocumentSession, month domain.MonthKey, category string, limit int64, icon string) (*domain.BudgetEntry, error) {
	category, entry, err := validateBudget(category, limit, icon)
	if err != nil {
		return nil, err
	}

	doc, err := editableDocument(sess)
	if err != nil {
		return nil, err
	}
	budgets := doc.MonthBudgets(month)
	if _, ok := budgets.Get(category); !ok {
		return nil, domain.ErrBudgetNotFound
	}
	budgets.Set(category, entry)

	if err := sess.Save(ctx, doc); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteBudget removes a category's budget. Transactions of the category are kept.
func (s *BudgetService) DeleteBudget(ctx context.Context, sess DocumentSession, month domain.MonthKey, category string) error {
	doc, err := editableDocument(sess)
	if err != nil {
		return err
	}
	if !doc.MonthBudgets(month).Delete(category) {
		return domain.ErrBudgetNotFound
	}

	return sess.Save(ctx, doc)
}

// validateBudget checks a budget before anything is written. An empty icon means the default one.
func validateBudget(category string, limit int64, icon string) (string, domain.BudgetEntry, error) {
	category, err := validateCategory(category)
	if err != nil {
		return "", domain.BudgetEntry{}, err
	}
	if limit < 0 {
		return "", domain.BudgetEntry{}, domain.ErrInvalidAmount
	}
	if icon == "" {
		icon = domain.DefaultBudgetIcon
	}
	if err := domain.ValidateIcon(icon); err != nil {
		return "", domain.BudgetEntry{}, err
	}
	return category, domain.BudgetEntry{Limit: limit, Icon: icon}, nil
}

func validateCategory(category string) (string, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return "", domain.ErrCategoryRequired
	}
	if utf8.RuneCountInString(category) > domain.MaxCategoryLength {
		return "", domain.ErrCategoryTooLong
	}
	return category, nil
}
