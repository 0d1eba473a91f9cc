package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/savemymoney/savemymoney-backend/internal/aggregate"
	"github.com/savemymoney/savemymoney-backend/internal/service"
)

// BudgetHandler handles budget HTTP requests
type BudgetHandler struct {
	sessionScope
	budgetService *service.BudgetService
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(sessions *service.SessionRegistry, budgetService *service.BudgetService) *BudgetHandler {
	return &BudgetHandler{
		sessionScope:  sessionScope{sessions: sessions},
		budgetService: budgetService,
	}
}

// CreateBudgetRequest represents the create budget request body
type CreateBudgetRequest struct {
	Category string `json:"category" validate:"required,max=100"`
	Limit    *int64 `json:"limit" validate:"required,min=0"`
	Icon     string `json:"icon" validate:"emoji"`
}

// UpdateBudgetRequest represents the update budget request body
type UpdateBudgetRequest struct {
	Limit *int64 `json:"limit" validate:"required,min=0"`
	Icon  string `json:"icon" validate:"emoji"`
}

// BudgetResponse represents a budget entry in API responses
type BudgetResponse struct {
	Month    string `json:"month"`
	Category string `json:"category"`
	Limit    int64  `json:"limit"`
	Icon     string `json:"icon"`
}

// BudgetListResponse represents the budgets of a month with their spending
type BudgetListResponse struct {
	Month   string                 `json:"month"`
	Budgets []aggregate.BudgetItem `json:"budgets"`
}

// GetBudgets handles GET /api/v1/months/:month/budgets
func (h *BudgetHandler) GetBudgets(c echo.Context) error {
	month, err := monthParam(c)
	if err != nil {
		return serviceError(c, err, "get budgets")
	}
	sess, err := h.open(c)
	if err != nil {
		return serviceError(c, err, "load document")
	}

	items, err := h.budgetService.GetBudgets(sess, month)
	if err != nil {
		return serviceError(c, err, "get budgets")
	}

	return c.JSON(http.StatusOK, BudgetListResponse{Month: string(month), Budgets: items})
}

// CreateBudget handles POST /api/v1/months/:month/budgets
func (h *BudgetHandler) CreateBudget(c echo.Context) error {
	month, err := monthParam(c)
	if err != nil {
		return serviceError(c, err, "create budget")
	}

	var req CreateBudgetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, "Validation failed", toValidationErrors(err))
	}

	sess, err := h.open(c)
	if err != nil {
		return serviceError(c, err, "load document")
	}

	entry, err := h.budgetService.AddBudget(c.Request().Context(), sess, month, req.Category, *req.Limit, req.Icon)
	if err != nil {
		return serviceError(c, err, "create budget")
	}

	log.Info().Str("user_id", sess.UserID()).Str("month", string(month)).Str("category", req.Category).Msg("Budget saved")
	return c.JSON(http.StatusCreated, BudgetResponse{
		Month:    string(month),
		Category: req.Category,
		Limit:    entry.Limit,
		Icon:     entry.Icon,
	})
}

// UpdateBudget handles PUT /api/v1/months/:month/budgets/:category
func (h *BudgetHandler) UpdateBudget(c echo.Context) error {
	month, err := monthParam(c)
	if err != nil {
		return serviceError(c, err, "update budget")
	}
	category := pathParam(c, "category")

	var req UpdateBudgetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, "Validation failed", toValidationErrors(err))
	}

	sess, err := h.open(c)
	if err != nil {
		return serviceError(c, err, "load document")
	}

	entry, err := h.budgetService.UpdateBudget(c.Request().Context(), sess, month, category, *req.Limit, req.Icon)
	if err != nil {
		return serviceError(c, err, "update budget")
	}

	log.Info().Str("user_id", sess.UserID()).Str("month", string(month)).Str("category", category).Msg("Budget updated")
	return c.JSON(http.StatusOK, BudgetResponse{
		Month:    string(month),
		Category: category,
		Limit:    entry.Limit,
		Icon:     entry.Icon,
	})
}

// DeleteBudget handles DELETE /api/v1/months/:month/budgets/:category
func (h *BudgetHandler) DeleteBudget(c echo.Context) error {
	month, err := monthParam(c)
	if err != nil {
		return serviceError(c, err, "delete budget")
	}
	category := pathParam(c, "category")

	sess, err := h.open(c)
	if err != nil {
		return serviceError(c, err, "load document")
	}

	if err := h.budgetService.DeleteBudget(c.Request().Context(), sess, month, category); err != nil {
		return serviceError(c, err, "delete budget")
	}

	log.Info().Str("user_id", sess.UserID()).Str("month", string(month)).Str("category", category).Msg("Budget deleted")
	return c.NoContent(http.StatusNoContent)
}
