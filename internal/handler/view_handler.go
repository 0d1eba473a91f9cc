package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/savemymoney/savemymoney-backend/internal/aggregate"
	"github.com/savemymoney/savemymoney-backend/internal/domain"
	"github.com/savemymoney/savemymoney-backend/internal/service"
)

// ViewHandler serves the derived month views
type ViewHandler struct {
	sessionScope
	now func() time.Time
}

// NewViewHandler creates a new ViewHandler
func NewViewHandler(sessions *service.SessionRegistry) *ViewHandler {
	return &ViewHandler{
		sessionScope: sessionScope{sessions: sessions},
		now:          time.Now,
	}
}

// TransactionListResponse represents the filtered transactions of a month
type TransactionListResponse struct {
	Month        domain.MonthKey             `json:"month"`
	Transactions []aggregate.Entry           `json:"transactions"`
	Summary      aggregate.Summary           `json:"summary"`
	Markers      map[int]aggregate.DayMarker `json:"markers"`
	Categories   []string                    `json:"categories"`
}

// CategoriesResponse represents the category suggestions of a month
type CategoriesResponse struct {
	Month      domain.MonthKey        `json:"month"`
	Type       domain.TransactionType `json:"type"`
	Categories []string               `json:"categories"`
}

// GetTransactions handles GET /api/v1/months/:month/transactions?day=&category=&q=
func (h *ViewHandler) GetTransactions(c echo.Context) error {
	month, err := monthParam(c)
	if err != nil {
		return serviceError(c, err, "get transactions")
	}

	filter := aggregate.Filter{
		Category: c.QueryParam("category"),
		Search:   c.QueryParam("q"),
	}
	if day := c.QueryParam("day"); day != "" {
		d, err := strconv.Atoi(day)
		if err != nil || d < 1 || d > aggregate.DaysInMonth(month) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "day", Message: "Must be a day of the month"},
			})
		}
		filter.Day = d
	}

	sess, err := h.open(c)
	if err != nil {
		return serviceError(c, err, "load document")
	}

	ledger := sess.Document().Ledger(month)
	return c.JSON(http.StatusOK, TransactionListResponse{
		Month:        month,
		Transactions: aggregate.ListTransactions(ledger, filter),
		Summary:      aggregate.Summarize(ledger),
		Markers:      aggregate.DayMarkers(ledger),
		Categories:   aggregate.Categories(ledger),
	})
}

// GetOverview handles GET /api/v1/months/:month/overview?tz=
// tz is the caller's IANA zone; remaining days are counted on its calendar.
func (h *ViewHandler) GetOverview(c echo.Context) error {
	month, err := monthParam(c)
	if err != nil {
		return serviceError(c, err, "get overview")
	}
	now, ok := h.callerNow(c.QueryParam("tz"))
	if !ok {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "tz", Message: "Must be an IANA time zone name"},
		})
	}

	sess, err := h.open(c)
	if err != nil {
		return serviceError(c, err, "load document")
	}

	return c.JSON(http.StatusOK, aggregate.BuildMonthView(sess.Document(), month, aggregate.Filter{}, now))
}

// callerNow returns the current time in zone tz, or in the server's zone when tz is empty
func (h *ViewHandler) callerNow(tz string) (time.Time, bool) {
	if tz == "" {
		return h.now(), true
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, false
	}
	return h.now().In(loc), true
}

// GetCategories handles GET /api/v1/months/:month/categories?type=
func (h *ViewHandler) GetCategories(c echo.Context) error {
	month, err := monthParam(c)
	if err != nil {
		return serviceError(c, err, "get categories")
	}
	txType := domain.TransactionType(c.QueryParam("type"))
	if txType == "" {
		txType = domain.TransactionTypeSpending
	}
	if !txType.IsValid() {
		return serviceError(c, domain.ErrInvalidType, "get categories")
	}

	sess, err := h.open(c)
	if err != nil {
		return serviceError(c, err, "load document")
	}

	return c.JSON(http.StatusOK, CategoriesResponse{
		Month:      month,
		Type:       txType,
		Categories: aggregate.CategorySuggestions(sess.Document(), month, txType),
	})
}
