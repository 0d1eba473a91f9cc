package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/labstack/echo/v4"
	"github.com/savemymoney/savemymoney-backend/internal/domain"
	"github.com/savemymoney/savemymoney-backend/internal/middleware"
	"github.com/savemymoney/savemymoney-backend/internal/service"
	"github.com/savemymoney/savemymoney-backend/internal/testutil"
)

const testUserID = "auth0|alice"

// testEnv wires handlers to an in-memory ledger store
type testEnv struct {
	e        *echo.Echo
	store    *testutil.MockLedgerStore
	sessions *service.SessionRegistry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := testutil.NewMockLedgerStore()
	sessions := service.NewSessionRegistry(
		service.NewSubscriptionManager(store),
		service.NewMutationBridge(store),
		service.SessionOptions{PushOnSave: true},
	)
	t.Cleanup(sessions.Close)

	e := echo.New()
	e.Validator = NewRequestValidator()
	return &testEnv{e: e, store: store, sessions: sessions}
}

// Helper to set up auth context
func setupAuthContext(c echo.Context, userID string) {
	claims := &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Subject: userID,
		},
		CustomClaims: &middleware.CustomClaims{Email: "alice@example.com"},
	}
	ctx := context.WithValue(c.Request().Context(), middleware.ClaimsKey, claims)
	ctx = context.WithValue(ctx, middleware.UserIDKey, userID)
	c.SetRequest(c.Request().WithContext(ctx))
}

// newContext builds an authenticated request context. params are name/value pairs.
func (env *testEnv) newContext(method, path, body string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)

	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)

	setupAuthContext(c, testUserID)
	return c, rec
}

// storedDocument reads the user's document straight from the store
func (env *testEnv) storedDocument(t *testing.T) *domain.FinanceDocument {
	t.Helper()
	doc, err := env.store.GetDocument(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("Failed to read stored document: %v", err)
	}
	return doc
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal problem details: %v (body %q)", err, rec.Body.String())
	}
	return problem
}

// aprilDocument has the budgets and transactions of April 2025
func aprilDocument() *domain.FinanceDocument {
	doc := domain.NewFinanceDocument()
	budgets := doc.EnsureMonthBudgets("2025-04")
	budgets.Set("Ăn uống", domain.BudgetEntry{Limit: 2_000_000, Icon: "🍔"})
	budgets.Set("Xe", domain.BudgetEntry{Limit: 500_000, Icon: "🚗"})

	note := "Phở bò"
	ledger := doc.EnsureMonth("2025-04")
	ledger.Append(domain.TransactionTypeSpending, domain.TransactionRecord{ID: "s1", Amount: 800_000, Category: "Ăn uống", Date: "2025-04-03", Note: &note})
	ledger.Append(domain.TransactionTypeSpending, domain.TransactionRecord{ID: "s2", Amount: 100_000, Category: "Xe", Date: "2025-04-10"})
	ledger.Append(domain.TransactionTypeIncome, domain.TransactionRecord{ID: "i1", Amount: 9_000_000, Category: "Lương", Date: "2025-04-01"})
	return doc
}
