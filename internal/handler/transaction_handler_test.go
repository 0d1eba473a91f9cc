package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/savemymoney/savemymoney-backend/internal/domain"
	"github.com/savemymoney/savemymoney-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTransactionHandler(env *testEnv) *TransactionHandler {
	h := NewTransactionHandler(env.sessions, service.NewTransactionService())
	h.now = func() time.Time { return time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC) }
	return h
}

func TestCreateTransaction_Success(t *testing.T) {
	env := newTestEnv(t)
	env.store.Seed(testUserID, aprilDocument())
	h := newTransactionHandler(env)

	body := `{"type":"spending","amount":45000,"category":"Ăn uống","date":"2025-04-17","note":"Bún chả"}`
	c, rec := env.newContext(http.MethodPost, "/api/v1/transactions", body)
	require.NoError(t, h.CreateTransaction(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var response TransactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.NotEmpty(t, response.ID)
	assert.Equal(t, domain.MonthKey("2025-04"), response.Month)
	assert.Equal(t, domain.TransactionTypeSpending, response.Type)
	require.NotNil(t, response.Note)
	assert.Equal(t, "Bún chả", *response.Note)

	spending := env.storedDocument(t).Ledger("2025-04").Spending
	require.Len(t, spending, 3)
	assert.Equal(t, response.ID, spending[2].ID)
}

func TestCreateTransaction_DefaultsToToday(t *testing.T) {
	env := newTestEnv(t)
	h := newTransactionHandler(env)

	c, rec := env.newContext(http.MethodPost, "/api/v1/transactions", `{"type":"income","amount":0,"category":"Thưởng"}`)
	require.NoError(t, h.CreateTransaction(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	income := env.storedDocument(t).Ledger("2025-05").Income
	require.Len(t, income, 1)
	assert.Equal(t, "2025-05-02", income[0].Date)
	assert.Nil(t, income[0].Note)
}

func TestCreateTransaction_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing amount", `{"type":"spending","category":"Xe"}`, "amount"},
		{"negative amount", `{"type":"spending","amount":-1,"category":"Xe"}`, "amount"},
		{"missing category", `{"type":"spending","amount":1}`, "category"},
		{"bad type", `{"type":"transfer","amount":1,"category":"Xe"}`, "type"},
		{"bad date", `{"type":"spending","amount":1,"category":"Xe","date":"17/04/2025"}`, "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			h := newTransactionHandler(env)

			c, rec := env.newContext(http.MethodPost, "/api/v1/transactions", tt.body)
			require.NoError(t, h.CreateTransaction(c))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			problem := decodeProblem(t, rec)
			require.NotEmpty(t, problem.Errors)
			assert.Equal(t, tt.field, problem.Errors[0].Field)
			assert.Empty(t, env.store.Calls())
		})
	}
}

func TestCreateTransaction_InvalidJSON(t *testing.T) {
	env := newTestEnv(t)
	h := newTransactionHandler(env)

	c, rec := env.newContext(http.MethodPost, "/api/v1/transactions", `{"amount":"lots"}`)
	require.NoError(t, h.CreateTransaction(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteTransaction(t *testing.T) {
	env := newTestEnv(t)
	env.store.Seed(testUserID, aprilDocument())
	h := newTransactionHandler(env)

	c, rec := env.newContext(http.MethodDelete, "/api/v1/months/2025-04/transactions/spending/s2", "",
		"month", "2025-04", "type", "spending", "id", "s2")
	require.NoError(t, h.DeleteTransaction(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	ledger := env.storedDocument(t).Ledger("2025-04")
	require.Len(t, ledger.Spending, 1)
	assert.Equal(t, "s1", ledger.Spending[0].ID)
	assert.Len(t, ledger.Income, 1)
}

func TestDeleteTransaction_Errors(t *testing.T) {
	tests := []struct {
		name       string
		params     []string
		wantStatus int
	}{
		{"unknown id", []string{"month", "2025-04", "type", "spending", "id", "nope"}, http.StatusNotFound},
		{"wrong type", []string{"month", "2025-04", "type", "income", "id", "s1"}, http.StatusNotFound},
		{"invalid type", []string{"month", "2025-04", "type", "gift", "id", "s1"}, http.StatusBadRequest},
		{"invalid month", []string{"month", "April", "type", "spending", "id", "s1"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.store.Seed(testUserID, aprilDocument())
			h := newTransactionHandler(env)

			c, rec := env.newContext(http.MethodDelete, "/api/v1/months/x/transactions/y/z", "", tt.params...)
			require.NoError(t, h.DeleteTransaction(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Empty(t, env.store.Calls())
		})
	}
}
