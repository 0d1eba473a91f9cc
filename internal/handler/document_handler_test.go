package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/savemymoney/savemymoney-backend/internal/domain"
	"github.com/savemymoney/savemymoney-backend/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingDisconnector records disconnected users
type recordingDisconnector struct {
	users []string
}

func (r *recordingDisconnector) Disconnect(userID string) {
	r.users = append(r.users, userID)
}

func TestGetDocument_InitializesMissingDocument(t *testing.T) {
	env := newTestEnv(t)
	h := NewDocumentHandler(env.sessions, nil)

	c, rec := env.newContext(http.MethodGet, "/api/v1/document", "")
	require.NoError(t, h.GetDocument(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"budgets":{},"transactions":{}}`, rec.Body.String())

	calls := env.store.Calls()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].Merge)
}

func TestGetDocument_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)
	h := NewDocumentHandler(env.sessions, nil)

	c, rec := env.newContext(http.MethodGet, "/api/v1/document", "")
	setupAuthContext(c, "")
	require.NoError(t, h.GetDocument(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, env.sessions.Count())
}

func TestGetDocument_StoreUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.store.SubscribeErr = errors.New("connection refused")
	h := NewDocumentHandler(env.sessions, nil)

	c, rec := env.newContext(http.MethodGet, "/api/v1/document", "")
	require.NoError(t, h.GetDocument(c))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, ErrorTypeUnavailable, decodeProblem(t, rec).Type)
}

func TestReplaceDocument(t *testing.T) {
	env := newTestEnv(t)
	env.store.Seed(testUserID, aprilDocument())
	h := NewDocumentHandler(env.sessions, nil)

	body := `{"budgets":{"2025-05":{"Nhà":{"limit":1,"icon":"🏠"}}},"transactions":{}}`
	c, rec := env.newContext(http.MethodPut, "/api/v1/document", body)
	require.NoError(t, h.ReplaceDocument(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	stored := env.storedDocument(t)
	assert.Nil(t, stored.MonthBudgets("2025-04"))
	assert.Equal(t, []string{"Nhà"}, stored.MonthBudgets("2025-05").Keys())
}

func TestReplaceDocument_RejectsMalformedBody(t *testing.T) {
	env := newTestEnv(t)
	env.store.Seed(testUserID, aprilDocument())
	h := NewDocumentHandler(env.sessions, nil)

	c, rec := env.newContext(http.MethodPut, "/api/v1/document", `{"budgets":{}}`)
	require.NoError(t, h.ReplaceDocument(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, env.store.Calls())
	assert.Equal(t, aprilDocument(), env.storedDocument(t))
}

func TestMergeDocument_KeepsOtherMonths(t *testing.T) {
	env := newTestEnv(t)
	env.store.Seed(testUserID, aprilDocument())
	h := NewDocumentHandler(env.sessions, nil)

	body := `{"budgets":{"2025-05":{"Nhà":{"limit":1,"icon":"🏠"}}}}`
	c, rec := env.newContext(http.MethodPatch, "/api/v1/document", body)
	require.NoError(t, h.MergeDocument(c))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	stored := env.storedDocument(t)
	assert.Equal(t, 2, stored.MonthBudgets("2025-04").Len())
	assert.Equal(t, 1, stored.MonthBudgets("2025-05").Len())

	calls := env.store.Calls()
	require.NotEmpty(t, calls)
	assert.True(t, calls[len(calls)-1].Merge)
}

func TestLogout_DetachesSessionAndDisconnects(t *testing.T) {
	env := newTestEnv(t)
	clients := &recordingDisconnector{}
	h := NewDocumentHandler(env.sessions, clients)

	c, _ := env.newContext(http.MethodGet, "/api/v1/document", "")
	require.NoError(t, h.GetDocument(c))
	sess, ok := env.sessions.Get(testUserID)
	require.True(t, ok)

	c, rec := env.newContext(http.MethodPost, "/api/v1/session/logout", "")
	require.NoError(t, h.Logout(c))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, sess.Detached())
	assert.Nil(t, sess.Document())
	assert.Equal(t, 0, env.sessions.Count())
	assert.Equal(t, []string{testUserID}, clients.users)
}

func TestLogout_ClosesHubConnections(t *testing.T) {
	env := newTestEnv(t)
	hub := websocket.NewHub()
	h := NewDocumentHandler(env.sessions, hub)

	c, rec := env.newContext(http.MethodPost, "/api/v1/session/logout", "")
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, hub.ClientCount(testUserID))
}

func TestGetDocument_ResetDocumentEncodesEmpty(t *testing.T) {
	env := newTestEnv(t)
	env.store.Seed(testUserID, &domain.FinanceDocument{})
	h := NewDocumentHandler(env.sessions, nil)

	c, rec := env.newContext(http.MethodGet, "/api/v1/document", "")
	require.NoError(t, h.GetDocument(c))

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Empty(t, raw)
	assert.Empty(t, env.store.Calls(), "an empty document is not re-initialized")
}
