package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronicle-app/chronicle/internal/api/handler"
	"github.com/chronicle-app/chronicle/internal/auth"
	"github.com/chronicle-app/chronicle/internal/settings"
)

type settingsFixture struct {
	router  chi.Router
	repo    *memorySettings
	user    *auth.User
	session *auth.Session
	stored  *settings.Settings
}

func newSettingsFixture(t *testing.T) *settingsFixture {
	t.Helper()
	repo := newMemorySettings()
	h := handler.NewSettingsHandler(repo)

	router := chi.NewRouter()
	router.Get("/api/settings", h.Get)
	router.Post("/api/settings/payment-methods", h.AddPaymentMethod)
	router.Delete("/api/settings/payment-methods/{name}", h.RemovePaymentMethod)
	router.Post("/api/settings/groups", h.AddExpenseGroup)
	router.Put("/api/settings/groups/{id}", h.UpdateExpenseGroup)
	router.Delete("/api/settings/groups/{id}", h.RemoveExpenseGroup)

	user := &auth.User{ID: uuid.New(), Email: "ada@example.com", Name: "Ada", Kind: auth.KindNative}
	stored := settings.DefaultSettings(user.ID)
	require.NoError(t, repo.Create(context.Background(), stored))

	return &settingsFixture{
		router:  router,
		repo:    repo,
		user:    user,
		session: &auth.Session{ID: "session-1"},
		stored:  stored,
	}
}

func (f *settingsFixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := withScope(t, httptest.NewRequest(method, target, strings.NewReader(body)), f.user, f.session, f.stored, &f.stored.Profiles[0])
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestGetSettings(t *testing.T) {
	// Arrange
	f := newSettingsFixture(t)

	// Act
	w := f.do(t, http.MethodGet, "/api/settings", "")

	// Assert: empty collections serialize as arrays, not null
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w.Body.Bytes())
	data := env["data"].(map[string]interface{})
	assert.Equal(t, "finance", data["module"])
	assert.Len(t, data["profile"].([]interface{}), 1)
	assert.NotNil(t, data["groups"])
	assert.NotNil(t, data["pms"])
}

func TestGetSettings_ReflectsMutations(t *testing.T) {
	// Arrange: mutate through the repository after the scope was resolved
	f := newSettingsFixture(t)
	require.NoError(t, f.repo.AddPaymentMethod(context.Background(), f.user.ID, "UPI"))

	// Act
	w := f.do(t, http.MethodGet, "/api/settings", "")

	// Assert: the read goes to the store, not the stale scope snapshot
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w.Body.Bytes())
	data := env["data"].(map[string]interface{})
	pms := data["pms"].([]interface{})
	require.Len(t, pms, 1)
	assert.Equal(t, "UPI", pms[0])
}

func TestAddPaymentMethod(t *testing.T) {
	// Arrange
	f := newSettingsFixture(t)

	// Act
	w := f.do(t, http.MethodPost, "/api/settings/payment-methods", `{"name":"UPI"}`)

	// Assert
	require.Equal(t, http.StatusNoContent, w.Code)
	s, err := f.repo.FindByUserID(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"UPI"}, s.PaymentMethods)
}

func TestAddPaymentMethod_BlankName(t *testing.T) {
	f := newSettingsFixture(t)

	w := f.do(t, http.MethodPost, "/api/settings/payment-methods", `{"name":"  "}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w.Body.Bytes())
	errObj := env["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
}

func TestRemovePaymentMethod(t *testing.T) {
	// Arrange
	f := newSettingsFixture(t)
	require.NoError(t, f.repo.AddPaymentMethod(context.Background(), f.user.ID, "UPI"))
	require.NoError(t, f.repo.AddPaymentMethod(context.Background(), f.user.ID, "Card"))

	// Act
	w := f.do(t, http.MethodDelete, "/api/settings/payment-methods/UPI", "")

	// Assert
	require.Equal(t, http.StatusNoContent, w.Code)
	s, err := f.repo.FindByUserID(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Card"}, s.PaymentMethods)
}

func TestAddExpenseGroup(t *testing.T) {
	// Arrange
	f := newSettingsFixture(t)

	// Act
	w := f.do(t, http.MethodPost, "/api/settings/groups", `{"name":"Groceries","words":[" milk ","","bread"]}`)

	// Assert: blank words dropped, the rest trimmed, id assigned
	require.Equal(t, http.StatusCreated, w.Code)
	env := decodeEnvelope(t, w.Body.Bytes())
	data := env["data"].(map[string]interface{})
	assert.Equal(t, "Groceries", data["name"])
	assert.Equal(t, 1.0, data["id"])
	words := data["words"].([]interface{})
	assert.Equal(t, []interface{}{"milk", "bread"}, words)

	s, err := f.repo.FindByUserID(context.Background(), f.user.ID)
	require.NoError(t, err)
	require.Len(t, s.Groups, 1)
	assert.Equal(t, 1, s.Groups[0].ID)
}

func TestUpdateExpenseGroup(t *testing.T) {
	// Arrange
	f := newSettingsFixture(t)
	id, err := f.repo.AddExpenseGroup(context.Background(), f.user.ID, "Groceries", []string{"milk"})
	require.NoError(t, err)

	// Act
	w := f.do(t, http.MethodPut, "/api/settings/groups/1", `{"name":"Food","words":["milk","bread"]}`)

	// Assert
	require.Equal(t, http.StatusNoContent, w.Code)
	s, err := f.repo.FindByUserID(context.Background(), f.user.ID)
	require.NoError(t, err)
	require.Len(t, s.Groups, 1)
	assert.Equal(t, id, s.Groups[0].ID)
	assert.Equal(t, "Food", s.Groups[0].Name)
	assert.Equal(t, []string{"milk", "bread"}, s.Groups[0].Words)
}

func TestUpdateExpenseGroup_UnknownID(t *testing.T) {
	f := newSettingsFixture(t)

	w := f.do(t, http.MethodPut, "/api/settings/groups/99", `{"name":"Food","words":[]}`)

	require.Equal(t, http.StatusNotFound, w.Code)
	env := decodeEnvelope(t, w.Body.Bytes())
	errObj := env["error"].(map[string]interface{})
	assert.Equal(t, "NOT_FOUND", errObj["code"])
}

func TestUpdateExpenseGroup_InvalidID(t *testing.T) {
	f := newSettingsFixture(t)

	w := f.do(t, http.MethodPut, "/api/settings/groups/abc", `{"name":"Food","words":[]}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w.Body.Bytes())
	errObj := env["error"].(map[string]interface{})
	assert.Equal(t, "INVALID_ID", errObj["code"])
}

func TestRemoveExpenseGroup(t *testing.T) {
	// Arrange
	f := newSettingsFixture(t)
	_, err := f.repo.AddExpenseGroup(context.Background(), f.user.ID, "Groceries", nil)
	require.NoError(t, err)

	// Act
	w := f.do(t, http.MethodDelete, "/api/settings/groups/1", "")

	// Assert
	require.Equal(t, http.StatusNoContent, w.Code)
	s, err := f.repo.FindByUserID(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, s.Groups)
}

func TestRemoveExpenseGroup_UnknownID(t *testing.T) {
	f := newSettingsFixture(t)

	w := f.do(t, http.MethodDelete, "/api/settings/groups/99", "")

	require.Equal(t, http.StatusNotFound, w.Code)
}
