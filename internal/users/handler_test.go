package users

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-auth/internal/rbac"
)

func newTestRouter(repo *memoryRepo) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, newTestService(repo), rbac.Middleware{Logger: logger})
	r := chi.NewRouter()
	r.Route("/api", handler.MountRoutes)
	return r
}

func do(t *testing.T, h http.Handler, actor *rbac.Actor, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if actor != nil {
		req = req.WithContext(rbac.ContextWithActor(req.Context(), *actor))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerRegisterHidesPasswordHash(t *testing.T) {
	h := newTestRouter(newMemoryRepo(population()...))

	rec := do(t, h, adminActor, http.MethodPost, "/api/register", `{"username":"newbie","password":"secret1","first_name":"New"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "newbie", body["username"])
	assert.Equal(t, "Employee", body["role"])
	assert.Equal(t, "New", body["first_name"])
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "password_hash")
	assert.NotContains(t, rec.Body.String(), "hashed:")
}

func TestHandlerCreateForbiddenForManager(t *testing.T) {
	h := newTestRouter(newMemoryRepo(population()...))

	rec := do(t, h, managerActor, http.MethodPost, "/api/users/create", `{"username":"x","password":"secret1"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandlerAuthorizesBeforeDecoding(t *testing.T) {
	h := newTestRouter(newMemoryRepo(population()...))

	rec := do(t, h, employeeActor, http.MethodPost, "/api/register", `{not json`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = do(t, h, managerActor, http.MethodPost, "/api/users/create", `{not json`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = do(t, h, employeeActor, http.MethodPatch, "/api/users/4", `{not json`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = do(t, h, nil, http.MethodPost, "/api/register", `{not json`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, employeeActor, http.MethodPatch, "/api/users/3", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerValidationErrors(t *testing.T) {
	h := newTestRouter(newMemoryRepo(population()...))

	rec := do(t, h, adminActor, http.MethodPost, "/api/users/create", `{"username":"x","password":"123"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"password"`)

	rec = do(t, h, adminActor, http.MethodPost, "/api/users/create", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerListGate(t *testing.T) {
	h := newTestRouter(newMemoryRepo(population()...))

	rec := do(t, h, employeeActor, http.MethodGet, "/api/users/", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, nil, http.MethodGet, "/api/users/", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, managerActor, http.MethodGet, "/api/users/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []principalView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 2)
	for _, p := range listed {
		assert.Equal(t, rbac.RoleEmployee, p.Role)
	}
}

func TestHandlerDetailRoutes(t *testing.T) {
	repo := newMemoryRepo(population()...)
	h := newTestRouter(repo)

	rec := do(t, h, employeeActor, http.MethodGet, "/api/users/3", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, employeeActor, http.MethodGet, "/api/users/4", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, adminActor, http.MethodGet, "/api/users/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, employeeActor, http.MethodPatch, "/api/users/3", `{"last_name":"Lovelace"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Lovelace", repo.get(3).LastName)

	rec = do(t, h, employeeActor, http.MethodPut, "/api/users/3", `{"role":"Admin"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, adminActor, http.MethodDelete, "/api/users/4", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, repo.get(4).IsActive)
}

func TestHandlerProfile(t *testing.T) {
	h := newTestRouter(newMemoryRepo(population()...))

	rec := do(t, h, employeeActor, http.MethodGet, "/api/profile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var p principalView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, int64(3), p.ID)
	assert.Equal(t, "emp1", p.Username)

	rec = do(t, h, nil, http.MethodGet, "/api/profile", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
