package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireRole(t *testing.T) {
	gate := Middleware{}.RequireRole(RoleAdmin, RoleManager)
	handler := gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(actor *Actor) int {
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		if actor != nil {
			req = req.WithContext(ContextWithActor(req.Context(), *actor))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(nil))
	assert.Equal(t, http.StatusNoContent, serve(&Actor{ID: 1, Role: RoleAdmin}))
	assert.Equal(t, http.StatusNoContent, serve(&Actor{ID: 2, Role: RoleManager}))
	assert.Equal(t, http.StatusForbidden, serve(&Actor{ID: 3, Role: RoleEmployee}))
	assert.Equal(t, http.StatusForbidden, serve(&Actor{ID: 4, Role: Role("Manager ")}))
}
