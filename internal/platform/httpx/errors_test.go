package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-auth/internal/shared"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{shared.ErrInvalidCredentials, http.StatusUnauthorized},
		{shared.ErrUnauthenticated, http.StatusUnauthorized},
		{fmt.Errorf("refresh: %w", shared.ErrTokenRevoked), http.StatusUnauthorized},
		{shared.ErrTokenExpired, http.StatusUnauthorized},
		{shared.ErrTokenMalformed, http.StatusUnauthorized},
		{shared.ErrForbidden, http.StatusForbidden},
		{shared.ErrNotFound, http.StatusNotFound},
		{shared.ErrMissingToken, http.StatusBadRequest},
		{shared.ErrValidation, http.StatusBadRequest},
		{shared.ErrDuplicate, http.StatusConflict},
		{errors.New("connection reset by peer"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("pq: password authentication failed for user odyssey"))

	var body ProblemDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Empty(t, body.Detail)
	assert.Equal(t, http.StatusInternalServerError, body.Status)
}

func TestRespondErrorValidationFields(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, shared.NewValidationError("password", "must be at least 6 characters"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body ProblemDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "must be at least 6 characters", body.Errors["password"])
}
