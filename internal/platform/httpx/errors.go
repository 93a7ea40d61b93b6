// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/odyssey-erp/odyssey-auth/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Authentication failures never say which check failed.
func RespondError(w http.ResponseWriter, err error) {
	WriteProblem(w, problemFor(err))
}

// StatusFor reports the status RespondError would write for err.
func StatusFor(err error) int {
	return problemFor(err).Status
}

func problemFor(err error) ProblemDetail {
	var verr *shared.ValidationError
	switch {
	case errors.As(err, &verr):
		return ProblemDetail{Title: "Validation Failed", Status: http.StatusBadRequest, Errors: verr.Fields}
	case errors.Is(err, shared.ErrValidation):
		return ProblemDetail{Title: "Validation Failed", Status: http.StatusBadRequest, Detail: err.Error()}
	case errors.Is(err, shared.ErrMissingToken):
		return ProblemDetail{Title: "Bad Request", Status: http.StatusBadRequest, Detail: "token required"}
	case errors.Is(err, shared.ErrInvalidCredentials):
		return ProblemDetail{Title: "Unauthorized", Status: http.StatusUnauthorized, Detail: "invalid credentials"}
	case shared.IsTokenError(err):
		return ProblemDetail{Title: "Unauthorized", Status: http.StatusUnauthorized, Detail: "token invalid or expired"}
	case errors.Is(err, shared.ErrUnauthenticated):
		return ProblemDetail{Title: "Unauthorized", Status: http.StatusUnauthorized, Detail: "authentication required"}
	case errors.Is(err, shared.ErrForbidden):
		return ProblemDetail{Title: "Forbidden", Status: http.StatusForbidden}
	case errors.Is(err, shared.ErrNotFound):
		return ProblemDetail{Title: "Not Found", Status: http.StatusNotFound}
	case errors.Is(err, shared.ErrDuplicate):
		return ProblemDetail{Title: "Duplicate", Status: http.StatusConflict}
	default:
		return ProblemDetail{Title: "Internal Error", Status: http.StatusInternalServerError}
	}
}
