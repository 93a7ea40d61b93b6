package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorMatchesSentinel(t *testing.T) {
	err := NewValidationError("username", "already exists")
	wrapped := fmt.Errorf("users: register: %w", err)

	assert.True(t, errors.Is(wrapped, ErrValidation))
	assert.False(t, errors.Is(wrapped, ErrForbidden))

	var target *ValidationError
	assert.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "already exists", target.Fields["username"])
}

func TestValidationErrorKeepsFirstMessage(t *testing.T) {
	var err ValidationError
	err.Add("password", "too short")
	err.Add("password", "required")
	err.Add("email", "invalid")

	assert.Equal(t, "too short", err.Fields["password"])
	assert.Equal(t, "validation failed: email: invalid; password: too short", err.Error())
}

func TestIsTokenError(t *testing.T) {
	assert.True(t, IsTokenError(ErrTokenExpired))
	assert.True(t, IsTokenError(fmt.Errorf("wrap: %w", ErrTokenRevoked)))
	assert.True(t, IsTokenError(ErrTokenMalformed))
	assert.False(t, IsTokenError(ErrMissingToken))
	assert.False(t, IsTokenError(ErrInvalidCredentials))
}
