package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError_PassesThroughWrapped(t *testing.T) {
	base := NewUnauthorized("invalid credentials")
	wrapped := fmt.Errorf("login: %w", base)

	de := ToDomainError(wrapped)
	require.NotNil(t, de)
	assert.Equal(t, "UNAUTHORIZED", de.Code)
	assert.Equal(t, http.StatusUnauthorized, de.HTTPStatus)
}

func TestToDomainError_UnknownBecomesInternal(t *testing.T) {
	cause := errors.New("boom")
	de := ToDomainError(cause)
	require.NotNil(t, de)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.Equal(t, "internal server error", de.Message)
	assert.ErrorIs(t, de, cause)
}

func TestToDomainError_Nil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}

func TestNewTooManyRequests_Details(t *testing.T) {
	de := ToDomainError(NewTooManyRequests("locked", 90))
	assert.Equal(t, http.StatusTooManyRequests, de.HTTPStatus)
	assert.Equal(t, 90, de.Details["retryAfterSeconds"])
}
