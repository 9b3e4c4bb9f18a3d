package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, ErrValidation},
		{http.StatusUnprocessableEntity, ErrValidation},
		{http.StatusConflict, ErrValidation},
		{http.StatusUnauthorized, ErrAuth},
		{http.StatusForbidden, ErrAuth},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusTooManyRequests, ErrNetwork},
		{http.StatusInternalServerError, ErrUnexpected},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := FromStatus(tt.status, "detail")
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.status, err.Status)
		})
	}
}

func TestErrorMatchesKindAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("listing expenses: %w", Network(cause))

	assert.True(t, IsNetwork(err))
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsAuth(err))

	var apiErr *Error
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "network error: connection refused", apiErr.Error())
}

func TestValidationMessage(t *testing.T) {
	err := Validation("amount", "must be greater than %d", 0)
	assert.Equal(t, "validation failed: amount: must be greater than 0", err.Error())
	assert.True(t, IsValidation(err))
}
