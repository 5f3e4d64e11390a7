package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainErrorPassesThroughWrapped(t *testing.T) {
	conflict := NewConflict("You have already applied for this job", nil)
	wrapped := fmt.Errorf("submit: %w", conflict)

	de := ToDomainError(wrapped)
	require.NotNil(t, de)
	assert.Equal(t, CodeConflict, de.Code)
	assert.Equal(t, http.StatusConflict, de.HTTPStatus)
}

func TestToDomainErrorMapsUnknownToInternal(t *testing.T) {
	cause := errors.New("connection reset")
	de := ToDomainError(cause)

	assert.Equal(t, CodeInternal, de.Code)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.Equal(t, "internal server error", de.Message)
	assert.ErrorIs(t, de, cause)
}

func TestToDomainErrorNil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}

func TestNewFieldValidationError(t *testing.T) {
	err := NewFieldValidationError("Invalid input", map[string][]string{
		"phoneNumber": {"Invalid phone number for the selected region"},
	})

	de := ToDomainError(err)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	assert.Equal(t, []string{"Invalid phone number for the selected region"}, de.Details["phoneNumber"])
	assert.True(t, HasCode(err, CodeValidationFailed))
	assert.False(t, HasCode(err, CodeConflict))
}
