package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldValidationErrorRoundTrip(t *testing.T) {
	err := NewFieldValidationError(FieldErrors{"subject": "Subject is required", "email": "Email is required"})
	wrapped := fmt.Errorf("submit: %w", err)

	assert.True(t, HasCode(wrapped, CodeValidation))
	fields, ok := FieldErrorsOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, []string{"email", "subject"}, fields.Fields())
	assert.Equal(t, "email: Email is required; subject: Subject is required", fields.Error())
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	de := ToDomainError(errors.New("boom"))
	require.NotNil(t, de)
	assert.Equal(t, CodeInternal, de.Code)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.Nil(t, ToDomainError(nil))
}

func TestUpstreamUnavailableUnwraps(t *testing.T) {
	cause := errors.New("status 500")
	err := NewUpstreamUnavailable("ticketing", cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, HasCode(err, CodeUpstreamUnavailable))
	assert.Equal(t, "ticketing unavailable: status 500", err.Error())
}
