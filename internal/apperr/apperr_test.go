package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	for _, testCase := range []struct {
		name   string
		err    error
		status int
	}{
		{name: "bad request", err: New(BadRequest, "bad"), status: http.StatusBadRequest},
		{name: "payment required", err: New(PaymentRequired, "pay"), status: http.StatusPaymentRequired},
		{name: "method not allowed", err: New(MethodNotAllowed, "nope"), status: http.StatusMethodNotAllowed},
		{name: "conflict", err: New(Conflict, "dup"), status: http.StatusConflict},
		{name: "wrapped domain error", err: fmt.Errorf("load: %w", New(NotFound, "missing")), status: http.StatusNotFound},
		{name: "plain error", err: errors.New("boom"), status: http.StatusInternalServerError},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.status, StatusOf(testCase.err))
		})
	}
}

func TestNewRejectsCodesOutsideEnumeration(t *testing.T) {
	e := New(Code(http.StatusTeapot), "tea")
	assert.Equal(t, BadRequest, e.Code)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("duplicate key")
	e := Wrap(Conflict, "An account exists with this email/mobile.", cause)

	assert.ErrorIs(t, e, cause)
	assert.Equal(t, "An account exists with this email/mobile.: duplicate key", e.Error())

	found, ok := As(fmt.Errorf("signup: %w", e))
	require.True(t, ok)
	assert.Equal(t, "An account exists with this email/mobile.", found.Message)
	assert.True(t, IsCode(e, Conflict))
	assert.False(t, IsCode(cause, Conflict))
}

func TestValidationCarriesDetails(t *testing.T) {
	details := []string{"email"}
	e := Validation(details)
	assert.Equal(t, BadRequest, e.Code)
	assert.Equal(t, details, e.Details)
}
