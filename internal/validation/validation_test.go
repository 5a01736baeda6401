package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koomia/api/internal/apperr"
	"koomia/api/internal/ids"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Mobile   string `json:"mobile" validate:"required,mobile"`
	Password string `json:"password" validate:"required,password"`
	RefID    string `json:"refId" validate:"omitempty,entityid"`
}

func newValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	require.NoError(t, Install(v))
	return v
}

func TestRulesAcceptValidInput(t *testing.T) {
	v := newValidator(t)
	err := v.Struct(signup{
		Email:    "ada@x.com",
		Mobile:   "+100000",
		Password: "Passw0rd!",
		RefID:    ids.New(),
	})
	assert.NoError(t, err)
}

func TestFromBindingReportsJSONFieldNames(t *testing.T) {
	v := newValidator(t)
	err := v.Struct(signup{Email: "nope", Mobile: "12", Password: "password", RefID: "x"})
	require.Error(t, err)

	converted := FromBinding(err)
	assert.Equal(t, 400, apperr.StatusOf(converted))

	e, ok := apperr.As(converted)
	require.True(t, ok)
	assert.Equal(t, "Validation errors.", e.Message)

	details, ok := e.Details.([]FieldError)
	require.True(t, ok)
	fields := make([]string, 0, len(details))
	for _, d := range details {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"email", "mobile", "password", "refId"}, fields)
}

func TestFromBindingWrapsDecodeErrors(t *testing.T) {
	err := FromBinding(assert.AnError)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.BadRequest, e.Code)
	assert.Nil(t, e.Details)
}

func TestStrongPassword(t *testing.T) {
	assert.True(t, StrongPassword("Passw0rd!"))
	assert.False(t, StrongPassword("Pa0!"))
	assert.False(t, StrongPassword("Password!"))
	assert.False(t, StrongPassword("Passw0rd1"))
}
