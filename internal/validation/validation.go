// Package validation registers the request rules shared by every handler on
// gin's validator engine and turns binding failures into envelope details.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"koomia/api/internal/apperr"
	"koomia/api/internal/ids"
)

var mobilePattern = regexp.MustCompile(`^\+?[0-9]{6,15}$`)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var registerOnce sync.Once

// Register installs the custom rules on gin's default validator. Safe to call
// more than once.
func Register() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		err = Install(v)
	})
	return err
}

func Install(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonName)

	rules := map[string]validator.Func{
		"password": func(fl validator.FieldLevel) bool { return StrongPassword(fl.Field().String()) },
		"mobile":   func(fl validator.FieldLevel) bool { return mobilePattern.MatchString(fl.Field().String()) },
		"entityid": func(fl validator.FieldLevel) bool { return ids.Valid(fl.Field().String()) },
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s rule: %w", tag, err)
		}
	}
	return nil
}

// StrongPassword requires at least 8 characters with a digit and a symbol.
func StrongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	return digit && special
}

func jsonName(field reflect.StructField) string {
	for _, tag := range []string{"json", "form", "uri"} {
		name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return field.Name
}

// FromBinding converts a ShouldBind* failure into a 400 domain error.
func FromBinding(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(apperr.BadRequest, "Invalid request body.", err)
	}

	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return apperr.Validation(details)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", fe.Field())
	case "email":
		return "Must be a valid e-mail address."
	case "password":
		return "Password must be at least 8 characters and contain a digit and a special character."
	case "mobile":
		return "Must be a valid mobile number."
	case "entityid":
		return "Must be a valid identifier."
	case "eqfield":
		return fmt.Sprintf("Must match %s.", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s.", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s.", fe.Param())
	}
	return fmt.Sprintf("Failed the %s rule.", fe.Tag())
}
