// Package apperr defines the domain error type shared by services and handlers.
// Every error that should reach a client with a specific status is an *Error;
// anything else is treated as an unexpected internal failure.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code int

const (
	BadRequest       Code = http.StatusBadRequest
	Unauthorized     Code = http.StatusUnauthorized
	PaymentRequired  Code = http.StatusPaymentRequired
	Forbidden        Code = http.StatusForbidden
	NotFound         Code = http.StatusNotFound
	MethodNotAllowed Code = http.StatusMethodNotAllowed
	Conflict         Code = http.StatusConflict
	TooManyRequests  Code = http.StatusTooManyRequests
)

func (c Code) Valid() bool {
	switch c {
	case BadRequest, Unauthorized, PaymentRequired, Forbidden, NotFound, MethodNotAllowed, Conflict, TooManyRequests:
		return true
	}
	return false
}

type Error struct {
	Code    Code
	Message string
	Details any
	Err     error
}

func New(code Code, message string) *Error {
	if !code.Valid() {
		code = BadRequest
	}
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap keeps cause reachable through errors.Is/As while presenting message to clients.
func Wrap(code Code, message string, cause error) *Error {
	e := New(code, message)
	e.Err = cause
	return e
}

// Validation reports malformed input; details are echoed in the envelope's error field.
func Validation(details any) *Error {
	e := New(BadRequest, "Validation errors.")
	e.Details = details
	return e
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Status() int { return int(e.Code) }

func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// StatusOf maps err to an HTTP status; non-domain errors are 500.
func StatusOf(err error) int {
	if e, ok := As(err); ok {
		return e.Status()
	}
	return http.StatusInternalServerError
}

func IsCode(err error, code Code) bool {
	e, ok := As(err)
	return ok && e.Code == code
}
