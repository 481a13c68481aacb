package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Sentinel kinds. Package errors wrap one of these so callers can classify
// them with errors.Is without importing the owning package.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("resource not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a structured application error with an HTTP status mapping.
type Error struct {
	Code    string
	Message string
	Status  int
	Details []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(code, message string) *Error {
	return &Error{Code: code, Message: message, Status: http.StatusNotFound, Err: ErrNotFound}
}

func Forbidden(code, message string) *Error {
	return &Error{Code: code, Message: message, Status: http.StatusForbidden, Err: ErrForbidden}
}

func Conflict(code, message string) *Error {
	return &Error{Code: code, Message: message, Status: http.StatusConflict, Err: ErrConflict}
}

func Unauthorized(code, message string) *Error {
	return &Error{Code: code, Message: message, Status: http.StatusUnauthorized, Err: ErrUnauthorized}
}

// Invalid builds a validation error carrying per-field details.
func Invalid(message string, details ...FieldError) *Error {
	return &Error{
		Code:    "VALIDATION_ERROR",
		Message: message,
		Status:  http.StatusBadRequest,
		Details: details,
		Err:     ErrValidation,
	}
}

// FromValidation converts an ozzo-validation result into a validation
// error. A nil input yields nil; internal validator failures are returned
// unchanged.
func FromValidation(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		var internal validation.InternalError
		if errors.As(err, &internal) {
			return err
		}
		return Invalid(err.Error())
	}

	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	details := make([]FieldError, 0, len(fields))
	for _, f := range fields {
		details = append(details, FieldError{Field: f, Message: errs[f].Error()})
	}
	return Invalid("Invalid input", details...)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
