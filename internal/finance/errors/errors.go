package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrCategoryNotFound is reported by repositories when no row matches both the id and the owner.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrCategoryNotFoundOrForbidden never tells the caller which of the two cases applied.
	ErrCategoryNotFoundOrForbidden = errors.New("category not found or not owned by user")

	ErrStorageUnavailable = errors.New("storage unavailable")
)

type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

func NewFieldValidationError(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

func IsValidationError(err error) bool {
	var validationError *ValidationError
	ok := errors.As(err, &validationError)
	return ok
}

type ValidationErrors struct {
	Errors []error
}

func (ve *ValidationErrors) Error() string {
	errorMessages := make([]string, len(ve.Errors))
	for i, err := range ve.Errors {
		errorMessages[i] = err.Error()
	}
	return fmt.Sprintf("multiple validation errors: %s", strings.Join(errorMessages, "; "))
}

func (ve *ValidationErrors) Add(err error) {
	ve.Errors = append(ve.Errors, err)
}

// Fields groups the messages by field name. The first message recorded for a field wins.
func (ve *ValidationErrors) Fields() map[string]string {
	fields := make(map[string]string, len(ve.Errors))
	for _, err := range ve.Errors {
		var fieldErr *ValidationError
		if !errors.As(err, &fieldErr) || fieldErr.Field == "" {
			continue
		}
		if _, exists := fields[fieldErr.Field]; !exists {
			fields[fieldErr.Field] = fieldErr.Msg
		}
	}
	return fields
}

// ErrorOrNil returns nil when nothing was added, so callers can return it directly.
func (ve *ValidationErrors) ErrorOrNil() error {
	if ve == nil || len(ve.Errors) == 0 {
		return nil
	}
	return ve
}

func IsValidationErrors(err error) bool {
	var validationErrors *ValidationErrors
	ok := errors.As(err, &validationErrors)
	return ok
}
