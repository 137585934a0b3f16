package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount      = errors.New("amount must be a positive number with at most cent precision")
	ErrInvalidDate        = errors.New("date must be a calendar date in YYYY-MM-DD format")
	ErrInvalidType        = errors.New("type must be income or expense")
	ErrInvalidCategory    = errors.New("category is not valid for the transaction type")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
)

// ValidationError reports malformed or inconsistent input. Nothing is mutated
// when it is returned.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// NewValidationError wraps err as a ValidationError for field.
func NewValidationError(field string, err error) error {
	return invalid(field, err)
}

// NotFoundError is returned when a transaction id is not in the ledger.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("transaction %q not found", e.ID)
}

// RenderError is returned when a report could not be produced for internal
// reasons. Retrying is safe.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return "render report: " + e.Err.Error()
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
