package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDate   = errors.New("invalid date (expected YYYY-MM-DD)")
	ErrInvalidAmount = errors.New("amount must be greater than 0")
	ErrEmptyCategory = errors.New("empty category")
	ErrMissingField  = errors.New("missing required field")
)

// ValidationError rejects caller input before anything is written.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// StorageError reports a failure of the underlying medium.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ImportRowError describes one CSV row that was skipped during import.
// Row is 1-based and counts data rows only (the header is not a row).
type ImportRowError struct {
	Row int
	Err error
}

func (e *ImportRowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *ImportRowError) Unwrap() error { return e.Err }

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsStorage reports whether err carries a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
