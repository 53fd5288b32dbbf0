package core

import (
	"strings"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// FailedRecord identifies a dependent record that could not be written
// during a multi-record operation.
type FailedRecord struct {
	ID  string
	Err error
}

// PartialFailureError reports a multi-record operation where the primary
// write succeeded but one or more dependent writes failed. The propagation
// step is idempotent; callers may retry it with the failed IDs intact.
type PartialFailureError struct {
	Op     string
	Failed []FailedRecord
}

func NewPartialFailureError(op string, failed []FailedRecord) error {
	return &PartialFailureError{Op: op, Failed: failed}
}

func (err PartialFailureError) Error() string {
	ids := make([]string, 0, len(err.Failed))
	for _, f := range err.Failed {
		ids = append(ids, f.ID)
	}
	return err.Op + ": partial failure on records " + strings.Join(ids, ", ")
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
