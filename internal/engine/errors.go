package engine

import (
	"errors"
	"fmt"
)

// Error is the failure of one submission.
//
// Every error returned by Submit is an *Error. The stores are left valid in
// all cases; only PARTIAL_COMMIT leaves the roster behind the ledger, and
// re-submitting the same batch completes it.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Field names the offending input field (validation only).
	Field string

	// Member names the offending batch entry, if any.
	Member string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes submission errors.
type ErrorCode string

const (
	// ErrCodeValidation rejects the batch before anything is written.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeConflict means optimistic retries were exhausted by concurrent writers.
	ErrCodeConflict ErrorCode = "CONFLICT"

	// ErrCodeStore means a table could not be read or written.
	ErrCodeStore ErrorCode = "STORE"

	// ErrCodePartialCommit means the ledger was written but the roster was not.
	ErrCodePartialCommit ErrorCode = "PARTIAL_COMMIT"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.Field != "" && e.Member != "":
		msg = fmt.Sprintf("%s (field=%s, member=%s)", msg, e.Field, e.Member)
	case e.Field != "":
		msg = fmt.Sprintf("%s (field=%s)", msg, e.Field)
	case e.Member != "":
		msg = fmt.Sprintf("%s (member=%s)", msg, e.Member)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsValidationError reports whether err rejected the batch before any write.
func IsValidationError(err error) bool { return hasCode(err, ErrCodeValidation) }

// IsConflictError reports whether err is an exhausted optimistic retry.
func IsConflictError(err error) bool { return hasCode(err, ErrCodeConflict) }

// IsStoreError reports whether err is a store failure.
func IsStoreError(err error) bool { return hasCode(err, ErrCodeStore) }

// IsPartialCommitError reports whether the ledger was committed without the roster.
func IsPartialCommitError(err error) bool { return hasCode(err, ErrCodePartialCommit) }

func newValidationError(field, member, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeValidation,
		Field:   field,
		Member:  member,
		Message: fmt.Sprintf(format, args...),
	}
}

func newConflictError(table string, attempts int, err error) *Error {
	return &Error{
		Code:    ErrCodeConflict,
		Message: fmt.Sprintf("table %s changed concurrently on every attempt (%d attempts); re-submit", table, attempts),
		Err:     err,
	}
}

func newStoreError(table string, err error) *Error {
	return &Error{
		Code:    ErrCodeStore,
		Message: fmt.Sprintf("table %s unavailable", table),
		Err:     err,
	}
}

func newPartialCommitError(table string, err error) *Error {
	return &Error{
		Code:    ErrCodePartialCommit,
		Message: fmt.Sprintf("attendance recorded but table %s was not updated; re-submit the same batch", table),
		Err:     err,
	}
}
