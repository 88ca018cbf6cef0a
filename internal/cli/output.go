package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/selection"
	"github.com/roach88/rollcall/internal/stats"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected or conflicting submission, failed scenarios
	ExitCommandError = 2 // Command error (bad flags, unreadable files, store unavailable)
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E002" // File or data not found
	ErrCodeParse       = "E003" // YAML or CSV could not be parsed
	ErrCodeSchema      = "E004" // Batch file does not match the schema
	ErrCodeStoreOpen   = "E005" // Backend could not be opened
	ErrCodeWriteFailed = "E006" // File write error

	// Submission errors, one per engine error code
	ErrCodeValidation    = "E101"
	ErrCodeConflict      = "E102"
	ErrCodeStore         = "E103"
	ErrCodePartialCommit = "E104"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E101", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
// In text mode data is printed with fmt, so views implement fmt.Stringer.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Fail reports err under code and returns the ExitError the command should
// return.
func (f *OutputFormatter) Fail(code string, exit int, message string, err error, details any) error {
	if outErr := f.Error(code, err.Error(), details); outErr != nil {
		return outErr
	}
	return WrapExitError(exit, message, err)
}

// FailEngine reports an error from the engine, the selection or the stats
// reader. Rejections exit with ExitFailure; an unavailable store exits with
// ExitCommandError.
func (f *OutputFormatter) FailEngine(message string, err error) error {
	var ee *engine.Error
	switch {
	case errors.As(err, &ee):
		var details any
		if ee.Field != "" || ee.Member != "" {
			details = map[string]string{"field": ee.Field, "member": ee.Member}
		}
		switch ee.Code {
		case engine.ErrCodeValidation:
			return f.Fail(ErrCodeValidation, ExitFailure, message, err, details)
		case engine.ErrCodeConflict:
			return f.Fail(ErrCodeConflict, ExitFailure, message, err, details)
		case engine.ErrCodePartialCommit:
			return f.Fail(ErrCodePartialCommit, ExitFailure, message, err, details)
		default:
			return f.Fail(ErrCodeStore, ExitCommandError, message, err, details)
		}
	case errors.Is(err, selection.ErrInvalid):
		return f.Fail(ErrCodeValidation, ExitFailure, message, err, nil)
	case errors.Is(err, selection.ErrNotConfirmed):
		return f.Fail(ErrCodeValidation, ExitCommandError, message, err, nil)
	case errors.Is(err, stats.ErrInvalidDate):
		return f.Fail(ErrCodeValidation, ExitCommandError, message, err, nil)
	case errors.Is(err, stats.ErrNoAttendance):
		return f.Fail(ErrCodeNotFound, ExitFailure, message, err, nil)
	default:
		return f.Fail(ErrCodeStore, ExitCommandError, message, err, nil)
	}
}
