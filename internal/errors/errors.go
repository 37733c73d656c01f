package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure conditions
var (
	// ErrInvalidInput indicates invalid user input (empty fields, missing options)
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates a test or question was not found
	ErrNotFound = errors.New("not found")

	// ErrTimeout indicates an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrBusy indicates a re-entrant call was dropped because the same
	// operation is already in flight
	ErrBusy = errors.New("operation already in progress")

	// ErrStale indicates a response arrived for a modal that was closed or
	// reopened in the meantime and was discarded
	ErrStale = errors.New("stale response discarded")

	// ErrNotReady indicates a command was issued in a state that does not accept it
	ErrNotReady = errors.New("not ready")
)

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return errors.As(err, target) }

// New returns an error with the given text.
func New(text string) error { return errors.New(text) }

// ValidationError represents a locally detected input failure.
// Message is user-facing and is shown as is.
type ValidationError struct {
	Field   string // Field that failed validation
	Message string // Human-readable message
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// Is implements error comparison for errors.Is
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// ServerError is a non-2xx response from the test service.
type ServerError struct {
	Op         string // Operation that failed
	StatusCode int    // HTTP status code
	Message    string // Server-provided message, may be empty
}

func (e *ServerError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("%s: request failed with status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Retryable reports whether the status code is worth another attempt.
func (e *ServerError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// TransientError represents a temporary failure that can be retried
type TransientError struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient error in %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError creates a new transient error
func NewTransientError(op string, err error) *TransientError {
	return &TransientError{Op: op, Err: err}
}

// IsTransient checks if an error is transient and can be retried
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// PermanentError represents a non-recoverable failure
type PermanentError struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent error in %s: %v", e.Op, e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewPermanentError creates a new permanent error
func NewPermanentError(op string, err error) *PermanentError {
	return &PermanentError{Op: op, Err: err}
}

// UserMessage converts err into the text shown to the user.
// Validation messages win, then a message supplied by the server,
// then fallback. With an empty fallback the raw error text is used.
// Transport and decode error text is never shown while fallback is non-empty.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) && ve.Message != "" {
		return ve.Message
	}

	var se *ServerError
	if errors.As(err, &se) && strings.TrimSpace(se.Message) != "" {
		return se.Message
	}

	if fallback != "" {
		return fallback
	}
	return err.Error()
}

// MultiError aggregates multiple errors
type MultiError struct {
	Errors []error
}

func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Append adds an error to the multi-error if it's non-nil
func (e *MultiError) Append(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// ErrorOrNil returns the MultiError if it has errors, otherwise nil
func (e *MultiError) ErrorOrNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}
