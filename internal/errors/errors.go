package errors

import (
	"errors"
	"fmt"
)

// BibError is the structured error type for bibsearch.
// It carries enough context for logging and for presenting the failure
// to a user on the command line.
type BibError struct {
	// Code is the unique error code (e.g., "ERR_201_FILE_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *BibError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *BibError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with BibError.
func (e *BibError) Is(target error) bool {
	if t, ok := target.(*BibError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *BibError) WithDetail(key, value string) *BibError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *BibError) WithSuggestion(suggestion string) *BibError {
	e.Suggestion = suggestion
	return e
}

// New creates a new BibError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *BibError {
	return &BibError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a BibError from an existing error.
// The error's message becomes the BibError message.
func Wrap(code string, err error) *BibError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *BibError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *BibError {
	return New(ErrCodeFileNotFound, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *BibError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *BibError {
	return New(ErrCodeInternal, message, cause)
}

// IsFatal checks if an error has fatal severity anywhere in its chain.
func IsFatal(err error) bool {
	var be *BibError
	if errors.As(err, &be) {
		return be.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from the first BibError in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var be *BibError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// GetCategory extracts the category from the first BibError in the chain.
// Returns empty string if there is none.
func GetCategory(err error) Category {
	var be *BibError
	if errors.As(err, &be) {
		return be.Category
	}
	return ""
}
