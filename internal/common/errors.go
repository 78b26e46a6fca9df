package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrValidation   = errors.New("validation failed")
	ErrNoAPIKey     = errors.New("no usable API key configured")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Pipeline failure kinds. A document with no extractable text is NOT an
// error (the extraction result carries that state), and an edit whose target
// cannot be located is reported per edit, not raised. Everything that does
// abort a run maps onto one of the types below so callers can errors.As.

// ExtractionError means the uploaded bytes could not be read as a PDF.
type ExtractionError struct {
	Cause error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed: %v", e.Cause)
}

func (e *ExtractionError) Unwrap() error { return e.Cause }

// OracleError means the model call failed for every configured model, or the
// reply could not be turned into any edit request.
type OracleError struct {
	Message string
	Cause   error
}

func (e *OracleError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("oracle failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("oracle failed: %s", e.Message)
}

func (e *OracleError) Unwrap() error { return e.Cause }

// MutationError means rewriting the PDF failed. The pipeline returns the
// original bytes when this happens, never a partially written file.
type MutationError struct {
	Cause error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("mutation failed: %v", e.Cause)
}

func (e *MutationError) Unwrap() error { return e.Cause }
