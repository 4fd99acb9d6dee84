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
	ErrDatabase     = errors.New("database error")

	// ErrInvalidDocument means the input is not a readable PDF at all.
	// Document-fatal: processing stops with no partial output.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrImageDecode means a page image could not be decoded or normalized.
	// Page-fatal, document-recoverable: the page is skipped and flagged.
	ErrImageDecode = errors.New("image decode failed")

	// ErrExtraction means OCR failed for a page after retries were exhausted.
	// Page-fatal, document-recoverable: the page is skipped and flagged.
	ErrExtraction = errors.New("text extraction failed")
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
