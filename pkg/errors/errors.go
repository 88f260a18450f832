// Package errors provides structured error types for the heatgrid application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *_MISMATCH: Incompatible artifact shapes
//   - NOT_FOUND_*: Resource not found
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidBox, "box extends past canvas: %v", box)
//	if errors.Is(err, errors.ErrCodeInvalidBox) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStore, origErr, "failed to load heatset %s", id)
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/posterlab/heatgrid/pkg/heat"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidBox      Code = "INVALID_BOX"
	ErrCodeInvalidCategory Code = "INVALID_CATEGORY"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"

	// Shape and data errors
	ErrCodeResolutionMismatch Code = "RESOLUTION_MISMATCH"
	ErrCodeEmptyCorpus        Code = "EMPTY_CORPUS"
	ErrCodeUnknownCategory    Code = "UNKNOWN_CATEGORY"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeHeatsetNotFound Code = "HEATSET_NOT_FOUND"

	// Backend errors
	ErrCodeStore Code = "STORE_ERROR"
	ErrCodeCache Code = "CACHE_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available. Plain heat
// sentinels are recognized and mapped to their codes, so callers can classify
// errors straight out of pkg/heat without wrapping them first.
// Returns ErrCodeInternal for errors that carry no code.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	switch {
	case errors.Is(err, heat.ErrInvalidBox):
		return ErrCodeInvalidBox
	case errors.Is(err, heat.ErrResolutionMismatch):
		return ErrCodeResolutionMismatch
	case errors.Is(err, heat.ErrEmptyCorpus):
		return ErrCodeEmptyCorpus
	case errors.Is(err, heat.ErrUnknownCategory):
		return ErrCodeUnknownCategory
	}
	return ErrCodeInternal
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps an error code to the HTTP status the API responds with.
func HTTPStatus(code Code) int {
	switch code {
	case ErrCodeInvalidInput, ErrCodeInvalidBox, ErrCodeInvalidCategory, ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case ErrCodeResolutionMismatch:
		return http.StatusConflict
	case ErrCodeNotFound, ErrCodeHeatsetNotFound, ErrCodeUnknownCategory:
		return http.StatusNotFound
	case ErrCodeEmptyCorpus:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
