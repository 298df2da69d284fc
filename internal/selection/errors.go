package selection

import (
	"errors"
	"fmt"
)

// Error reports a selection that could not produce a result.
//
// Selection errors are local and non-fatal: the caller keeps its state and
// can retry once the configuration is fixed.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes selection errors.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates a misconfigured count (teamCount < 1, n < 0).
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeUnsupportedMode indicates a mode without a selection algorithm.
	ErrCodeUnsupportedMode ErrorCode = "UNSUPPORTED_MODE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvalidArgument returns true if err is an INVALID_ARGUMENT selection error.
// Uses errors.As to handle wrapped errors.
func IsInvalidArgument(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == ErrCodeInvalidArgument
	}
	return false
}

// IsUnsupportedMode returns true if err is an UNSUPPORTED_MODE selection error.
func IsUnsupportedMode(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == ErrCodeUnsupportedMode
	}
	return false
}

// NewInvalidArgument creates an INVALID_ARGUMENT error for a named argument.
func NewInvalidArgument(arg string, got, min int) *Error {
	return &Error{
		Code:    ErrCodeInvalidArgument,
		Message: fmt.Sprintf("%s must be >= %d, got %d", arg, min, got),
		Details: map[string]string{
			"argument": arg,
			"value":    fmt.Sprintf("%d", got),
		},
	}
}

// NewUnsupportedMode creates an UNSUPPORTED_MODE error.
func NewUnsupportedMode(mode string) *Error {
	return &Error{
		Code:    ErrCodeUnsupportedMode,
		Message: fmt.Sprintf("%s selection is not implemented", mode),
		Details: map[string]string{"mode": mode},
	}
}
