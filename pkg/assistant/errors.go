// Package assistant wires storage, users, persona, lessons, web search
// and the language model into a single conversational assistant.
package assistant

import (
	"errors"
	"fmt"
)

// Predefined errors for common failure scenarios.
var (
	// ErrNotFound indicates that a requested record was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrValidation indicates that the provided input is invalid.
	ErrValidation = errors.New("invalid input")

	// ErrUpstream indicates that the language model call failed.
	ErrUpstream = errors.New("upstream completion failed")

	// ErrStorage indicates that a storage operation failed.
	ErrStorage = errors.New("storage operation failed")
)

// AssistantError wraps errors with operation context.
//
// Example:
//
//	err := &AssistantError{
//	    Op:  "Respond",
//	    Err: ErrUpstream,
//	}
//	// Error() returns: "fennec: Respond: upstream completion failed"
type AssistantError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message.
//
// The format is: "fennec: <Op>: <Err>"
func (e *AssistantError) Error() string {
	return fmt.Sprintf("fennec: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *AssistantError) Unwrap() error {
	return e.Err
}

// NewAssistantError creates a new AssistantError wrapping the given
// error. If err is nil, returns nil.
func NewAssistantError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &AssistantError{
		Op:  op,
		Err: err,
	}
}
