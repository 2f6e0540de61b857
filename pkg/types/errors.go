// Package types defines error types
package types

import (
	"errors"
	"fmt"
)

// Predefined errors
var (
	// ErrInvalidConfig is matched by every ConfigurationError
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrClosedQueue indicates a push on a queue that was already closed
	ErrClosedQueue = errors.New("queue is closed")

	// ErrSkewExceeded indicates a sequence beyond the configured reorder window
	ErrSkewExceeded = errors.New("order skew exceeded")

	// ErrDuplicateSequence indicates a sequence number that was already submitted or released
	ErrDuplicateSequence = errors.New("duplicate sequence number")

	// ErrInvalidInput indicates invalid input
	ErrInvalidInput = errors.New("invalid input")

	// ErrIterationLimit indicates a stream iteration that did not converge in time
	ErrIterationLimit = errors.New("iteration limit reached")

	// ErrPoolClosed indicates a submission to a closed worker pool
	ErrPoolClosed = errors.New("worker pool is closed")

	// ErrAlreadyStarted indicates a second Init or Start call
	ErrAlreadyStarted = errors.New("already started")
)

// ConfigurationError describes an execution setting that cannot be used
type ConfigurationError struct {
	Field  string
	Value  interface{}
	Reason string
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(field string, value interface{}, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Value: value, Reason: reason}
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%v: %s", e.Field, e.Value, e.Reason)
}

// Is matches ErrInvalidConfig
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// CallbackError wraps an error returned or a panic raised by a user callback
type CallbackError struct {
	// Pattern is the pattern that invoked the callback
	Pattern string

	// Role is the callback role: generator, transform, predicate, sink, combine, divide, solve
	Role string

	// Worker is the index of the worker that ran the callback, -1 for the driver
	Worker int

	// Sequence is the stream position of the item, if any
	Sequence uint64

	// Cause is the underlying error
	Cause error
}

// NewCallbackError creates a callback error
func NewCallbackError(pattern, role string, worker int, seq uint64, cause error) *CallbackError {
	return &CallbackError{
		Pattern:  pattern,
		Role:     role,
		Worker:   worker,
		Sequence: seq,
		Cause:    cause,
	}
}

// Error implements the error interface
func (e *CallbackError) Error() string {
	return fmt.Sprintf("%s %s callback failed (worker %d, seq %d): %v",
		e.Pattern, e.Role, e.Worker, e.Sequence, e.Cause)
}

// Unwrap returns the underlying error
func (e *CallbackError) Unwrap() error {
	return e.Cause
}

// PanicError is the cause recorded for a recovered panic
type PanicError struct {
	Value interface{}
	Stack string
}

// Error implements the error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// RetryableError marks an error as worth another attempt
type RetryableError struct {
	// Err is the underlying error
	Err error

	// Retryable indicates whether the error is retryable
	Retryable bool
}

// Error implements the error interface
func (e *RetryableError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}
	return false
}
