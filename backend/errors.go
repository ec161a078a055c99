package backend

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for backend operations.
var (
	// ErrUnknownBackend indicates the requested backend is not registered.
	ErrUnknownBackend = errors.New("unknown backend")

	// ErrUnavailable indicates the backend could not be reached.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrTimeout indicates the attempt exceeded its deadline.
	ErrTimeout = errors.New("attempt timed out")

	// ErrEmptyOutput indicates the backend returned no usable text.
	ErrEmptyOutput = errors.New("empty model output")

	// ErrCLINotFound indicates the backing CLI binary was not found in PATH.
	ErrCLINotFound = errors.New("CLI binary not found")
)

// Error wraps backend errors with context.
type Error struct {
	Backend   string // Backend name ("ollama", "codex-cli")
	Op        string // Operation that failed ("generate")
	Err       error  // Underlying error
	Retryable bool   // Whether the error is likely transient
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Backend != "" {
		return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new backend error.
func NewError(backend, op string, err error, retryable bool) *Error {
	return &Error{
		Backend:   backend,
		Op:        op,
		Err:       err,
		Retryable: retryable,
	}
}

// IsRetryable checks if an error is likely transient and worth retrying
// on the same backend.
func IsRetryable(err error) bool {
	var bErr *Error
	if errors.As(err, &bErr) {
		return bErr.Retryable
	}

	return errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrEmptyOutput) ||
		errors.Is(err, context.DeadlineExceeded)
}
