package transfer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest marks malformed requests; they are never retried.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrMissingLocator is reported for requests with an empty URL.
	ErrMissingLocator = fmt.Errorf("%w: %s", ErrInvalidRequest, StatusMissingLocator)

	// ErrAlreadyStarted is reported to a second Start on the same Transfer.
	ErrAlreadyStarted = errors.New("transfer already started")

	// ErrTransferActive is returned by Reset while the worker is running.
	ErrTransferActive = errors.New("transfer is still running")

	// ErrCancelRequested is the cause set on the engine context by RequestCancel.
	ErrCancelRequested = errors.New("cancellation requested")
)

// EngineError wraps a failure reported by the transfer engine. Message is
// the engine's own text and is shown to the user unchanged.
type EngineError struct {
	Message string
	Err     error
}

// Error implements the error interface
func (e *EngineError) Error() string {
	return e.Message
}

// Unwrap returns the underlying engine error
func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is matches any *EngineError, so errors.Is(err, &EngineError{}) works as a
// category check.
func (e *EngineError) Is(target error) bool {
	_, ok := target.(*EngineError)
	return ok
}

// NewEngineError wraps err with the message shown to the observer
func NewEngineError(err error) *EngineError {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if msg == "" {
		msg = "download failed"
	}
	return &EngineError{Message: msg, Err: err}
}
