package canmux

import (
	"errors"
)

type unrecoverableError struct {
	error
}

func (e unrecoverableError) Error() string {
	if e.error == nil {
		return "unrecoverable error"
	}
	return e.error.Error()
}

func (e unrecoverableError) Unwrap() error {
	return e.error
}

// Unrecoverable wraps an error in `unrecoverableError` struct
func Unrecoverable(err error) error {
	return unrecoverableError{err}
}

// IsRecoverable checks if error is an instance of `unrecoverableError`
func IsRecoverable(err error) bool {
	var u unrecoverableError
	return !errors.As(err, &u)
}

var (
	ErrBufferFull    = errors.New("transmit buffer full")
	ErrInvalidValue  = errors.New("invalid value")
	ErrInvalidFrame  = errors.New("invalid frame")
	ErrNilAdapter    = errors.New("adapter is nil")
	ErrClosed        = errors.New("closed")
	ErrDroppedFrame  = errors.New("adapter incoming channel full")
	ErrHandlerClosed = errors.New("failed to register subscription, handler is closed")
)
