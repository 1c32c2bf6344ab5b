package player

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of playback error
type ErrorType int

const (
	// ErrorTypeNetwork indicates a playlist or heartbeat fetch failed.
	// Network errors never enter playback state, they are retried on the
	// next poll tick.
	ErrorTypeNetwork ErrorType = iota
	// ErrorTypeMedia indicates the current item failed to load or decode
	ErrorTypeMedia
	// ErrorTypeConfiguration indicates a malformed item (e.g. missing URL),
	// recovered through the same path as a media error
	ErrorTypeConfiguration
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeMedia:
		return "media"
	case ErrorTypeConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// PlaybackError is a classified playback error. Nothing in the engine is
// fatal: every playback error is recoverable and only an explicit
// Disconnect stops the loops.
type PlaybackError struct {
	Type    ErrorType
	Message string
	Cause   error
}

// NewPlaybackError creates a new PlaybackError with the given type, message, and cause
func NewPlaybackError(errorType ErrorType, message string, cause error) *PlaybackError {
	return &PlaybackError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// Error implements the error interface
func (e *PlaybackError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type.String(), e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type.String(), e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *PlaybackError) Unwrap() error {
	return e.Cause
}

// Common engine errors
var (
	// ErrAlreadyConnected indicates Connect was called on a live engine
	ErrAlreadyConnected = errors.New("engine already connected")
	// ErrNotConnected indicates an operation that requires a live session
	ErrNotConnected = errors.New("engine not connected")
	// ErrEmptyDeviceID indicates Connect was called without a device id
	ErrEmptyDeviceID = errors.New("device id cannot be empty")
)

// IsMediaError checks if the error is a media or configuration playback error
func IsMediaError(err error) bool {
	var pe *PlaybackError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Type == ErrorTypeMedia || pe.Type == ErrorTypeConfiguration
}
