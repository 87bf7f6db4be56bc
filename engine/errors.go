package engine

import "errors"

// ErrInvalidCallable is returned when a value presented to an Engine as a
// callable was not produced by that Engine.
var ErrInvalidCallable = errors.New("value is not a callable of this engine")

// SyntaxError reports malformed source text.
type SyntaxError struct {
	// FriendlyName is the label of the chunk that failed to parse.
	FriendlyName string

	// Msg is the engine's decorated message, usually including a position.
	Msg string

	Err error
}

func (e *SyntaxError) Error() string {
	return e.Msg
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// RuntimeError reports a fault raised by the engine while loading or running
// code.
type RuntimeError struct {
	FriendlyName string

	// Msg is the engine's decorated message. For evaluation failures this
	// includes the backtrace.
	Msg string

	Err error
}

func (e *RuntimeError) Error() string {
	return e.Msg
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsSyntaxError reports whether err is, or wraps, a *SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}

// IsRuntimeError reports whether err is, or wraps, a *RuntimeError.
func IsRuntimeError(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re)
}
