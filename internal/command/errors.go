package command

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCommand is returned when a kind or wire token has no rule
	ErrUnknownCommand = errors.New("unknown command")

	// ErrArgumentMismatch is returned when the argument count or type does not match the rule
	ErrArgumentMismatch = errors.New("argument mismatch")

	// ErrArgumentOutOfRange is returned when an argument is outside the rule's inclusive range
	ErrArgumentOutOfRange = errors.New("argument out of range")

	// ErrArgumentNull is returned when a required argument is missing
	ErrArgumentNull = errors.New("argument is null")

	// ErrUnexpectedResponse is returned when a response body does not match the expected kind
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// ValidationError is returned when a command cannot be built from the given arguments.
// Index is the offending argument position, or -1 when the error concerns the whole list.
type ValidationError struct {
	Kind  Kind
	Index int
	Err   error
	msg   string
}

func newValidationError(kind Kind, index int, err error, msg string) *ValidationError {
	return &ValidationError{Kind: kind, Index: index, Err: err, msg: msg}
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Err, e.msg)
	}
	return fmt.Sprintf("%s: argument %d: %s: %s", e.Kind, e.Index, e.Err, e.msg)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ProtocolError carries the message of an "error ..." reply from the drone
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	if e.Message == "" {
		return "drone replied with error"
	}
	return fmt.Sprintf("drone replied with error: %s", e.Message)
}
