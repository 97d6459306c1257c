package flight

import (
	"errors"
	"fmt"

	"github.com/roman-kulish/tello-pilot/internal/command"
)

var (
	ErrNotFlying       = errors.New("drone is not flying")
	ErrSDKModeRequired = errors.New("SDK mode required")
	ErrInvalidPolygon  = errors.New("invalid polygon")
	ErrNotStarted      = errors.New("controller not started")
)

// PreconditionError is returned before sending a command the drone is not in a state to accept
type PreconditionError struct {
	Kind command.Kind
	Err  error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// CommandError is returned by Do when a command was sent but did not succeed
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
