package flight

import (
	"time"

	"github.com/google/uuid"

	"github.com/roman-kulish/tello-pilot/internal/command"
	"github.com/roman-kulish/tello-pilot/internal/position"
	"github.com/roman-kulish/tello-pilot/internal/telemetry"
	"github.com/roman-kulish/tello-pilot/internal/transceiver"
	"github.com/roman-kulish/tello-pilot/internal/video"
)

// Event is delivered to subscribers of a Controller
type Event interface {
	Name() string
}

// ConnectionStateChanged is raised on every command channel state transition
type ConnectionStateChanged struct {
	transceiver.StateChange
}

func (ConnectionStateChanged) Name() string { return "ConnectionStateChanged" }

// StateChanged is raised for every telemetry datagram
type StateChanged struct {
	Telemetry *telemetry.Telemetry
	Position  position.Estimate
}

func (StateChanged) Name() string { return "StateChanged" }

// ResponseReceived is raised when a command completes. Err is set when the
// drone replied with an error, did not reply in time or the reply was not understood.
type ResponseReceived struct {
	RequestID uuid.UUID
	Command   *command.Command
	Response  string
	Elapsed   time.Duration
	Err       error
}

func (ResponseReceived) Name() string { return "ResponseReceived" }

// ValueReceived is raised in addition to ResponseReceived for read commands
type ValueReceived struct {
	RequestID uuid.UUID
	Command   *command.Command
	Value     *command.Value
}

func (ValueReceived) Name() string { return "ValueReceived" }

// ExceptionThrown is raised when a command could not be sent
type ExceptionThrown struct {
	RequestID uuid.UUID
	Command   *command.Command
	Err       error
}

func (ExceptionThrown) Name() string { return "ExceptionThrown" }

// PositionChanged is raised when the position estimate is updated. The estimate
// is derived from commanded movements and is not confirmed until the drone
// acknowledged the movement.
type PositionChanged struct {
	Estimate position.Estimate
	Command  *command.Command
}

func (PositionChanged) Name() string { return "PositionChanged" }

// VideoSampleReady is raised with all frames composed since the previous sample
type VideoSampleReady struct {
	Sample *video.Sample
}

func (VideoSampleReady) Name() string { return "VideoSampleReady" }
