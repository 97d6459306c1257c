package transceiver

import (
	"fmt"
	"time"
)

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
	Error
)

// ConnectionState of the command channel.
// Disconnected -> Connecting -> Connected -> Disconnected, or Connecting -> Error
// on socket failure. Error is left only through ClearError.
type ConnectionState int

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("ConnectionState(%d)", int(s))
	}
}

// StateChange is published on every connection state transition
type StateChange struct {
	From ConnectionState
	To   ConnectionState
	Err  error
	At   time.Time
}
