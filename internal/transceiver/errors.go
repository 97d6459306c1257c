package transceiver

import (
	"errors"
	"fmt"
)

var (
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrNotConnected       = errors.New("not connected")
	ErrTimeout            = errors.New("response timeout")
	ErrInvalidState       = errors.New("invalid connection state")
)

// ConnectionError is returned when the command channel could not be opened or used
type ConnectionError struct {
	Op   string
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
