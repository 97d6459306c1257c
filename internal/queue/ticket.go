package queue

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/roman-kulish/tello-pilot/internal/command"
	"github.com/roman-kulish/tello-pilot/internal/transceiver"
)

// Result of a submitted command. Response is nil when sending failed with an
// exception, which is then held in Err. Response.Err carries failures the
// transceiver reported without a reply, such as timeouts.
type Result struct {
	ID       uuid.UUID
	Command  *command.Command
	Response *transceiver.Response
	Err      error
}

// Failed returns true if the command failed for any reason
func (r Result) Failed() bool {
	return r.Err != nil || r.Response == nil || r.Response.Err != nil
}

// Ticket tracks a submitted command until its result is available
type Ticket struct {
	ID      uuid.UUID
	Command *command.Command

	once   sync.Once
	done   chan struct{}
	result Result
}

func newTicket(cmd *command.Command) *Ticket {
	return &Ticket{
		ID:      uuid.New(),
		Command: cmd,
		done:    make(chan struct{}),
	}
}

// Done is closed once the result is available
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the result is available or ctx is done
func (t *Ticket) Wait(ctx context.Context) (Result, error) {
	select {
	case <-t.done:
		return t.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Result returns the result if it is available
func (t *Ticket) Result() (Result, bool) {
	select {
	case <-t.done:
		return t.result, true
	default:
		return Result{}, false
	}
}

func (t *Ticket) complete(r Result) {
	t.once.Do(func() {
		t.result = r
		close(t.done)
	})
}
