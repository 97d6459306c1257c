package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/roman-kulish/tello-pilot/internal/command"
	"github.com/roman-kulish/tello-pilot/internal/event"
	"github.com/roman-kulish/tello-pilot/internal/transceiver"
)

var (
	ErrStopped = errors.New("queue stopped")
	ErrRunning = errors.New("queue already running")
)

// Sender sends a request over the command channel
type Sender interface {
	Send(ctx context.Context, req transceiver.Request) (*transceiver.Response, error)
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) func(*Processor) {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithResultHandler sets a function called with every result from the
// sending goroutine, before the ticket completes and the result is published.
func WithResultHandler(fn func(Result)) func(*Processor) {
	return func(p *Processor) {
		p.handler = fn
	}
}

// WithAcceptHandler sets a function called with every command the queue
// accepts. Queued commands are handed to it under the queue lock, so the calls
// follow the order the commands are sent in and precede their results.
func WithAcceptHandler(fn func(*command.Command)) func(*Processor) {
	return func(p *Processor) {
		p.accept = fn
	}
}

// Processor sends commands to the drone. Commands without arguments are sent
// inline by the caller; everything else is queued and sent by a single worker
// in submission order, one at a time.
type Processor struct {
	sender  Sender
	handler func(Result)
	accept  func(*command.Command)
	logger  *slog.Logger
	results *event.Hub[Result]

	mu      sync.Mutex // guards pending
	pending []*Ticket
	wake    chan struct{}

	running atomic.Bool
	stopped atomic.Bool

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New creates a new Processor
func New(sender Sender, opts ...func(*Processor)) *Processor {
	p := &Processor{
		sender:  sender,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		results: event.NewHub[Result](),
		wake:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start starts the worker draining queued commands
func (p *Processor) Start(ctx context.Context) error {
	if p.stopped.Load() {
		return ErrStopped
	}
	if !p.running.CompareAndSwap(false, true) {
		return ErrRunning
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.results.Start()

	p.wg.Add(1)
	go p.run(ctx)

	return nil
}

// Stop stops the worker. Commands still pending are completed with ErrStopped.
func (p *Processor) Stop() {
	if !p.stopped.CompareAndSwap(false, true) {
		return
	}

	if p.running.Load() {
		p.cancel()
		p.wg.Wait()
	}

	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	for _, t := range pending {
		t.complete(Result{ID: t.ID, Command: t.Command, Err: ErrStopped})
	}

	p.results.Close()
}

// Results subscribes to the results of all sent commands
func (p *Processor) Results(buffer int) (<-chan Result, func()) {
	return p.results.Subscribe(buffer)
}

// Len returns the number of queued commands not yet sent
func (p *Processor) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.pending)
}

// Submit sends an immediate command before returning or queues any other command.
// The returned Ticket completes when the command result is available.
func (p *Processor) Submit(ctx context.Context, cmd *command.Command) (*Ticket, error) {
	if p.stopped.Load() {
		return nil, ErrStopped
	}

	t := newTicket(cmd)
	if cmd.Immediate() {
		p.accepted(cmd)
		p.finish(t, p.send(ctx, t.ID, cmd))
		return t, nil
	}

	p.mu.Lock()
	if p.stopped.Load() {
		p.mu.Unlock()
		return nil, ErrStopped
	}
	p.pending = append(p.pending, t)
	p.accepted(cmd)
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}

	p.logger.Debug("command queued", slog.String("command", cmd.String()), slog.String("id", t.ID.String()))
	return t, nil
}

func (p *Processor) run(ctx context.Context) {
	defer p.wg.Done()

	for {
		t, ok := p.next()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-p.wake:
				continue
			}
		}

		if ctx.Err() != nil {
			p.requeue(t)
			return
		}

		p.finish(t, p.send(ctx, t.ID, t.Command))
	}
}

func (p *Processor) accepted(cmd *command.Command) {
	if p.accept != nil {
		p.accept(cmd)
	}
}

func (p *Processor) finish(t *Ticket, r Result) {
	if p.handler != nil {
		p.handler(r)
	}
	t.complete(r)
	p.results.Publish(r)
}

func (p *Processor) next() (*Ticket, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.pending) == 0 {
		return nil, false
	}

	t := p.pending[0]
	p.pending[0] = nil
	p.pending = p.pending[1:]
	return t, true
}

func (p *Processor) requeue(t *Ticket) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending = append([]*Ticket{t}, p.pending...)
}

func (p *Processor) send(ctx context.Context, id uuid.UUID, cmd *command.Command) Result {
	req := transceiver.Request{
		ID:      id,
		Data:    cmd.Bytes(),
		Timeout: cmd.Timeout(),
		NoReply: cmd.Rule().Response() == command.ResponseNone,
	}

	r := Result{ID: id, Command: cmd}

	resp, err := p.sender.Send(ctx, req)
	if err != nil {
		r.Err = fmt.Errorf("sending %q: %w", cmd.String(), err)
		p.logger.Error("command failed", slog.String("command", cmd.String()), slog.Any("error", err))
		return r
	}

	r.Response = resp
	return r
}
