package transceiver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roman-kulish/tello-pilot/internal/event"
)

const (
	DefaultRemoteAddr = "192.168.10.1:8889"
	DefaultLocalAddr  = ":8889"
	DefaultTimeout    = 5 * time.Second

	maxDatagramSize = 2048
	datagramBacklog = 8
)

// Request is a single command datagram
type Request struct {
	ID      uuid.UUID
	Data    []byte
	Timeout time.Duration

	// NoReply requests are fire-and-forget, the drone does not answer them
	NoReply bool
}

// NewRequest creates a new Request with a random ID
func NewRequest(data []byte, timeout time.Duration) Request {
	return Request{
		ID:      uuid.New(),
		Data:    data,
		Timeout: timeout,
	}
}

// Response to a Request. Err is set when the request failed without a reply:
// ErrNotConnected or ErrTimeout.
type Response struct {
	RequestID uuid.UUID
	Body      []byte
	Elapsed   time.Duration
	Err       error
}

// Success returns true if a reply was received or none was expected
func (r *Response) Success() bool {
	return r.Err == nil
}

// Text returns the body as a string
func (r *Response) Text() string {
	return string(r.Body)
}

// Transceiver owns the command channel. It sends one request at a time and
// correlates the next datagram from the drone with it.
type Transceiver struct {
	remoteAddr string
	localAddr  string
	probe      NetworkProbe
	logger     *slog.Logger
	changes    *event.Hub[StateChange]

	mu        sync.Mutex // guards state and connection
	state     ConnectionState
	conn      *net.UDPConn
	datagrams chan []byte
	readDone  chan struct{}

	inflight sync.Mutex // serializes requests, the channel is half-duplex
}

// WithRemoteAddr sets the drone command address
func WithRemoteAddr(addr string) func(*Transceiver) {
	return func(t *Transceiver) {
		t.remoteAddr = addr
	}
}

// WithLocalAddr sets the local address the command socket binds to
func WithLocalAddr(addr string) func(*Transceiver) {
	return func(t *Transceiver) {
		t.localAddr = addr
	}
}

// WithNetworkProbe replaces the network availability check
func WithNetworkProbe(probe NetworkProbe) func(*Transceiver) {
	return func(t *Transceiver) {
		t.probe = probe
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) func(*Transceiver) {
	return func(t *Transceiver) {
		t.logger = logger
	}
}

// New creates a new disconnected Transceiver
func New(opts ...func(*Transceiver)) *Transceiver {
	t := &Transceiver{
		remoteAddr: DefaultRemoteAddr,
		localAddr:  DefaultLocalAddr,
		probe:      InterfaceProbe,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		changes:    event.NewHub[StateChange](),
		state:      Disconnected,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.changes.Start()
	return t
}

// StateChanges subscribes to connection state transitions
func (t *Transceiver) StateChanges(buffer int) (<-chan StateChange, func()) {
	return t.changes.Subscribe(buffer)
}

// State returns the current connection state
func (t *Transceiver) State() ConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state
}

// Connect opens the command channel. The network probe runs first; when it
// fails the state is left untouched and no socket is opened.
func (t *Transceiver) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case Connected:
		return nil
	case Disconnected:
	default:
		return fmt.Errorf("connect from %s: %w", t.state, ErrInvalidState)
	}

	remote, err := net.ResolveUDPAddr("udp", t.remoteAddr)
	if err != nil {
		return &ConnectionError{Op: "resolve", Addr: t.remoteAddr, Err: err}
	}

	if err = t.probe(remote.IP); err != nil {
		t.logger.Warn("drone network unavailable", slog.String("addr", t.remoteAddr), slog.Any("error", err))
		return &ConnectionError{Op: "probe", Addr: t.remoteAddr, Err: err}
	}

	t.setState(Connecting, nil)

	local, err := net.ResolveUDPAddr("udp", t.localAddr)
	if err != nil {
		t.setState(Error, err)
		return &ConnectionError{Op: "resolve", Addr: t.localAddr, Err: err}
	}

	dialer := net.Dialer{LocalAddr: local}
	c, err := dialer.DialContext(ctx, "udp", remote.String())
	if err != nil {
		t.setState(Error, err)
		return &ConnectionError{Op: "dial", Addr: t.remoteAddr, Err: err}
	}

	t.conn = c.(*net.UDPConn)
	t.datagrams = make(chan []byte, datagramBacklog)
	t.readDone = make(chan struct{})

	go t.readLoop(t.conn, t.datagrams, t.readDone)

	t.setState(Connected, nil)
	t.logger.Info("command channel connected",
		slog.String("local", t.conn.LocalAddr().String()),
		slog.String("remote", t.remoteAddr))

	return nil
}

// Disconnect closes the command channel
func (t *Transceiver) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case Disconnected:
		return nil
	case Connected:
	default:
		return fmt.Errorf("disconnect from %s: %w", t.state, ErrInvalidState)
	}

	err := t.conn.Close()
	<-t.readDone

	t.conn = nil
	t.setState(Disconnected, nil)

	if err != nil {
		return fmt.Errorf("closing command channel: %w", err)
	}
	return nil
}

// ClearError moves the transceiver from Error back to Disconnected
func (t *Transceiver) ClearError() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Error {
		return fmt.Errorf("clear error from %s: %w", t.state, ErrInvalidState)
	}

	t.setState(Disconnected, nil)
	return nil
}

// Send writes the request and waits for a reply. Failures without a reply
// (not connected, timeout) are reported through Response.Err; the returned
// error is reserved for socket and context errors.
func (t *Transceiver) Send(ctx context.Context, req Request) (*Response, error) {
	t.mu.Lock()
	state, conn, datagrams := t.state, t.conn, t.datagrams
	t.mu.Unlock()

	if state != Connected {
		return &Response{
			RequestID: req.ID,
			Err:       &ConnectionError{Op: "send", Addr: t.remoteAddr, Err: ErrNotConnected},
		}, nil
	}

	t.inflight.Lock()
	defer t.inflight.Unlock()

	t.drain(datagrams)

	logger := t.logger.With(slog.String("request", req.ID.String()))
	logger.Debug("sending request", slog.String("data", string(req.Data)))

	start := time.Now()
	if _, err := conn.Write(req.Data); err != nil {
		return nil, fmt.Errorf("writing request %s: %w", req.ID, err)
	}

	if req.NoReply {
		return &Response{RequestID: req.ID, Elapsed: time.Since(start)}, nil
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case body, ok := <-datagrams:
		resp := &Response{RequestID: req.ID, Elapsed: time.Since(start)}
		if !ok {
			resp.Err = &ConnectionError{Op: "receive", Addr: t.remoteAddr, Err: ErrNotConnected}
			return resp, nil
		}
		resp.Body = body
		logger.Debug("received response", slog.String("body", string(body)), slog.Duration("elapsed", resp.Elapsed))
		return resp, nil

	case <-timer.C:
		logger.Warn("request timed out", slog.Duration("timeout", timeout))
		return &Response{RequestID: req.ID, Elapsed: time.Since(start), Err: ErrTimeout}, nil

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// drain discards datagrams left over from earlier requests that timed out
func (t *Transceiver) drain(datagrams <-chan []byte) {
	for {
		select {
		case body, ok := <-datagrams:
			if !ok {
				return
			}
			t.logger.Warn("discarding stale response", slog.String("body", string(body)))
		default:
			return
		}
	}
}

func (t *Transceiver) readLoop(conn *net.UDPConn, datagrams chan<- []byte, done chan<- struct{}) {
	defer close(done)
	defer close(datagrams)

	buf := make([]byte, maxDatagramSize)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			// ICMP port unreachable surfaces here while the drone is not listening yet
			t.logger.Debug("reading command channel", slog.Any("error", err))
			continue
		}

		body := make([]byte, n)
		copy(body, buf[:n])

		select {
		case datagrams <- body:
		default:
			t.logger.Warn("response backlog full, dropping datagram", slog.String("body", string(body)))
		}
	}
}

// setState must be called with mu held
func (t *Transceiver) setState(to ConnectionState, err error) {
	from := t.state
	if from == to {
		return
	}
	t.state = to

	t.logger.Debug("connection state changed", slog.String("from", from.String()), slog.String("to", to.String()))
	t.changes.Publish(StateChange{From: from, To: to, Err: err, At: time.Now()})
}
