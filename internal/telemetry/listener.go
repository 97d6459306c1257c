package telemetry

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/roman-kulish/tello-pilot/internal/event"
	"github.com/roman-kulish/tello-pilot/internal/udp"
)

// DefaultAddr is the address the drone pushes state datagrams to
const DefaultAddr = ":8890"

// WithAddr sets the local address to listen on
func WithAddr(addr string) func(*Listener) {
	return func(l *Listener) {
		l.addr = addr
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) func(*Listener) {
	return func(l *Listener) {
		l.logger = logger
	}
}

// Listener receives state datagrams, keeps the latest snapshot and publishes
// every snapshot to subscribers in arrival order.
type Listener struct {
	addr    string
	logger  *slog.Logger
	udp     *udp.Listener
	updates *event.Hub[*Telemetry]
	latest  atomic.Pointer[Telemetry]
}

// NewListener creates a new Listener
func NewListener(opts ...func(*Listener)) *Listener {
	l := &Listener{
		addr:    DefaultAddr,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		updates: event.NewHub[*Telemetry](),
	}
	for _, opt := range opts {
		opt(l)
	}

	l.udp = udp.NewListener(l.addr, udp.HandlerFunc(l.handle), udp.WithLogger(l.logger.With(slog.String("channel", "telemetry"))))
	return l
}

// Start binds the telemetry port
func (l *Listener) Start(ctx context.Context) error {
	if err := l.udp.Start(ctx); err != nil {
		return err
	}
	l.updates.Start()
	return nil
}

// Stop stops listening. Subscriptions stay open so the listener can be restarted.
func (l *Listener) Stop() {
	l.udp.Stop()
}

// Close stops listening and closes all subscriptions
func (l *Listener) Close() {
	l.udp.Stop()
	l.updates.Close()
}

// Updates subscribes to telemetry snapshots
func (l *Listener) Updates(buffer int) (<-chan *Telemetry, func()) {
	return l.updates.Subscribe(buffer)
}

// Get returns the latest snapshot, or nil if none was received yet
func (l *Listener) Get() *Telemetry {
	return l.latest.Load()
}

// LocalAddr returns the bound address, or nil when not listening
func (l *Listener) LocalAddr() net.Addr {
	return l.udp.LocalAddr()
}

// Stats returns the number of datagrams and bytes received
func (l *Listener) Stats() udp.Stats {
	return l.udp.Stats()
}

func (l *Listener) handle(datagram []byte) {
	t := Parse(string(datagram), time.Now())

	l.latest.Store(t)
	l.updates.Publish(t)
}
