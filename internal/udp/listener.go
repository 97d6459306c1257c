package udp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
)

// MaxDatagramSize is large enough for any datagram the drone sends
const MaxDatagramSize = 2048

// Handler receives datagrams read by a Listener. The slice is only valid for
// the duration of the call.
type Handler interface {
	Handle(datagram []byte)
}

// HandlerFunc adapts a function to the Handler interface
type HandlerFunc func(datagram []byte)

func (f HandlerFunc) Handle(datagram []byte) {
	f(datagram)
}

// Stats of a Listener
type Stats struct {
	Datagrams uint64
	Bytes     uint64
}

// WithLogger sets the logger for the listener
func WithLogger(logger *slog.Logger) func(l *Listener) {
	return func(l *Listener) {
		l.logger = logger
	}
}

// Listener reads datagrams pushed by the drone on a single port and hands
// them to its Handler from one goroutine, in arrival order.
type Listener struct {
	addr    string
	handler Handler
	logger  *slog.Logger

	mu   sync.Mutex // guards conn
	conn *net.UDPConn

	isListening atomic.Bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup

	datagrams atomic.Uint64
	bytes     atomic.Uint64
}

// NewListener creates a new Listener with a discard logger
func NewListener(addr string, h Handler, options ...func(l *Listener)) *Listener {
	l := Listener{
		addr:    addr,
		handler: h,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&l)
	}

	return &l
}

// Start binds the port and starts reading datagrams until ctx is done or Stop is called
func (l *Listener) Start(ctx context.Context) error {
	if !l.isListening.CompareAndSwap(false, true) {
		return fmt.Errorf("listener on %s is already running", l.addr)
	}

	addr, err := net.ResolveUDPAddr("udp", l.addr)
	if err != nil {
		l.isListening.Store(false)
		return fmt.Errorf("resolving %s: %w", l.addr, err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		l.isListening.Store(false)
		return fmt.Errorf("listening on %s: %w", l.addr, err)
	}

	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()

	ctx, l.cancel = context.WithCancel(ctx)

	l.wg.Add(2)
	go func() {
		defer l.wg.Done()

		<-ctx.Done()
		_ = conn.Close() // unblocks the reader
	}()
	go l.read(ctx, conn)

	l.logger.Info("listening", slog.String("addr", conn.LocalAddr().String()))
	return nil
}

// Stop closes the socket and waits for the reader to finish
func (l *Listener) Stop() {
	if !l.isListening.Load() {
		return // already stopped
	}

	l.cancel()
	l.wg.Wait()

	l.mu.Lock()
	l.conn = nil
	l.mu.Unlock()

	l.isListening.Store(false)
}

// IsListening returns true if the listener is running
func (l *Listener) IsListening() bool {
	return l.isListening.Load()
}

// LocalAddr returns the bound address, or nil when not listening
func (l *Listener) LocalAddr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

// Stats returns the number of datagrams and bytes received
func (l *Listener) Stats() Stats {
	return Stats{
		Datagrams: l.datagrams.Load(),
		Bytes:     l.bytes.Load(),
	}
}

func (l *Listener) read(ctx context.Context, conn *net.UDPConn) {
	defer l.wg.Done()

	buf := make([]byte, MaxDatagramSize)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				l.logger.Info("listener stopped", slog.String("addr", l.addr))
				return
			}
			l.logger.Warn("error reading datagram", slog.Any("error", err))
			continue
		}

		l.datagrams.Add(1)
		l.bytes.Add(uint64(n))

		l.handler.Handle(buf[:n])
	}
}
