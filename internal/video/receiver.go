package video

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/tello-pilot/internal/udp"
)

// DefaultAddr is the address the drone streams video to
const DefaultAddr = ":11111"

// ReceiverOption configures a Receiver
type ReceiverOption func(*Receiver)

// WithReceiverAddr sets the local address to listen on
func WithReceiverAddr(addr string) ReceiverOption {
	return func(r *Receiver) {
		r.addr = addr
	}
}

// WithStatsInterval sets how often stream statistics are logged, zero disables it
func WithStatsInterval(interval time.Duration) ReceiverOption {
	return func(r *Receiver) {
		r.statsInterval = interval
	}
}

// WithReceiverLogger sets logger
func WithReceiverLogger(logger *slog.Logger) ReceiverOption {
	return func(r *Receiver) {
		r.logger = logger
	}
}

// Receiver listens on the video port and hands every datagram to the Composer
type Receiver struct {
	addr          string
	statsInterval time.Duration
	logger        *slog.Logger

	composer *Composer
	udp      *udp.Listener

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewReceiver creates a new Receiver feeding composer
func NewReceiver(composer *Composer, opts ...ReceiverOption) *Receiver {
	r := &Receiver{
		addr:          DefaultAddr,
		statsInterval: 30 * time.Second,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		composer:      composer,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.udp = udp.NewListener(r.addr, composer, udp.WithLogger(r.logger.With(slog.String("channel", "video"))))
	return r
}

// Start binds the video port
func (r *Receiver) Start(ctx context.Context) error {
	if err := r.udp.Start(ctx); err != nil {
		return err
	}

	if r.statsInterval > 0 {
		ctx, r.cancel = context.WithCancel(ctx)

		r.wg.Add(1)
		go r.reportStats(ctx)
	}

	return nil
}

// Stop stops listening and flushes the frame being accumulated
func (r *Receiver) Stop() {
	if r.cancel != nil {
		r.cancel()
		r.wg.Wait()
		r.cancel = nil
	}

	r.udp.Stop()
	r.composer.Flush()
}

// LocalAddr returns the bound address, or nil when not listening
func (r *Receiver) LocalAddr() net.Addr {
	return r.udp.LocalAddr()
}

// Stats returns the number of datagrams and bytes received
func (r *Receiver) Stats() udp.Stats {
	return r.udp.Stats()
}

func (r *Receiver) reportStats(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.statsInterval)
	defer ticker.Stop()

	var last udp.Stats
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := r.udp.Stats()
			rate := float64(stats.Bytes-last.Bytes) / r.statsInterval.Seconds()
			last = stats

			r.logger.Info("video stream",
				slog.String("received", humanize.Bytes(stats.Bytes)),
				slog.String("rate", humanize.Bytes(uint64(rate))+"/s"),
				slog.String("datagrams", humanize.Comma(int64(stats.Datagrams))),
				slog.Uint64("frames", r.composer.Frames()),
				slog.Uint64("dropped", r.composer.Dropped()),
			)
		}
	}
}
