package video

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roman-kulish/tello-pilot/internal/ringbuffer"
)

const (
	DefaultFrameRate  = 30
	DefaultBufferSize = 120 // 4 seconds at the default frame rate
)

// WithFrameRate sets the frame rate used to derive frame time indexes
func WithFrameRate(fps int) func(*Composer) {
	return func(c *Composer) {
		c.frameRate = fps
	}
}

// WithBufferSize sets the number of frames kept before the oldest is overwritten
func WithBufferSize(size int) func(*Composer) {
	return func(c *Composer) {
		c.bufferSize = size
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) func(*Composer) {
	return func(c *Composer) {
		c.logger = logger
	}
}

// Composer assembles video fragments into frames. A fragment starting with a
// NALU start code closes the frame being accumulated and opens a new one.
// Completed frames go to a bounded ring buffer; when consumers fall behind the
// oldest frames are overwritten.
type Composer struct {
	frameRate  int
	bufferSize int
	logger     *slog.Logger

	mu      sync.Mutex // guards current and index
	current []byte
	open    bool
	index   uint64

	frames    *ringbuffer.RingBuffer[*Frame]
	discarded atomic.Uint64
}

// NewComposer creates a new Composer
func NewComposer(opts ...func(*Composer)) (*Composer, error) {
	c := &Composer{
		frameRate:  DefaultFrameRate,
		bufferSize: DefaultBufferSize,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.frameRate <= 0 {
		return nil, fmt.Errorf("invalid frame rate %d", c.frameRate)
	}

	frames, err := ringbuffer.New[*Frame](c.bufferSize)
	if err != nil {
		return nil, fmt.Errorf("creating frame buffer: %w", err)
	}
	c.frames = frames

	return c, nil
}

// Add appends a fragment. The fragment is copied.
func (c *Composer) Add(fragment []byte) {
	if len(fragment) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if HasStartCode(fragment) {
		if c.open {
			c.closeFrame()
		}
		c.open = true
		c.current = make([]byte, 0, len(fragment)*8)
	}

	if !c.open {
		c.discarded.Add(1)
		return
	}

	c.current = append(c.current, fragment...)
}

// Handle implements udp.Handler
func (c *Composer) Handle(datagram []byte) {
	c.Add(datagram)
}

// Flush closes the frame being accumulated, if any
func (c *Composer) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.open {
		c.closeFrame()
		c.open = false
		c.current = nil
	}
}

// closeFrame must be called with mu held
func (c *Composer) closeFrame() {
	duration := time.Second / time.Duration(c.frameRate)
	f := Frame{
		Content:   c.current,
		Index:     c.index,
		TimeIndex: time.Duration(c.index) * time.Second / time.Duration(c.frameRate),
		Duration:  duration,
		Keyframe:  IsKeyframe(c.current),
	}
	c.index++

	if c.frames.IsFull() {
		c.logger.Debug("frame buffer full, overwriting oldest frame")
	}
	c.frames.Push(&f)
}

// TryGetFrame returns the oldest buffered frame, waiting up to timeout for one to arrive
func (c *Composer) TryGetFrame(ctx context.Context, timeout time.Duration) (*Frame, bool) {
	deadline := time.Now().Add(timeout)
	for c.wait(ctx, time.Until(deadline)) {
		if f, ok := c.frames.Pop(); ok {
			return f, true
		}
		// another consumer took it
	}
	return nil, false
}

// TryGetSample waits up to timeout for at least one frame, then returns all
// buffered frames concatenated into a single sample.
func (c *Composer) TryGetSample(ctx context.Context, timeout time.Duration) (*Sample, bool) {
	deadline := time.Now().Add(timeout)
	for c.wait(ctx, time.Until(deadline)) {
		if frames := c.frames.Drain(); len(frames) > 0 {
			return newSample(frames), true
		}
	}
	return nil, false
}

// Buffered returns the number of frames waiting to be retrieved
func (c *Composer) Buffered() int {
	return c.frames.Len()
}

// Frames returns the number of frames composed so far
func (c *Composer) Frames() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.index
}

// Dropped returns the number of frames overwritten before they were retrieved
func (c *Composer) Dropped() uint64 {
	return c.frames.Dropped()
}

// Discarded returns the number of fragments received before the first start code
func (c *Composer) Discarded() uint64 {
	return c.discarded.Load()
}

// wait blocks until a frame is buffered, the timeout elapses or ctx is done
func (c *Composer) wait(ctx context.Context, timeout time.Duration) bool {
	if c.frames.Len() > 0 {
		return true
	}
	if timeout <= 0 {
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-c.frames.Notify():
			if c.frames.Len() > 0 {
				return true
			}
		case <-timer.C:
			return c.frames.Len() > 0
		case <-ctx.Done():
			return false
		}
	}
}
