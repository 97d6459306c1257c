package video

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"
)

func fragment(start bool, payload ...byte) []byte {
	if !start {
		return payload
	}
	return append(append([]byte{}, StartCode...), payload...)
}

func newTestComposer(t *testing.T, opts ...func(*Composer)) *Composer {
	t.Helper()

	c, err := NewComposer(opts...)
	if err != nil {
		t.Fatalf("NewComposer() failed: %v", err)
	}
	return c
}

func TestComposer_FrameBoundaries(t *testing.T) {
	c := newTestComposer(t)

	c.Add(fragment(false, 0xAA))       // before the first start code, discarded
	c.Add(fragment(true, 0x41, 0x01))  // B
	c.Add(fragment(false, 0x02, 0x03)) // C
	c.Add(fragment(true, 0x41, 0x04))  // D closes B+C

	if c.Discarded() != 1 {
		t.Errorf("Discarded() = %d, want 1", c.Discarded())
	}
	if c.Buffered() != 1 {
		t.Fatalf("Buffered() = %d, want 1", c.Buffered())
	}

	f, ok := c.TryGetFrame(context.Background(), 10*time.Millisecond)
	if !ok {
		t.Fatal("TryGetFrame() found no frame")
	}

	want := append(fragment(true, 0x41, 0x01), 0x02, 0x03)
	if !bytes.Equal(f.Content, want) {
		t.Errorf("Content = % x, want % x", f.Content, want)
	}
	if f.Index != 0 || f.TimeIndex != 0 {
		t.Errorf("Index = %d, TimeIndex = %s, want 0, 0", f.Index, f.TimeIndex)
	}
	if f.Duration != time.Second/30 {
		t.Errorf("Duration = %s, want %s", f.Duration, time.Second/30)
	}
	if f.Keyframe {
		t.Error("Non-IDR slice reported as keyframe")
	}
}

func TestComposer_TimeIndexAndKeyframe(t *testing.T) {
	c := newTestComposer(t, WithFrameRate(10))

	c.Add(fragment(true, 0x67, 0x42)) // SPS
	c.Add(fragment(true, 0x65, 0x88)) // IDR
	c.Add(fragment(true, 0x41, 0x9a)) // slice
	c.Flush()

	wantKeyframe := []bool{true, true, false}
	for i, keyframe := range wantKeyframe {
		f, ok := c.TryGetFrame(context.Background(), 10*time.Millisecond)
		if !ok {
			t.Fatalf("Frame %d not found", i)
		}
		if f.Index != uint64(i) {
			t.Errorf("Index = %d, want %d", f.Index, i)
		}
		if want := time.Duration(i) * 100 * time.Millisecond; f.TimeIndex != want {
			t.Errorf("TimeIndex = %s, want %s", f.TimeIndex, want)
		}
		if f.Keyframe != keyframe {
			t.Errorf("Frame %d Keyframe = %v, want %v", i, f.Keyframe, keyframe)
		}
	}
}

func TestComposer_TryGetFrameTimeout(t *testing.T) {
	c := newTestComposer(t)

	start := time.Now()
	if _, ok := c.TryGetFrame(context.Background(), 50*time.Millisecond); ok {
		t.Fatal("TryGetFrame() on empty composer found a frame")
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("TryGetFrame() returned after %s, before the timeout", elapsed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := c.TryGetFrame(ctx, time.Minute); ok {
		t.Fatal("TryGetFrame() with cancelled context found a frame")
	}
}

func TestComposer_TryGetFrameWaits(t *testing.T) {
	c := newTestComposer(t)

	go func() {
		time.Sleep(20 * time.Millisecond)
		c.Add(fragment(true, 0x41))
		c.Add(fragment(true, 0x41))
	}()

	if _, ok := c.TryGetFrame(context.Background(), time.Second); !ok {
		t.Fatal("TryGetFrame() did not wait for the frame")
	}
}

func TestComposer_TryGetSample(t *testing.T) {
	c := newTestComposer(t)

	for i := byte(0); i < 4; i++ {
		c.Add(fragment(true, 0x41, i))
	}
	c.Flush()

	s, ok := c.TryGetSample(context.Background(), 10*time.Millisecond)
	if !ok {
		t.Fatal("TryGetSample() found no sample")
	}
	if s.Frames != 4 {
		t.Errorf("Frames = %d, want 4", s.Frames)
	}
	if s.Duration != 4*(time.Second/30) {
		t.Errorf("Duration = %s, want %s", s.Duration, 4*(time.Second/30))
	}
	if len(s.Content) != 4*6 {
		t.Errorf("len(Content) = %d, want %d", len(s.Content), 4*6)
	}
	if c.Buffered() != 0 {
		t.Errorf("Buffered() = %d after sample, want 0", c.Buffered())
	}
}

func TestComposer_OverwritesOldest(t *testing.T) {
	c := newTestComposer(t, WithBufferSize(2))

	for i := byte(0); i < 4; i++ {
		c.Add(fragment(true, 0x41, i))
	}
	c.Flush()

	if c.Dropped() != 2 {
		t.Errorf("Dropped() = %d, want 2", c.Dropped())
	}

	f, ok := c.TryGetFrame(context.Background(), 10*time.Millisecond)
	if !ok || f.Index != 2 {
		t.Errorf("Oldest frame = %v, want index 2", f)
	}
}

func TestIsKeyframe(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"idr", []byte{0, 0, 0, 1, 0x65}, true},
		{"sps", []byte{0, 0, 0, 1, 0x67, 0x42}, true},
		{"pps then idr, short start code", []byte{0, 0, 0, 1, 0x68, 0xce, 0, 0, 1, 0x65}, true},
		{"slice", []byte{0, 0, 0, 1, 0x41, 0x9a}, false},
		{"truncated", []byte{0, 0, 0, 1}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsKeyframe(tt.data); got != tt.want {
				t.Errorf("IsKeyframe(% x) = %v, want %v", tt.data, got, tt.want)
			}
		})
	}
}

func TestReceiver(t *testing.T) {
	c := newTestComposer(t)
	r := NewReceiver(c, WithReceiverAddr("127.0.0.1:0"), WithStatsInterval(0))

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer r.Stop()

	conn, err := net.Dial("udp", r.LocalAddr().String())
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	defer conn.Close()

	for _, f := range [][]byte{fragment(true, 0x65, 1), fragment(false, 2), fragment(true, 0x41, 3)} {
		if _, err = conn.Write(f); err != nil {
			t.Fatalf("Write() failed: %v", err)
		}
	}

	f, ok := c.TryGetFrame(context.Background(), time.Second)
	if !ok {
		t.Fatal("TryGetFrame() found no frame")
	}
	if !f.Keyframe || len(f.Content) != 7 {
		t.Errorf("Frame = %s keyframe=%v, want 7 byte keyframe", f, f.Keyframe)
	}
}
