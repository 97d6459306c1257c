package udp

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestListener_DeliversDatagrams(t *testing.T) {
	received := make(chan string, 4)
	l := NewListener("127.0.0.1:0", HandlerFunc(func(d []byte) {
		received <- string(d)
	}))

	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer l.Stop()

	conn, err := net.Dial("udp", l.LocalAddr().String())
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	defer conn.Close()

	for _, msg := range []string{"one", "two"} {
		if _, err = conn.Write([]byte(msg)); err != nil {
			t.Fatalf("Write() failed: %v", err)
		}
	}

	for _, want := range []string{"one", "two"} {
		select {
		case got := <-received:
			if got != want {
				t.Errorf("Received %q, want %q", got, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("Timeout waiting for %q", want)
		}
	}

	if stats := l.Stats(); stats.Datagrams != 2 || stats.Bytes != 6 {
		t.Errorf("Stats() = %+v, want 2 datagrams and 6 bytes", stats)
	}
}

func TestListener_StartStop(t *testing.T) {
	l := NewListener("127.0.0.1:0", HandlerFunc(func([]byte) {}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if err := l.Start(ctx); err == nil {
		t.Error("Expected error starting a running listener")
	}
	if !l.IsListening() {
		t.Error("IsListening() = false after Start")
	}

	l.Stop()
	l.Stop() // idempotent

	if l.IsListening() {
		t.Error("IsListening() = true after Stop")
	}
	if l.LocalAddr() != nil {
		t.Error("LocalAddr() not nil after Stop")
	}

	// can be restarted
	if err := l.Start(ctx); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	l.Stop()
}
