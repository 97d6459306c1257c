package transceiver

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

// fakeDrone answers "ok" to every datagram except "hang", which it ignores
func fakeDrone(t *testing.T) *net.UDPConn {
	t.Helper()

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	go func() {
		buf := make([]byte, 1024)
		for {
			n, addr, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			switch string(buf[:n]) {
			case "hang":
			case "battery?":
				_, _ = conn.WriteToUDP([]byte("87\r\n"), addr)
			default:
				_, _ = conn.WriteToUDP([]byte("ok"), addr)
			}
		}
	}()

	return conn
}

func newTestTransceiver(t *testing.T, remote string) *Transceiver {
	t.Helper()

	tr := New(
		WithRemoteAddr(remote),
		WithLocalAddr("127.0.0.1:0"),
	)
	t.Cleanup(func() { _ = tr.Disconnect() })
	return tr
}

func TestTransceiver_SendReceive(t *testing.T) {
	drone := fakeDrone(t)
	tr := newTestTransceiver(t, drone.LocalAddr().String())

	ctx := context.Background()
	if err := tr.Connect(ctx); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}

	req := NewRequest([]byte("command"), time.Second)
	resp, err := tr.Send(ctx, req)
	if err != nil {
		t.Fatalf("Send() failed: %v", err)
	}
	if !resp.Success() {
		t.Fatalf("Send() response error: %v", resp.Err)
	}
	if resp.RequestID != req.ID {
		t.Errorf("RequestID = %s, want %s", resp.RequestID, req.ID)
	}
	if resp.Text() != "ok" {
		t.Errorf("Text() = %q, want %q", resp.Text(), "ok")
	}

	resp, err = tr.Send(ctx, NewRequest([]byte("battery?"), time.Second))
	if err != nil || !resp.Success() {
		t.Fatalf("Send(battery?) failed: %v %v", err, resp.Err)
	}
	if resp.Text() != "87\r\n" {
		t.Errorf("Text() = %q, want %q", resp.Text(), "87\r\n")
	}
}

func TestTransceiver_Timeout(t *testing.T) {
	drone := fakeDrone(t)
	tr := newTestTransceiver(t, drone.LocalAddr().String())

	ctx := context.Background()
	if err := tr.Connect(ctx); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}

	start := time.Now()
	resp, err := tr.Send(ctx, NewRequest([]byte("hang"), 50*time.Millisecond))
	if err != nil {
		t.Fatalf("Send() failed: %v", err)
	}
	if !errors.Is(resp.Err, ErrTimeout) {
		t.Fatalf("Response.Err = %v, want ErrTimeout", resp.Err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond || elapsed > time.Second {
		t.Errorf("Timeout after %v, expected about 50ms", elapsed)
	}

	// the channel keeps working after a timeout
	resp, err = tr.Send(ctx, NewRequest([]byte("takeoff"), time.Second))
	if err != nil || !resp.Success() || resp.Text() != "ok" {
		t.Fatalf("Send() after timeout = %+v, %v", resp, err)
	}
}

func TestTransceiver_NoReply(t *testing.T) {
	drone := fakeDrone(t)
	tr := newTestTransceiver(t, drone.LocalAddr().String())

	ctx := context.Background()
	if err := tr.Connect(ctx); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}

	req := NewRequest([]byte("hang"), time.Second)
	req.NoReply = true

	resp, err := tr.Send(ctx, req)
	if err != nil {
		t.Fatalf("Send() failed: %v", err)
	}
	if !resp.Success() || len(resp.Body) != 0 {
		t.Errorf("Send() = %+v, want empty successful response", resp)
	}
}

func TestTransceiver_NotConnected(t *testing.T) {
	tr := New()

	resp, err := tr.Send(context.Background(), NewRequest([]byte("command"), time.Second))
	if err != nil {
		t.Fatalf("Send() failed: %v", err)
	}
	if !errors.Is(resp.Err, ErrNotConnected) {
		t.Errorf("Response.Err = %v, want ErrNotConnected", resp.Err)
	}

	var connErr *ConnectionError
	if !errors.As(resp.Err, &connErr) {
		t.Errorf("Response.Err %T is not a *ConnectionError", resp.Err)
	}
}

func TestTransceiver_NetworkUnavailable(t *testing.T) {
	tr := New(
		WithRemoteAddr("127.0.0.1:8889"),
		WithNetworkProbe(func(net.IP) error { return ErrNetworkUnavailable }),
	)

	changes, unsubscribe := tr.StateChanges(4)
	defer unsubscribe()

	err := tr.Connect(context.Background())
	if !errors.Is(err, ErrNetworkUnavailable) {
		t.Fatalf("Connect() error = %v, want ErrNetworkUnavailable", err)
	}
	if tr.State() != Disconnected {
		t.Errorf("State() = %s, want disconnected", tr.State())
	}

	select {
	case c := <-changes:
		t.Errorf("Unexpected state change %s -> %s", c.From, c.To)
	default:
	}
}

func TestTransceiver_StateTransitions(t *testing.T) {
	drone := fakeDrone(t)
	tr := newTestTransceiver(t, drone.LocalAddr().String())

	changes, unsubscribe := tr.StateChanges(8)
	defer unsubscribe()

	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	if err := tr.ClearError(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("ClearError() while connected = %v, want ErrInvalidState", err)
	}
	if err := tr.Disconnect(); err != nil {
		t.Fatalf("Disconnect() failed: %v", err)
	}

	want := []ConnectionState{Connecting, Connected, Disconnected}
	for _, state := range want {
		select {
		case c := <-changes:
			if c.To != state {
				t.Errorf("State change to %s, want %s", c.To, state)
			}
		case <-time.After(time.Second):
			t.Fatalf("Timeout waiting for %s", state)
		}
	}
}

func TestTransceiver_BindFailure(t *testing.T) {
	drone := fakeDrone(t)

	// the drone socket is already bound, so binding to it again must fail
	tr := New(
		WithRemoteAddr("127.0.0.1:9"),
		WithLocalAddr(drone.LocalAddr().String()),
	)

	err := tr.Connect(context.Background())
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("Connect() error = %v, want *ConnectionError", err)
	}
	if tr.State() != Error {
		t.Fatalf("State() = %s, want error", tr.State())
	}
	if err = tr.Connect(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Connect() from error state = %v, want ErrInvalidState", err)
	}
	if err = tr.ClearError(); err != nil {
		t.Fatalf("ClearError() failed: %v", err)
	}
	if tr.State() != Disconnected {
		t.Errorf("State() = %s, want disconnected", tr.State())
	}
}
