package event

import (
	"testing"
	"time"
)

func TestHub_NotDeliveredBeforeStart(t *testing.T) {
	hub := NewHub[int]()
	defer hub.Close()

	ch, unsubscribe := hub.Subscribe(4)
	defer unsubscribe()

	hub.Publish(1)
	select {
	case v := <-ch:
		t.Fatalf("Received %d before Start", v)
	default:
	}

	hub.Start()
	hub.Publish(2)

	select {
	case v := <-ch:
		if v != 2 {
			t.Errorf("Expected 2, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for value")
	}
}

func TestHub_NonBlockingPublish(t *testing.T) {
	hub := NewHub[int]()
	hub.Start()
	defer hub.Close()

	_, unsubscribe := hub.Subscribe(1)
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		hub.Publish(1)
		hub.Publish(2) // buffer full, dropped
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Publish blocked (should be non-blocking)")
	}

	if dropped := hub.Dropped(); dropped != 1 {
		t.Errorf("Expected 1 dropped value, got %d", dropped)
	}
	if published := hub.Published(); published != 2 {
		t.Errorf("Expected 2 published values, got %d", published)
	}
}

func TestHub_UnsubscribeAndClose(t *testing.T) {
	hub := NewHub[string]()
	hub.Start()

	ch1, unsubscribe1 := hub.Subscribe(1)
	ch2, _ := hub.Subscribe(1)

	unsubscribe1()
	unsubscribe1() // idempotent

	if _, ok := <-ch1; ok {
		t.Error("Expected closed channel after unsubscribe")
	}

	hub.Close()
	if _, ok := <-ch2; ok {
		t.Error("Expected closed channel after Close")
	}

	hub.Publish("ignored") // must not panic

	ch3, _ := hub.Subscribe(1)
	if _, ok := <-ch3; ok {
		t.Error("Expected closed channel when subscribing to a closed hub")
	}
}
