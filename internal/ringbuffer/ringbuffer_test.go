package ringbuffer

import (
	"reflect"
	"sync"
	"testing"
	"time"
)

func TestRingBuffer_OverwriteOldest(t *testing.T) {
	rb, err := New[int](3)
	if err != nil {
		t.Fatalf("Failed to create buffer: %v", err)
	}

	for i := 1; i <= 4; i++ {
		rb.Push(i)
	}

	if size := rb.Len(); size != 3 {
		t.Errorf("Expected buffer size 3, got %d", size)
	}
	if !rb.IsFull() {
		t.Error("Buffer should be full")
	}
	if dropped := rb.Dropped(); dropped != 1 {
		t.Errorf("Expected 1 dropped item, got %d", dropped)
	}

	if got, want := rb.ToSlice(), []int{2, 3, 4}; !reflect.DeepEqual(got, want) {
		t.Errorf("ToSlice() = %v, want %v", got, want)
	}

	oldest, ok := rb.Peek()
	if !ok || oldest != 2 {
		t.Errorf("Peek() = %d, %v, want 2, true", oldest, ok)
	}
}

func TestRingBuffer_WrapAroundOrder(t *testing.T) {
	rb, err := New[string](4)
	if err != nil {
		t.Fatalf("Failed to create buffer: %v", err)
	}

	for _, s := range []string{"a", "b", "c"} {
		rb.Push(s)
	}
	if v, _ := rb.Pop(); v != "a" {
		t.Fatalf("Pop() = %q, want a", v)
	}
	if v, _ := rb.Pop(); v != "b" {
		t.Fatalf("Pop() = %q, want b", v)
	}
	for _, s := range []string{"d", "e", "f", "g"} {
		rb.Push(s)
	}

	// head wrapped past the end of the backing array
	if got, want := rb.ToSlice(), []string{"d", "e", "f", "g"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ToSlice() = %v, want %v", got, want)
	}

	if got, want := rb.Drain(), []string{"d", "e", "f", "g"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Drain() = %v, want %v", got, want)
	}
	if rb.Len() != 0 {
		t.Errorf("Expected empty buffer after Drain, got %d", rb.Len())
	}
}

func TestRingBuffer_EdgeCases(t *testing.T) {
	if _, err := New[int](0); err == nil {
		t.Error("Expected error for zero capacity")
	}
	if _, err := New[int](-1); err == nil {
		t.Error("Expected error for negative capacity")
	}

	rb, err := New[int](2)
	if err != nil {
		t.Fatalf("Failed to create buffer: %v", err)
	}

	if _, ok := rb.Pop(); ok {
		t.Error("Pop on empty buffer should return false")
	}
	if _, ok := rb.Peek(); ok {
		t.Error("Peek on empty buffer should return false")
	}
	if rb.Drain() != nil {
		t.Error("Drain on empty buffer should return nil")
	}
	if len(rb.ToSlice()) != 0 {
		t.Error("ToSlice on empty buffer should be empty")
	}

	rb.Push(1)
	rb.Clear()
	if rb.Len() != 0 {
		t.Errorf("Expected empty buffer after Clear, got %d", rb.Len())
	}
	if rb.Cap() != 2 {
		t.Errorf("Expected capacity 2, got %d", rb.Cap())
	}
}

func TestRingBuffer_Notify(t *testing.T) {
	rb, err := New[int](2)
	if err != nil {
		t.Fatalf("Failed to create buffer: %v", err)
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		rb.Push(42)
	}()

	select {
	case <-rb.Notify():
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for push notification")
	}

	if v, ok := rb.Pop(); !ok || v != 42 {
		t.Errorf("Pop() = %d, %v, want 42, true", v, ok)
	}
}

func TestRingBuffer_ConcurrentAccess(t *testing.T) {
	rb, err := New[int](16)
	if err != nil {
		t.Fatalf("Failed to create buffer: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			rb.Push(i)
		}
	}()
	for i := 0; i < 2; i++ {
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				rb.Pop()
				_ = rb.Len()
			}
		}()
	}
	wg.Wait()

	if n := rb.Len(); n < 0 || n > rb.Cap() {
		t.Errorf("Buffer size out of bounds: %d", n)
	}
}
