package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/roman-kulish/tello-pilot/internal/command"
	"github.com/roman-kulish/tello-pilot/internal/transceiver"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []string
	fail map[string]error
}

func (s *recordingSender) Send(_ context.Context, req transceiver.Request) (*transceiver.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent = append(s.sent, string(req.Data))
	if err, ok := s.fail[string(req.Data)]; ok {
		return nil, err
	}
	return &transceiver.Response{RequestID: req.ID, Body: []byte("ok")}, nil
}

func (s *recordingSender) Sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.sent...)
}

func mustCommand(t *testing.T, kind command.Kind, args ...any) *command.Command {
	t.Helper()

	cmd, err := command.DefaultRuleSet().Validate(kind, args...)
	if err != nil {
		t.Fatalf("Validate(%s) failed: %v", kind, err)
	}
	return cmd
}

func waitTicket(t *testing.T, ticket *Ticket) Result {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	r, err := ticket.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() failed: %v", err)
	}
	return r
}

func TestProcessor_ImmediateBeforeQueued(t *testing.T) {
	sender := &recordingSender{}
	p := New(sender)
	defer p.Stop()

	ctx := context.Background()

	t2, err := p.Submit(ctx, mustCommand(t, command.Forward, 100))
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	t3, err := p.Submit(ctx, mustCommand(t, command.Clockwise, 90))
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if p.Len() != 2 {
		t.Errorf("Len() = %d, want 2", p.Len())
	}

	t1, err := p.Submit(ctx, mustCommand(t, command.TakeOff))
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if _, ok := t1.Result(); !ok {
		t.Fatal("Immediate command result not available after Submit")
	}

	if err = p.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	waitTicket(t, t2)
	if r := waitTicket(t, t3); r.Failed() {
		t.Errorf("Result failed: %+v", r)
	}

	want := []string{"takeoff", "forward 100", "cw 90"}
	got := sender.Sent()
	if len(got) != len(want) {
		t.Fatalf("Sent %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Sent[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if p.Len() != 0 {
		t.Errorf("Len() = %d, want 0", p.Len())
	}
}

func TestProcessor_ExceptionDoesNotStopWorker(t *testing.T) {
	boom := errors.New("socket closed")
	sender := &recordingSender{fail: map[string]error{"up 50": boom}}

	p := New(sender)
	defer p.Stop()

	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	results, unsubscribe := p.Results(4)
	defer unsubscribe()

	failed, _ := p.Submit(ctx, mustCommand(t, command.Up, 50))
	next, _ := p.Submit(ctx, mustCommand(t, command.Down, 50))

	if r := waitTicket(t, failed); !errors.Is(r.Err, boom) {
		t.Errorf("Result.Err = %v, want %v", r.Err, boom)
	}
	if r := waitTicket(t, next); r.Failed() {
		t.Errorf("Result after exception failed: %+v", r)
	}

	for i := 0; i < 2; i++ {
		select {
		case <-results:
		case <-time.After(time.Second):
			t.Fatal("Timeout waiting for published result")
		}
	}
}

func TestProcessor_RcDoesNotExpectReply(t *testing.T) {
	var got transceiver.Request
	sender := senderFunc(func(_ context.Context, req transceiver.Request) (*transceiver.Response, error) {
		got = req
		return &transceiver.Response{RequestID: req.ID}, nil
	})

	p := New(sender)
	defer p.Stop()

	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	ticket, err := p.Submit(ctx, mustCommand(t, command.SetRemoteControl, 0, 0, 10, 0))
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	waitTicket(t, ticket)

	if !got.NoReply {
		t.Error("rc request expects a reply")
	}
	if got.ID != ticket.ID {
		t.Errorf("Request ID = %s, want %s", got.ID, ticket.ID)
	}
}

func TestProcessor_Stop(t *testing.T) {
	p := New(&recordingSender{})

	ctx := context.Background()
	pending, err := p.Submit(ctx, mustCommand(t, command.Left, 30))
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	p.Stop()

	if r := waitTicket(t, pending); !errors.Is(r.Err, ErrStopped) {
		t.Errorf("Pending result error = %v, want ErrStopped", r.Err)
	}
	if _, err = p.Submit(ctx, mustCommand(t, command.Land)); !errors.Is(err, ErrStopped) {
		t.Errorf("Submit() after Stop error = %v, want ErrStopped", err)
	}
	if err = p.Start(ctx); !errors.Is(err, ErrStopped) {
		t.Errorf("Start() after Stop error = %v, want ErrStopped", err)
	}
}

type senderFunc func(context.Context, transceiver.Request) (*transceiver.Response, error)

func (f senderFunc) Send(ctx context.Context, req transceiver.Request) (*transceiver.Response, error) {
	return f(ctx, req)
}

func TestProcessor_ResultHandlerRunsBeforeCompletion(t *testing.T) {
	var handled []string
	p := New(&recordingSender{}, WithResultHandler(func(r Result) {
		handled = append(handled, r.Command.String())
	}))
	defer p.Stop()

	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	_, err := p.Submit(ctx, mustCommand(t, command.EnterSDKMode))
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if len(handled) != 1 || handled[0] != "command" {
		t.Fatalf("Handled %v after immediate Submit, want [command]", handled)
	}

	ticket, err := p.Submit(ctx, mustCommand(t, command.Forward, 20))
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	waitTicket(t, ticket)

	if len(handled) != 2 || handled[1] != "forward 20" {
		t.Errorf("Handled %v, want [command forward 20]", handled)
	}
}

func TestProcessor_AcceptHandler(t *testing.T) {
	var accepted []string
	p := New(&recordingSender{}, WithAcceptHandler(func(cmd *command.Command) {
		accepted = append(accepted, cmd.String())
	}))

	ctx := context.Background()
	for _, cmd := range []*command.Command{
		mustCommand(t, command.Forward, 50),
		mustCommand(t, command.Clockwise, 90),
		mustCommand(t, command.Land),
	} {
		if _, err := p.Submit(ctx, cmd); err != nil {
			t.Fatalf("Submit(%s) failed: %v", cmd, err)
		}
	}

	p.Stop()

	if _, err := p.Submit(ctx, mustCommand(t, command.Back, 50)); !errors.Is(err, ErrStopped) {
		t.Fatalf("Submit() after Stop error = %v, want ErrStopped", err)
	}

	want := []string{"forward 50", "cw 90", "land"}
	if len(accepted) != len(want) {
		t.Fatalf("Accepted %v, want %v", accepted, want)
	}
	for i := range want {
		if accepted[i] != want[i] {
			t.Errorf("Accepted %v, want %v", accepted, want)
			break
		}
	}
}
