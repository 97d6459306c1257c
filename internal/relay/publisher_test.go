package relay

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/roman-kulish/tello-pilot/internal/record"
)

func TestPublisher_FormatKey(t *testing.T) {
	tests := []struct {
		prefix string
		parts  []string
		want   string
	}{
		{"", []string{"telemetry"}, "tello:telemetry"},
		{"drone1", []string{"latest"}, "drone1:latest"},
		{"drone1", []string{"flight", "abc"}, "drone1:flight:abc"},
	}

	for _, tt := range tests {
		p := NewPublisher(Config{Prefix: tt.prefix})
		if got := p.FormatKey(tt.parts...); got != tt.want {
			t.Errorf("FormatKey(%v) = %q, want %q", tt.parts, got, tt.want)
		}
	}
}

func TestPublisher_Disabled(t *testing.T) {
	p := NewPublisher(Config{Enabled: false, Addr: "127.0.0.1:1"})
	defer p.Close()

	if p.Enabled() {
		t.Fatal("Enabled() = true for disabled config")
	}

	ctx := context.Background()
	if err := p.Connect(ctx); err != nil {
		t.Errorf("Connect() failed: %v", err)
	}
	if err := p.Write(ctx, record.Response{FlightID: uuid.New(), Command: "land"}); err != nil {
		t.Errorf("Write() failed: %v", err)
	}
}

func TestPublisher_Unreachable(t *testing.T) {
	p := NewPublisher(Config{Enabled: true, Addr: "127.0.0.1:1"})
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := p.Connect(ctx); err == nil {
		t.Error("Connect() to unreachable server succeeded")
	}
	if err := p.Write(ctx, record.Response{FlightID: uuid.New(), Command: "land"}); err == nil {
		t.Error("Write() to unreachable server succeeded")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled", Config{}, false},
		{"enabled", Config{Enabled: true, Addr: "localhost:6379"}, false},
		{"missing addr", Config{Enabled: true}, true},
		{"negative db", Config{Enabled: true, Addr: "localhost:6379", DB: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
