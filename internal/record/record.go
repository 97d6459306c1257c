package record

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/roman-kulish/tello-pilot/internal/position"
	"github.com/roman-kulish/tello-pilot/internal/telemetry"
)

const (
	TypeTelemetry Type = "telemetry"
	TypeResponse  Type = "response"
	TypePosition  Type = "position"
)

// Type of record
type Type string

// Record is a flight event handed to a Writer
type Record interface {
	Type() Type
	Flight() uuid.UUID
	Time() time.Time
}

// Writer persists or forwards records
type Writer interface {
	Write(ctx context.Context, r Record) error
}

// Telemetry is a telemetry snapshot taken during a flight
type Telemetry struct {
	FlightID uuid.UUID            `json:"flightId"`
	Snapshot *telemetry.Telemetry `json:"snapshot"`
}

func (t Telemetry) Type() Type        { return TypeTelemetry }
func (t Telemetry) Flight() uuid.UUID { return t.FlightID }
func (t Telemetry) Time() time.Time   { return t.Snapshot.Timestamp }

// Response is the outcome of a command sent to the drone
type Response struct {
	FlightID  uuid.UUID     `json:"flightId"`
	RequestID uuid.UUID     `json:"requestId"`
	Command   string        `json:"command"`
	Body      string        `json:"body"`
	Elapsed   time.Duration `json:"elapsed"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

func (r Response) Type() Type        { return TypeResponse }
func (r Response) Flight() uuid.UUID { return r.FlightID }
func (r Response) Time() time.Time   { return r.Timestamp }

// Failed returns true if the command did not succeed
func (r Response) Failed() bool {
	return r.Error != ""
}

// Position is a dead-reckoned position estimate, updated by Command
type Position struct {
	FlightID uuid.UUID         `json:"flightId"`
	Estimate position.Estimate `json:"estimate"`
	Command  string            `json:"command"`
}

func (p Position) Type() Type        { return TypePosition }
func (p Position) Flight() uuid.UUID { return p.FlightID }
func (p Position) Time() time.Time   { return p.Estimate.UpdatedAt }

// MultiWriter writes every record to all writers, a failing writer does not
// prevent the others from receiving the record.
type MultiWriter []Writer

func (m MultiWriter) Write(ctx context.Context, r Record) error {
	var errs []error
	for _, w := range m {
		if err := w.Write(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

