package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/tello-pilot/internal/record"
)

// ErrNoFlight is returned when the requested flight does not exist
var ErrNoFlight = errors.New("flight not found")

// Store provides an interface for managing recorded flight data.
// It handles flights, telemetry snapshots, command responses and position estimates
// in a thread-safe manner. All operations that write to the database should be
// considered atomic.
type Store interface {
	record.Writer

	// CreateFlight registers a new flight and returns its unique identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - droneAddr: Command address of the drone (e.g., "192.168.10.1:8889")
	//   - config: Optional flight configuration. Can be string, []byte, or JSON-serializable object
	//
	// Returns:
	//   - flightID: Unique identifier for the created flight
	//   - error: If flight creation fails or context is cancelled
	CreateFlight(ctx context.Context, droneAddr string, config any) (flightID uuid.UUID, err error)

	// Flight retrieves a specific flight by its ID.
	//
	// Returns ErrNoFlight if the flight does not exist.
	Flight(ctx context.Context, id uuid.UUID) (flight *Flight, err error)

	// Flights returns all flights stored in the database.
	// Results are ordered by start time in ascending order.
	Flights(ctx context.Context) (flights []*Flight, err error)

	// Positions returns the position estimates of a flight in the order they were recorded.
	Positions(ctx context.Context, flightID uuid.UUID) (positions []record.Position, err error)

	// Summary aggregates the telemetry and responses recorded during a flight.
	Summary(ctx context.Context, flightID uuid.UUID) (summary *Summary, err error)

	// Close releases all database connections and resources.
	// After Close is called, the store instance cannot be reused.
	// It is safe to call Close multiple times.
	Close() error
}
