package storage

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Flight is a recorded flight
type Flight struct {
	ID        uuid.UUID
	StartTime time.Time
	DroneAddr string
	Config    *string
}

// Summary aggregates what was recorded during a flight
type Summary struct {
	Telemetry  int64
	Responses  int64
	Failed     int64
	MinBattery sql.NullInt64
	MaxHeight  sql.NullInt64
	LastSeen   sql.NullString
}

type telemetryData struct {
	FlightID     uuid.UUID
	Timestamp    time.Time
	Pitch        int
	Roll         int
	Yaw          int
	SpeedX       int
	SpeedY       int
	SpeedZ       int
	AccelX       float64
	AccelY       float64
	AccelZ       float64
	TempLow      int
	TempHigh     int
	TimeOfFlight int
	Height       int
	Battery      int
	Barometer    float64
	MotorTime    int
	MissionPadID sql.NullInt64
	Raw          string
}

type responseData struct {
	FlightID  uuid.UUID
	RequestID uuid.UUID
	Timestamp time.Time
	Command   string
	Body      string
	ElapsedMS int64
	Error     sql.NullString
}

type positionData struct {
	FlightID  uuid.UUID
	Timestamp time.Time
	X         float64
	Y         float64
	Heading   float64
	Confirmed bool
	Command   string
}
