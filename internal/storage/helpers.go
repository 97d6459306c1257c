package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roman-kulish/tello-pilot/internal/record"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && *err == nil && !errors.Is(cErr, sql.ErrTxDone) {
		*err = cErr
	}
}

func toConfigData(config any) (sql.NullString, error) {
	var configData sql.NullString

	switch c := config.(type) {
	case nil:
	case string:
		configData.Valid = true
		configData.String = c

	case []byte:
		configData.Valid = true
		configData.String = string(c)

	default:
		p, err := json.Marshal(c)
		if err != nil {
			return configData, fmt.Errorf("marshaling config: %w", err)
		}

		configData.Valid = true
		configData.String = string(p)
	}

	return configData, nil
}

func toTelemetryData(r record.Telemetry) *telemetryData {
	t := r.Snapshot

	var padID sql.NullInt64
	if t.MissionPad.Detected() {
		padID.Int64 = int64(t.MissionPad.ID)
		padID.Valid = true
	}

	return &telemetryData{
		FlightID:     r.FlightID,
		Timestamp:    t.Timestamp.UTC(),
		Pitch:        t.Pitch,
		Roll:         t.Roll,
		Yaw:          t.Yaw,
		SpeedX:       t.SpeedX,
		SpeedY:       t.SpeedY,
		SpeedZ:       t.SpeedZ,
		AccelX:       t.AccelX,
		AccelY:       t.AccelY,
		AccelZ:       t.AccelZ,
		TempLow:      t.TempLow,
		TempHigh:     t.TempHigh,
		TimeOfFlight: t.TimeOfFlight,
		Height:       t.Height,
		Battery:      t.Battery,
		Barometer:    t.Barometer,
		MotorTime:    t.MotorTime,
		MissionPadID: padID,
		Raw:          t.Raw,
	}
}

func toResponseData(r record.Response) *responseData {
	var errData sql.NullString
	if r.Failed() {
		errData.String = r.Error
		errData.Valid = true
	}

	return &responseData{
		FlightID:  r.FlightID,
		RequestID: r.RequestID,
		Timestamp: r.Timestamp.UTC(),
		Command:   r.Command,
		Body:      r.Body,
		ElapsedMS: r.Elapsed.Milliseconds(),
		Error:     errData,
	}
}

func toPositionData(r record.Position) *positionData {
	return &positionData{
		FlightID:  r.FlightID,
		Timestamp: r.Estimate.UpdatedAt.UTC(),
		X:         r.Estimate.X,
		Y:         r.Estimate.Y,
		Heading:   r.Estimate.Heading,
		Confirmed: r.Estimate.Confirmed,
		Command:   r.Command,
	}
}
