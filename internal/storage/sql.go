package storage

import (
	_ "embed"
)

const (
	insertFlightSQL = `
INSERT INTO flights (
                     id,
                     start_time,
                     drone_addr,
                     config)
VALUES (?, ?, ?, ?)`

	selectFlightSQL = `
SELECT
    id,
    start_time,
    drone_addr,
    config
FROM flights
WHERE
    id = ?`

	selectFlightsSQL = `
SELECT
    id,
    start_time,
    drone_addr,
    config
FROM flights
ORDER BY start_time`

	insertTelemetrySQL = `
INSERT INTO telemetry (flight_id,
                       timestamp,
                       pitch,
                       roll,
                       yaw,
                       speed_x,
                       speed_y,
                       speed_z,
                       accel_x,
                       accel_y,
                       accel_z,
                       temp_low,
                       temp_high,
                       time_of_flight,
                       height,
                       battery,
                       barometer,
                       motor_time,
                       mission_pad_id,
                       raw)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	insertResponseSQL = `
INSERT INTO responses (flight_id,
                       request_id,
                       timestamp,
                       command,
                       body,
                       elapsed_ms,
                       error)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	insertPositionSQL = `
INSERT INTO positions (flight_id,
                       timestamp,
                       x,
                       y,
                       heading,
                       confirmed,
                       command)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	selectPositionsSQL = `
SELECT
    timestamp,
    x,
    y,
    heading,
    confirmed,
    command
FROM positions
WHERE
    flight_id = ?
ORDER BY id`

	selectSummarySQL = `
SELECT
    (SELECT COUNT(*) FROM telemetry WHERE flight_id = ?1),
    (SELECT COUNT(*) FROM responses WHERE flight_id = ?1),
    (SELECT COUNT(*) FROM responses WHERE flight_id = ?1 AND error IS NOT NULL),
    (SELECT MIN(battery) FROM telemetry WHERE flight_id = ?1),
    (SELECT MAX(height) FROM telemetry WHERE flight_id = ?1),
    (SELECT MAX(timestamp) FROM telemetry WHERE flight_id = ?1)`
)

//go:embed schema.sql
var initSchemaSQL string

//go:embed indexes.sql
var initIndexesSQL string
