package telemetry

import (
	"time"
)

// NoMissionPad is the mission pad ID reported when no pad is detected
const NoMissionPad = -1

type Provider interface {
	Get() *Telemetry
}

// MissionPad is the drone pose relative to a detected mission pad
type MissionPad struct {
	ID    int `json:"id"`    // Pad ID, -1 when no pad is detected
	X     int `json:"x"`     // X offset in cm
	Y     int `json:"y"`     // Y offset in cm
	Z     int `json:"z"`     // Z offset in cm
	Pitch int `json:"pitch"` // Pitch relative to the pad in degrees
	Roll  int `json:"roll"`  // Roll relative to the pad in degrees
	Yaw   int `json:"yaw"`   // Yaw relative to the pad in degrees
}

// Detected returns true if a mission pad is in sight
func (m MissionPad) Detected() bool {
	return m.ID != NoMissionPad
}

// Telemetry is the telemetry data from the drone sensors, one snapshot per state datagram
type Telemetry struct {
	Timestamp    time.Time  `json:"timestamp"`    // Time the datagram was received
	Pitch        int        `json:"pitch"`        // Pitch angle in degrees
	Roll         int        `json:"roll"`         // Roll angle in degrees
	Yaw          int        `json:"yaw"`          // Yaw angle in degrees
	SpeedX       int        `json:"speedX"`       // X-axis speed in dm/s
	SpeedY       int        `json:"speedY"`       // Y-axis speed in dm/s
	SpeedZ       int        `json:"speedZ"`       // Z-axis speed in dm/s
	AccelX       float64    `json:"accelX"`       // X-axis acceleration in 0.001g
	AccelY       float64    `json:"accelY"`       // Y-axis acceleration in 0.001g
	AccelZ       float64    `json:"accelZ"`       // Z-axis acceleration in 0.001g
	TempLow      int        `json:"tempLow"`      // Lowest temperature in °C
	TempHigh     int        `json:"tempHigh"`     // Highest temperature in °C
	TimeOfFlight int        `json:"timeOfFlight"` // Time-of-flight distance in cm
	Height       int        `json:"height"`       // Height in cm
	Battery      int        `json:"battery"`      // Battery percentage
	Barometer    float64    `json:"barometer"`    // Barometric altitude in cm
	MotorTime    int        `json:"motorTime"`    // Motor on time in seconds
	MissionPad   MissionPad `json:"missionPad"`   // Mission pad pose, when enabled
	Raw          string     `json:"raw"`          // Datagram text
}
