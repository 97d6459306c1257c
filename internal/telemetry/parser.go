package telemetry

import (
	"strconv"
	"strings"
	"time"
)

// Parse parses a state datagram such as
//
//	mid:-1;x:0;y:0;z:0;mpry:0,0,0;pitch:0;roll:0;yaw:0;vgx:0;vgy:0;vgz:0;templ:83;temph:85;tof:10;h:0;bat:90;baro:187.24;time:0;agx:-5.00;agy:-1.00;agz:-999.00;
//
// Unknown keys are ignored. Missing or malformed values are left at zero so a
// partial datagram still yields a usable snapshot. The mission pad ID defaults
// to "not detected".
func Parse(line string, at time.Time) *Telemetry {
	line = strings.TrimSpace(line)

	t := Telemetry{
		Timestamp:  at,
		MissionPad: MissionPad{ID: NoMissionPad},
		Raw:        line,
	}

	for _, pair := range strings.Split(line, ";") {
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "mid":
			t.MissionPad.ID = parseInt(value, NoMissionPad)
		case "x":
			t.MissionPad.X = parseInt(value, 0)
		case "y":
			t.MissionPad.Y = parseInt(value, 0)
		case "z":
			t.MissionPad.Z = parseInt(value, 0)
		case "mpry":
			parts := strings.Split(value, ",")
			if len(parts) == 3 {
				t.MissionPad.Pitch = parseInt(parts[0], 0)
				t.MissionPad.Roll = parseInt(parts[1], 0)
				t.MissionPad.Yaw = parseInt(parts[2], 0)
			}
		case "pitch":
			t.Pitch = parseInt(value, 0)
		case "roll":
			t.Roll = parseInt(value, 0)
		case "yaw":
			t.Yaw = parseInt(value, 0)
		case "vgx":
			t.SpeedX = parseInt(value, 0)
		case "vgy":
			t.SpeedY = parseInt(value, 0)
		case "vgz":
			t.SpeedZ = parseInt(value, 0)
		case "templ":
			t.TempLow = parseInt(value, 0)
		case "temph":
			t.TempHigh = parseInt(value, 0)
		case "tof":
			t.TimeOfFlight = parseInt(value, 0)
		case "h":
			t.Height = parseInt(value, 0)
		case "bat":
			t.Battery = parseInt(value, 0)
		case "baro":
			t.Barometer = parseFloat(value)
		case "time":
			t.MotorTime = parseInt(value, 0)
		case "agx":
			t.AccelX = parseFloat(value)
		case "agy":
			t.AccelY = parseFloat(value)
		case "agz":
			t.AccelZ = parseFloat(value)
		}
	}

	return &t
}

// parseInt accepts integers and decimals, some firmware versions report "90.00"
func parseInt(s string, def int) int {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return def
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
