package telemetry

import (
	"context"
	"net"
	"testing"
	"time"
)

const sample = "mid:-1;x:0;y:0;z:0;mpry:0,0,0;pitch:2;roll:-1;yaw:45;vgx:1;vgy:0;vgz:-2;templ:83;temph:85;tof:10;h:120;bat:87;baro:187.24;time:15;agx:-5.00;agy:-1.00;agz:-999.00;\r\n"

func TestParse(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	got := Parse(sample, at)

	want := Telemetry{
		Timestamp:    at,
		Pitch:        2,
		Roll:         -1,
		Yaw:          45,
		SpeedX:       1,
		SpeedZ:       -2,
		AccelX:       -5,
		AccelY:       -1,
		AccelZ:       -999,
		TempLow:      83,
		TempHigh:     85,
		TimeOfFlight: 10,
		Height:       120,
		Battery:      87,
		Barometer:    187.24,
		MotorTime:    15,
		MissionPad:   MissionPad{ID: NoMissionPad},
		Raw:          sample[:len(sample)-2],
	}

	if *got != want {
		t.Errorf("Parse() =\n%+v\nwant\n%+v", *got, want)
	}
	if got.MissionPad.Detected() {
		t.Error("MissionPad.Detected() = true for mid:-1")
	}
}

func TestParse_Partial(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		check func(*Telemetry) bool
	}{
		{"empty", "", func(t *Telemetry) bool { return t.Battery == 0 && t.MissionPad.ID == NoMissionPad }},
		{"missing keys default to zero", "bat:50;", func(t *Telemetry) bool { return t.Battery == 50 && t.Height == 0 }},
		{"malformed value", "bat:abc;h:30", func(t *Telemetry) bool { return t.Battery == 0 && t.Height == 30 }},
		{"unknown key ignored", "foo:1;bar;h:10", func(t *Telemetry) bool { return t.Height == 10 }},
		{"decimal integer", "bat:90.00", func(t *Telemetry) bool { return t.Battery == 90 }},
		{"mission pad", "mid:4;x:10;y:-20;z:80;mpry:1,2,3", func(t *Telemetry) bool {
			return t.MissionPad == MissionPad{ID: 4, X: 10, Y: -20, Z: 80, Pitch: 1, Roll: 2, Yaw: 3}
		}},
		{"malformed mpry", "mpry:1,2", func(t *Telemetry) bool { return t.MissionPad.Pitch == 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.line, time.Now()); !tt.check(got) {
				t.Errorf("Parse(%q) = %+v", tt.line, got)
			}
		})
	}
}

func TestListener(t *testing.T) {
	l := NewListener(WithAddr("127.0.0.1:0"))

	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer l.Close()

	updates, unsubscribe := l.Updates(4)
	defer unsubscribe()

	if l.Get() != nil {
		t.Error("Get() not nil before the first datagram")
	}

	conn, err := net.Dial("udp", l.LocalAddr().String())
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	defer conn.Close()

	if _, err = conn.Write([]byte(sample)); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	select {
	case got := <-updates:
		if got.Battery != 87 || got.Height != 120 {
			t.Errorf("Update = %+v", got)
		}
		if l.Get() != got {
			t.Error("Get() does not return the latest snapshot")
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for telemetry update")
	}

	var p Provider = l
	if p.Get() == nil {
		t.Error("Provider.Get() returned nil")
	}
}
