package app

import (
	"math"
	"time"

	"github.com/roman-kulish/tello-pilot/internal/record"
	"github.com/roman-kulish/tello-pilot/internal/storage"
)

// margin around the flown area, in centimeters
const trackMargin = 50.0

// TrackPoint is a single position estimate on the track
type TrackPoint struct {
	X, Y      float64 // centimeters
	Heading   float64
	Confirmed bool
	Time      time.Time
	Command   string
}

// Track is the dead-reckoned path of a flight together with its bounds
type Track struct {
	Flight  *storage.Flight
	Summary *storage.Summary
	Points  []TrackPoint

	MinX, MaxX float64
	MinY, MaxY float64

	TimestampStart time.Time
	TimestampEnd   time.Time
}

// NewTrack builds a track from recorded positions. The takeoff point is
// always included so the bounds contain the origin.
func NewTrack(flight *storage.Flight, summary *storage.Summary, positions []record.Position) *Track {
	t := Track{
		Flight:         flight,
		Summary:        summary,
		Points:         make([]TrackPoint, 0, len(positions)+1),
		TimestampStart: flight.StartTime,
		TimestampEnd:   flight.StartTime,
	}

	t.Points = append(t.Points, TrackPoint{Confirmed: true, Time: flight.StartTime})
	for _, p := range positions {
		t.Points = append(t.Points, TrackPoint{
			X:         p.Estimate.X,
			Y:         p.Estimate.Y,
			Heading:   p.Estimate.Heading,
			Confirmed: p.Estimate.Confirmed,
			Time:      p.Estimate.UpdatedAt,
			Command:   p.Command,
		})
	}

	for _, p := range t.Points {
		t.MinX = math.Min(t.MinX, p.X)
		t.MaxX = math.Max(t.MaxX, p.X)
		t.MinY = math.Min(t.MinY, p.Y)
		t.MaxY = math.Max(t.MaxY, p.Y)

		if p.Time.After(t.TimestampEnd) {
			t.TimestampEnd = p.Time
		}
	}

	t.MinX -= trackMargin
	t.MaxX += trackMargin
	t.MinY -= trackMargin
	t.MaxY += trackMargin

	return &t
}

// Distance returns the length of the flown path in centimeters
func (t *Track) Distance() float64 {
	var d float64
	for i := 1; i < len(t.Points); i++ {
		d += math.Hypot(t.Points[i].X-t.Points[i-1].X, t.Points[i].Y-t.Points[i-1].Y)
	}
	return d
}

// Width is the extent across the drone's initial heading, in centimeters
func (t *Track) Width() float64 {
	return t.MaxY - t.MinY
}

// Height is the extent along the drone's initial heading, in centimeters
func (t *Track) Height() float64 {
	return t.MaxX - t.MinX
}

// Last returns the final point of the track
func (t *Track) Last() TrackPoint {
	return t.Points[len(t.Points)-1]
}
