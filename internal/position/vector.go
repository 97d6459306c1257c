package position

import (
	"fmt"
	"math"
	"time"
)

const (
	Front Direction = iota
	Right
	Back
	Left
)

const (
	Clockwise Clockwiseness = iota
	CounterClockwise
)

// precision used to round coordinates, keeps trigonometry noise out of the estimate
const precision = 1000

// Direction of a move relative to the current heading
type Direction int

func (d Direction) String() string {
	switch d {
	case Front:
		return "front"
	case Right:
		return "right"
	case Back:
		return "back"
	case Left:
		return "left"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// offset is the heading offset of the direction in degrees, clockwise
func (d Direction) offset() float64 {
	return float64(d%4) * 90
}

// Clockwiseness is the sense of a turn
type Clockwiseness int

func (c Clockwiseness) String() string {
	if c == CounterClockwise {
		return "counter-clockwise"
	}
	return "clockwise"
}

// Vector is a dead-reckoned position on the horizontal plane.
// X grows along heading 0, Y along heading 90; headings grow clockwise and
// are kept within [0, 360). Distances are in centimeters.
type Vector struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
}

// Move returns the vector moved by distance in direction relative to the heading
func (v Vector) Move(direction Direction, distance float64) Vector {
	rad := normalize(v.Heading+direction.offset()) * math.Pi / 180

	return Vector{
		X:       round(v.X + distance*math.Cos(rad)),
		Y:       round(v.Y + distance*math.Sin(rad)),
		Heading: v.Heading,
	}
}

// Turn returns the vector rotated by degrees
func (v Vector) Turn(c Clockwiseness, degrees float64) Vector {
	if c == CounterClockwise {
		degrees = -degrees
	}
	return Vector{
		X:       v.X,
		Y:       v.Y,
		Heading: normalize(v.Heading + degrees),
	}
}

// Offset returns the vector moved by forward and left distances, as used by
// the go and curve commands which address points in the drone's body frame.
func (v Vector) Offset(forward, left float64) Vector {
	return v.Move(Front, forward).Move(Left, left)
}

func (v Vector) String() string {
	return fmt.Sprintf("(%.1f, %.1f, %.1f°)", v.X, v.Y, v.Heading)
}

// Estimate is a position derived from commanded movements, not from sensors.
// Confirmed is true only once the drone acknowledged the last applied movement.
type Estimate struct {
	Vector
	Confirmed bool      `json:"confirmed"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func normalize(degrees float64) float64 {
	h := math.Mod(degrees, 360)
	if h < 0 {
		h += 360
	}
	h = round(h)
	if h >= 360 {
		h = 0
	}
	return h
}

func round(f float64) float64 {
	r := math.Round(f*precision) / precision
	if r == 0 {
		return 0 // avoid negative zero
	}
	return r
}
