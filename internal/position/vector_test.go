package position

import "testing"

func TestVector_SquareFlight(t *testing.T) {
	v := Vector{}

	steps := []struct {
		name string
		fn   func(Vector) Vector
		want Vector
	}{
		{"front 1", func(v Vector) Vector { return v.Move(Front, 100) }, Vector{100, 0, 0}},
		{"turn 1", func(v Vector) Vector { return v.Turn(Clockwise, 90) }, Vector{100, 0, 90}},
		{"front 2", func(v Vector) Vector { return v.Move(Front, 100) }, Vector{100, 100, 90}},
		{"turn 2", func(v Vector) Vector { return v.Turn(Clockwise, 90) }, Vector{100, 100, 180}},
		{"front 3", func(v Vector) Vector { return v.Move(Front, 100) }, Vector{0, 100, 180}},
		{"turn 3", func(v Vector) Vector { return v.Turn(Clockwise, 90) }, Vector{0, 100, 270}},
		{"front 4", func(v Vector) Vector { return v.Move(Front, 100) }, Vector{0, 0, 270}},
	}

	for _, step := range steps {
		v = step.fn(v)
		if v != step.want {
			t.Fatalf("%s: got %s, want %s", step.name, v, step.want)
		}
	}
}

func TestVector_Directions(t *testing.T) {
	start := Vector{Heading: 90}

	tests := []struct {
		direction Direction
		want      Vector
	}{
		{Front, Vector{0, 50, 90}},
		{Right, Vector{-50, 0, 90}},
		{Back, Vector{0, -50, 90}},
		{Left, Vector{50, 0, 90}},
	}

	for _, tt := range tests {
		t.Run(tt.direction.String(), func(t *testing.T) {
			if got := start.Move(tt.direction, 50); got != tt.want {
				t.Errorf("Move(%s, 50) = %s, want %s", tt.direction, got, tt.want)
			}
		})
	}
}

func TestVector_TurnNormalization(t *testing.T) {
	tests := []struct {
		name    string
		heading float64
		c       Clockwiseness
		degrees float64
		want    float64
	}{
		{"wrap clockwise", 270, Clockwise, 180, 90},
		{"full circle", 0, Clockwise, 360, 0},
		{"counter-clockwise below zero", 0, CounterClockwise, 90, 270},
		{"counter-clockwise", 180, CounterClockwise, 45, 135},
		{"many turns", 10, Clockwise, 1090, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Vector{Heading: tt.heading}.Turn(tt.c, tt.degrees)
			if got.Heading != tt.want {
				t.Errorf("Turn() heading = %v, want %v", got.Heading, tt.want)
			}
			if got.Heading < 0 || got.Heading >= 360 {
				t.Errorf("heading %v outside [0, 360)", got.Heading)
			}
		})
	}
}

func TestVector_Offset(t *testing.T) {
	got := Vector{}.Offset(100, 50)
	if want := (Vector{100, -50, 0}); got != want {
		t.Errorf("Offset(100, 50) = %s, want %s", got, want)
	}
}
