package flight

import (
	"time"

	"github.com/roman-kulish/tello-pilot/internal/command"
	"github.com/roman-kulish/tello-pilot/internal/position"
	"github.com/roman-kulish/tello-pilot/internal/record"
)

// movementEffect returns how cmd changes the horizontal position, false for
// commands that leave it unchanged (vertical moves, flips, control commands).
func movementEffect(cmd *command.Command) (func(position.Vector) position.Vector, bool) {
	move := func(d position.Direction) func(position.Vector) position.Vector {
		distance := float64(cmd.IntArg(0))
		return func(v position.Vector) position.Vector { return v.Move(d, distance) }
	}
	turn := func(cw position.Clockwiseness) func(position.Vector) position.Vector {
		degrees := float64(cmd.IntArg(0))
		return func(v position.Vector) position.Vector { return v.Turn(cw, degrees) }
	}
	offset := func(x, y int) func(position.Vector) position.Vector {
		return func(v position.Vector) position.Vector { return v.Offset(float64(x), float64(y)) }
	}

	switch cmd.Kind() {
	case command.Forward:
		return move(position.Front), true
	case command.Back:
		return move(position.Back), true
	case command.Left:
		return move(position.Left), true
	case command.Right:
		return move(position.Right), true
	case command.Clockwise:
		return turn(position.Clockwise), true
	case command.CounterClockwise:
		return turn(position.CounterClockwise), true
	case command.Go:
		return offset(cmd.IntArg(0), cmd.IntArg(1)), true
	case command.Curve:
		return offset(cmd.IntArg(3), cmd.IntArg(4)), true
	default:
		return nil, false
	}
}

// applyMovement updates the estimate once the queue accepts the command, ahead
// of the drone acknowledging it.
func (c *Controller) applyMovement(cmd *command.Command) {
	effect, ok := movementEffect(cmd)
	if !ok {
		return
	}

	c.posMu.Lock()
	next := position.Estimate{
		Vector:    effect(c.pos.Load().Vector),
		UpdatedAt: time.Now(),
	}
	c.pos.Store(&next)
	c.lastMovement = cmd
	c.posMu.Unlock()

	c.positionChanged(next, cmd)
}

// confirmMovement marks the estimate confirmed once the last applied movement is acknowledged
func (c *Controller) confirmMovement(cmd *command.Command) {
	c.posMu.Lock()
	if c.lastMovement != cmd {
		c.posMu.Unlock()
		return
	}
	next := *c.pos.Load()
	next.Confirmed = true
	next.UpdatedAt = time.Now()
	c.pos.Store(&next)
	c.lastMovement = nil
	c.posMu.Unlock()

	c.positionChanged(next, cmd)
}

// ResetPosition moves the estimate back to the origin, e.g. after the drone was carried
func (c *Controller) ResetPosition() {
	c.posMu.Lock()
	next := position.Estimate{Confirmed: true, UpdatedAt: time.Now()}
	c.pos.Store(&next)
	c.lastMovement = nil
	c.posMu.Unlock()

	c.positionChanged(next, nil)
}

func (c *Controller) positionChanged(e position.Estimate, cmd *command.Command) {
	c.events.Publish(PositionChanged{Estimate: e, Command: cmd})

	var text string
	if cmd != nil {
		text = cmd.String()
	}
	c.record(record.Position{FlightID: c.flightID, Estimate: e, Command: text})
}
