package flight

import (
	"context"
	"fmt"
	"math"

	"github.com/roman-kulish/tello-pilot/internal/command"
	"github.com/roman-kulish/tello-pilot/internal/position"
	"github.com/roman-kulish/tello-pilot/internal/queue"
)

// EnterSDKMode puts the drone in SDK mode, required before any other command
func (c *Controller) EnterSDKMode(ctx context.Context) (*queue.Ticket, error) {
	return c.Submit(ctx, command.EnterSDKMode)
}

func (c *Controller) TakeOff(ctx context.Context) (*queue.Ticket, error) {
	return c.Submit(ctx, command.TakeOff)
}

func (c *Controller) Land(ctx context.Context) (*queue.Ticket, error) {
	return c.Submit(ctx, command.Land)
}

// Hover makes the drone stop and hover in place
func (c *Controller) Hover(ctx context.Context) (*queue.Ticket, error) {
	return c.Submit(ctx, command.Hover)
}

// EmergencyStop stops the motors immediately
func (c *Controller) EmergencyStop(ctx context.Context) (*queue.Ticket, error) {
	return c.Submit(ctx, command.EmergencyStop)
}

func (c *Controller) StartVideo(ctx context.Context) (*queue.Ticket, error) {
	return c.Submit(ctx, command.StartVideo)
}

func (c *Controller) StopVideo(ctx context.Context) (*queue.Ticket, error) {
	return c.Submit(ctx, command.StopVideo)
}

func (c *Controller) EnableMissionPads(ctx context.Context) (*queue.Ticket, error) {
	return c.Submit(ctx, command.EnableMissionPads)
}

func (c *Controller) DisableMissionPads(ctx context.Context) (*queue.Ticket, error) {
	return c.Submit(ctx, command.DisableMissionPads)
}

// GoUp climbs by cm
func (c *Controller) GoUp(ctx context.Context, cm int) (*queue.Ticket, error) {
	return c.Submit(ctx, command.Up, cm)
}

func (c *Controller) GoDown(ctx context.Context, cm int) (*queue.Ticket, error) {
	return c.Submit(ctx, command.Down, cm)
}

func (c *Controller) GoLeft(ctx context.Context, cm int) (*queue.Ticket, error) {
	return c.Submit(ctx, command.Left, cm)
}

func (c *Controller) GoRight(ctx context.Context, cm int) (*queue.Ticket, error) {
	return c.Submit(ctx, command.Right, cm)
}

func (c *Controller) GoForward(ctx context.Context, cm int) (*queue.Ticket, error) {
	return c.Submit(ctx, command.Forward, cm)
}

func (c *Controller) GoBackward(ctx context.Context, cm int) (*queue.Ticket, error) {
	return c.Submit(ctx, command.Back, cm)
}

func (c *Controller) TurnClockwise(ctx context.Context, degrees int) (*queue.Ticket, error) {
	return c.Submit(ctx, command.Clockwise, degrees)
}

func (c *Controller) TurnCounterClockwise(ctx context.Context, degrees int) (*queue.Ticket, error) {
	return c.Submit(ctx, command.CounterClockwise, degrees)
}

// Turn turns in the given sense
func (c *Controller) Turn(ctx context.Context, cw position.Clockwiseness, degrees int) (*queue.Ticket, error) {
	return c.Submit(ctx, turnKind(cw), degrees)
}

// Flip flips in direction: "l", "r", "f" or "b"
func (c *Controller) Flip(ctx context.Context, direction string) (*queue.Ticket, error) {
	return c.Submit(ctx, command.Flip, direction)
}

// Go flies to x, y, z (cm, relative to the drone) at speed cm/s
func (c *Controller) Go(ctx context.Context, x, y, z, speed int) (*queue.Ticket, error) {
	return c.Submit(ctx, command.Go, x, y, z, speed)
}

// Curve flies a curve through x1, y1, z1 to x2, y2, z2 at speed cm/s
func (c *Controller) Curve(ctx context.Context, x1, y1, z1, x2, y2, z2, speed int) (*queue.Ticket, error) {
	return c.Submit(ctx, command.Curve, x1, y1, z1, x2, y2, z2, speed)
}

func (c *Controller) SetSpeed(ctx context.Context, speed int) (*queue.Ticket, error) {
	return c.Submit(ctx, command.SetSpeed, speed)
}

// SetRC sends remote control stick values, each within -100..100. The drone does not reply.
func (c *Controller) SetRC(ctx context.Context, leftRight, forwardBackward, upDown, yaw int) (*queue.Ticket, error) {
	return c.Submit(ctx, command.SetRemoteControl, leftRight, forwardBackward, upDown, yaw)
}

func (c *Controller) SetWiFi(ctx context.Context, ssid, password string) (*queue.Ticket, error) {
	return c.Submit(ctx, command.SetWiFi, ssid, password)
}

func (c *Controller) SetMissionPadDirection(ctx context.Context, direction int) (*queue.Ticket, error) {
	return c.Submit(ctx, command.SetMissionPadDirection, direction)
}

func (c *Controller) GetSpeed(ctx context.Context) (*queue.Ticket, error) {
	return c.Submit(ctx, command.GetSpeed)
}

func (c *Controller) GetBattery(ctx context.Context) (*queue.Ticket, error) {
	return c.Submit(ctx, command.GetBattery)
}

func (c *Controller) GetTime(ctx context.Context) (*queue.Ticket, error) {
	return c.Submit(ctx, command.GetTime)
}

func (c *Controller) GetWiFiSNR(ctx context.Context) (*queue.Ticket, error) {
	return c.Submit(ctx, command.GetWiFiSNR)
}

func (c *Controller) GetSDKVersion(ctx context.Context) (*queue.Ticket, error) {
	return c.Submit(ctx, command.GetSDKVersion)
}

func (c *Controller) GetSerialNumber(ctx context.Context) (*queue.Ticket, error) {
	return c.Submit(ctx, command.GetSerialNumber)
}

// FlyPolygon flies a regular polygon: the speed is set first, then every side
// is a forward move followed by a turn. Turns are whole degrees adding up to a
// full circle, so the drone ends on its initial heading. All commands are
// validated and the drone state checked before the first is submitted; the
// returned tickets are in submission order.
func (c *Controller) FlyPolygon(ctx context.Context, sides, length, speed int, cw position.Clockwiseness) ([]*queue.Ticket, error) {
	if sides < 3 {
		return nil, fmt.Errorf("%w: %d sides, at least 3 required", ErrInvalidPolygon, sides)
	}

	setSpeed, err := c.rules.Validate(command.SetSpeed, speed)
	if err != nil {
		return nil, err
	}

	commands := make([]*command.Command, 0, 2*sides)
	turnTo := turnKind(cw)
	for _, degrees := range polygonTurns(sides) {
		forward, err := c.rules.Validate(command.Forward, length)
		if err != nil {
			return nil, err
		}
		turn, err := c.rules.Validate(turnTo, degrees)
		if err != nil {
			return nil, fmt.Errorf("%w: %d sides: %w", ErrInvalidPolygon, sides, err)
		}
		commands = append(commands, forward, turn)
	}
	if err = c.checkPreconditions(commands[0]); err != nil {
		return nil, err
	}

	tickets := make([]*queue.Ticket, 0, 1+len(commands))
	for _, cmd := range append([]*command.Command{setSpeed}, commands...) {
		t, err := c.submit(ctx, cmd)
		if err != nil {
			return tickets, err
		}
		tickets = append(tickets, t)
	}

	return tickets, nil
}

// polygonTurns splits 360 degrees into sides whole-degree turns differing by
// at most one degree.
func polygonTurns(sides int) []int {
	turns := make([]int, sides)
	for i := range turns {
		from := math.Round(360 * float64(i) / float64(sides))
		to := math.Round(360 * float64(i+1) / float64(sides))
		turns[i] = int(to - from)
	}
	return turns
}

func turnKind(cw position.Clockwiseness) command.Kind {
	if cw == position.CounterClockwise {
		return command.CounterClockwise
	}
	return command.Clockwise
}
