package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roman-kulish/tello-pilot/internal/flight"
	"github.com/roman-kulish/tello-pilot/internal/position"
	"github.com/roman-kulish/tello-pilot/internal/queue"
)

const landTimeout = 30 * time.Second

// Pilot is what a Mission needs from the flight controller
type Pilot interface {
	EnterSDKMode(ctx context.Context) (*queue.Ticket, error)
	StartVideo(ctx context.Context) (*queue.Ticket, error)
	SubmitText(ctx context.Context, line string) (*queue.Ticket, error)
	FlyPolygon(ctx context.Context, sides, length, speed int, cw position.Clockwiseness) ([]*queue.Ticket, error)
	Land(ctx context.Context) (*queue.Ticket, error)
	IsFlying() bool
}

// Mission runs the configured steps one after another. Each step waits for
// the drone to acknowledge it before the next one is sent.
type Mission struct {
	config *MissionConfig
	pilot  Pilot
	logger *slog.Logger
}

func NewMission(config *MissionConfig, pilot Pilot, logger *slog.Logger) *Mission {
	return &Mission{
		config: config,
		pilot:  pilot,
		logger: logger,
	}
}

// Fly runs the mission. The drone is landed afterwards if configured, also
// when a step fails or ctx is cancelled.
func (m *Mission) Fly(ctx context.Context) (err error) {
	if m.config.ShouldLand() {
		defer func() {
			if landErr := m.land(ctx); landErr != nil {
				err = errors.Join(err, landErr)
			}
		}()
	}

	if err = m.await(ctx, "command", m.pilot.EnterSDKMode); err != nil {
		return fmt.Errorf("entering SDK mode: %w", err)
	}

	if m.config.VideoFile != "" {
		if err = m.await(ctx, "streamon", m.pilot.StartVideo); err != nil {
			return fmt.Errorf("starting video: %w", err)
		}
	}

	for i, step := range m.config.Steps {
		submit := func(ctx context.Context) (*queue.Ticket, error) {
			return m.pilot.SubmitText(ctx, step)
		}
		if err = m.await(ctx, step, submit); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	if p := m.config.Polygon; p != nil {
		if err = m.flyPolygon(ctx, p); err != nil {
			return fmt.Errorf("flying polygon: %w", err)
		}
	}

	m.logger.Info("mission completed")
	return nil
}

func (m *Mission) await(ctx context.Context, name string, submit func(context.Context) (*queue.Ticket, error)) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(m.config.StepTimeout))
	defer cancel()

	t, err := submit(ctx)
	if err != nil {
		return err
	}

	v, err := flight.Await(ctx, t)
	if err != nil {
		return err
	}

	m.logger.Info("step completed", slog.String("command", name), slog.String("response", v.String()))
	return nil
}

func (m *Mission) flyPolygon(ctx context.Context, p *PolygonConfig) error {
	cw, err := p.Clockwiseness()
	if err != nil {
		return err
	}

	m.logger.Info("flying polygon",
		slog.Int("sides", p.Sides),
		slog.Int("length", p.Length),
		slog.Int("speed", p.Speed),
		slog.String("direction", cw.String()))

	tickets, err := m.pilot.FlyPolygon(ctx, p.Sides, p.Length, p.Speed, cw)
	if err != nil {
		return err
	}

	// every side is a forward move plus a turn
	ctx, cancel := context.WithTimeout(ctx, time.Duration(m.config.StepTimeout)*time.Duration(len(tickets)))
	defer cancel()

	for _, t := range tickets {
		if _, err = flight.Await(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mission) land(ctx context.Context) error {
	if !m.pilot.IsFlying() {
		return nil
	}

	// ctx may already be cancelled by a signal, landing must still happen
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), landTimeout)
	defer cancel()

	m.logger.Info("landing")

	t, err := m.pilot.Land(ctx)
	if err != nil {
		return fmt.Errorf("landing: %w", err)
	}
	if _, err = flight.Await(ctx, t); err != nil {
		return fmt.Errorf("landing: %w", err)
	}
	return nil
}
