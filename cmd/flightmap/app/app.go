package app

import (
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/roman-kulish/tello-pilot/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	track, err := readTrack(ctx, store, config.FlightID, logger)
	if err != nil {
		return err
	}

	return renderTrack(track, config, logger)
}

func readTrack(ctx context.Context, store storage.Store, flightID *uuid.UUID, logger *slog.Logger) (*Track, error) {
	flight, err := findFlight(ctx, store, flightID)
	if err != nil {
		return nil, err
	}

	logger.Info("reading flight",
		slog.String("flight", flight.ID.String()),
		slog.String("drone", flight.DroneAddr),
		slog.String("start", flight.StartTime.Local().Format(time.DateTime)))

	positions, err := store.Positions(ctx, flight.ID)
	if err != nil {
		return nil, fmt.Errorf("reading positions: %w", err)
	}
	if len(positions) == 0 {
		logger.Warn("no positions recorded, the drone did not move")
	}

	summary, err := store.Summary(ctx, flight.ID)
	if err != nil {
		return nil, fmt.Errorf("reading summary: %w", err)
	}

	track := NewTrack(flight, summary, positions)

	logger.Info("finished reading positions",
		slog.Group("stats",
			slog.Int("positions", len(positions)),
			slog.String("distance", formatDistance(track.Distance())),
			slog.String("width", formatDistance(track.Width())),
			slog.String("height", formatDistance(track.Height())),
			slog.Int64("responses", summary.Responses),
			slog.Int64("failed", summary.Failed),
		))

	return track, nil
}

func findFlight(ctx context.Context, store storage.Store, flightID *uuid.UUID) (*storage.Flight, error) {
	if flightID != nil {
		return store.Flight(ctx, *flightID)
	}

	flights, err := store.Flights(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing flights: %w", err)
	}
	if len(flights) == 0 {
		return nil, errors.New("no flights recorded")
	}
	return flights[len(flights)-1], nil
}

func renderTrack(track *Track, config *Config, logger *slog.Logger) (err error) {
	renderer, err := NewTrackRenderer(RenderConfig{
		Location:      config.TimeZone,
		Scale:         config.Scale,
		NoAnnotations: config.NoAnnotations,
	})
	if err != nil {
		return fmt.Errorf("creating track renderer: %w", err)
	}

	img, err := renderer.Render(track)
	if err != nil {
		return fmt.Errorf("rendering track: %w", err)
	}

	logger.Info("rendering track",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.Int("width", img.Bounds().Dx()),
			slog.Int("height", img.Bounds().Dy()),
		))

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	switch config.Format {
	case ImagePNG:
		err = png.Encode(out, img)

	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})
	}
	return err
}
