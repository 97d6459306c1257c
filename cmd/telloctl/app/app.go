package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/tello-pilot/internal/flight"
	"github.com/roman-kulish/tello-pilot/internal/record"
	"github.com/roman-kulish/tello-pilot/internal/relay"
	"github.com/roman-kulish/tello-pilot/internal/storage"
)

const (
	storageDir   = "data"
	eventBacklog = 64
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) (err error) {
	flightConfig := config.Drone.FlightConfig()

	var writers record.MultiWriter
	opts := []func(*flight.Controller){
		flight.WithConfig(flightConfig),
		flight.WithLogger(logger),
	}

	if config.Storage.Enabled {
		store, err := createStorage(&config.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage: %w", err)
		}
		defer func() {
			if closeErr := store.Close(); closeErr != nil {
				logger.Error("closing storage", slog.Any("error", closeErr))
			}
		}()

		flightID, err := store.CreateFlight(ctx, flightConfig.CommandAddr, config)
		if err != nil {
			return fmt.Errorf("creating flight: %w", err)
		}

		writers = append(writers, store)
		opts = append(opts, flight.WithFlightID(flightID))
		logger.Info("recording flight", slog.String("flight", flightID.String()))
	}

	if config.Relay.Enabled {
		publisher := relay.NewPublisher(config.Relay, relay.WithLogger(logger))
		defer publisher.Close()

		if err = publisher.Connect(ctx); err != nil {
			return fmt.Errorf("connecting to relay: %w", err)
		}
		writers = append(writers, publisher)
	}

	if len(writers) > 0 {
		opts = append(opts, flight.WithRecorder(writers))
	}

	controller, err := flight.New(opts...)
	if err != nil {
		return fmt.Errorf("creating flight controller: %w", err)
	}

	events, unsubscribe := controller.Subscribe(eventBacklog)
	defer unsubscribe()

	if err = controller.Start(ctx); err != nil {
		return fmt.Errorf("starting flight controller: %w", err)
	}
	defer controller.Stop()

	var video *bufio.Writer
	if config.Mission.VideoFile != "" {
		f, err := os.Create(config.Mission.VideoFile)
		if err != nil {
			return fmt.Errorf("creating video file: %w", err)
		}
		defer f.Close()

		video = bufio.NewWriter(f)
		defer video.Flush()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		handleEvents(events, video, logger)
	}()
	defer func() {
		controller.Stop()
		wg.Wait() // the event channel is closed by Stop
	}()

	if err = controller.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to drone: %w", err)
	}

	if err = NewMission(&config.Mission, controller, logger).Fly(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func handleEvents(events <-chan flight.Event, video *bufio.Writer, logger *slog.Logger) {
	var videoBytes uint64
	var batteryLogged int

	for e := range events {
		switch e := e.(type) {
		case flight.ConnectionStateChanged:
			logger.Info("connection", slog.String("state", e.To.String()))

		case flight.StateChanged:
			if e.Telemetry.Battery != batteryLogged && e.Telemetry.Battery%10 == 0 {
				batteryLogged = e.Telemetry.Battery
				logger.Info("battery", slog.Int("percent", e.Telemetry.Battery), slog.Int("height", e.Telemetry.Height))
			}

		case flight.ValueReceived:
			logger.Info("value", slog.String("command", e.Command.String()), slog.String("value", e.Value.String()))

		case flight.ExceptionThrown:
			logger.Error("command exception", slog.String("command", e.Command.String()), slog.Any("error", e.Err))

		case flight.PositionChanged:
			logger.Debug("position", slog.String("estimate", e.Estimate.Vector.String()), slog.Bool("confirmed", e.Estimate.Confirmed))

		case flight.VideoSampleReady:
			if video == nil {
				continue
			}
			if _, err := video.Write(e.Sample.Content); err != nil {
				logger.Error("writing video", slog.Any("error", err))
				continue
			}
			videoBytes += uint64(len(e.Sample.Content))
		}
	}

	if video != nil {
		logger.Info("video written", slog.String("size", humanize.Bytes(videoBytes)))
	}
}

func createStorage(config *StorageConfig) (*storage.SqliteStore, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current working directory: %w", err)
	}

	var dbPath string
	if config.DataDirectory != "" {
		dbPath = config.DataDirectory
		if !filepath.IsAbs(dbPath) {
			dbPath = filepath.Join(wd, dbPath)
		}
	} else {
		dbPath = filepath.Join(wd, storageDir)
	}

	stat, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage directory '%s' does not exist: %w", dbPath, err)
		}
		return nil, fmt.Errorf("checking storage directory '%s': %w", dbPath, err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("invalid storage directory '%s'", dbPath)
	}

	return storage.NewSqliteStore(filepath.Join(dbPath, config.FileName)), nil
}
