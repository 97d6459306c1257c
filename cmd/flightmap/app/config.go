package app

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ImagePNG  = "png"
	ImageJPEG = "jpeg"

	defaultScale = 1.0 // pixels per centimeter
)

type ImageFormat string

type Config struct {
	DBPath        string
	FlightID      *uuid.UUID // latest flight when nil
	OutputFile    string
	Format        ImageFormat
	Scale         float64
	TimeZone      *time.Location
	NoAnnotations bool
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

func NewConfig() *Config {
	return &Config{
		Format:   ImagePNG,
		Scale:    defaultScale,
		TimeZone: time.Local,
	}
}

func NewConfigFromCLI() (*Config, error) {
	c := NewConfig()

	var imageFormat, flightID, timeZone string
	flag.StringVar(&c.DBPath, "db", "", "Path to the database file")
	flag.StringVar(&flightID, "f", "", "Flight ID, the latest flight if omitted")
	flag.StringVar(&c.OutputFile, "o", "", "Path to the output file, without extension")
	flag.StringVar(&imageFormat, "format", string(ImagePNG), "Output image format. [png, jpeg]")
	flag.Float64Var(&c.Scale, "scale", defaultScale, "Pixels per centimeter")
	flag.StringVar(&timeZone, "tz", "", "Time zone of the time labels, e.g. Australia/Sydney")
	flag.BoolVar(&c.NoAnnotations, "no-annotations", false, "Disable annotations such as the distance scale and flight info")
	flag.Parse()

	if err := c.apply(flightID, imageFormat, timeZone); err != nil {
		flag.Usage()
		return nil, err
	}
	return c, nil
}

func (c *Config) apply(flightID, imageFormat, timeZone string) error {
	imageFormat = strings.ToLower(imageFormat)

	if flightID != "" {
		id, err := uuid.Parse(flightID)
		if err != nil {
			return fmt.Errorf("invalid flight id: %w", err)
		}
		c.FlightID = &id
	}

	if timeZone != "" {
		loc, err := time.LoadLocation(timeZone)
		if err != nil {
			return fmt.Errorf("invalid time zone: %w", err)
		}
		c.TimeZone = loc
	}

	var err error
	if c.DBPath == "" {
		err = errors.New("db path is required")
	} else if c.OutputFile == "" {
		err = errors.New("output file is required")
	} else if c.Scale <= 0 {
		err = fmt.Errorf("invalid scale: %0.2f", c.Scale)
	} else if _, ok := validImageFormats[ImageFormat(imageFormat)]; !ok {
		err = fmt.Errorf("invalid image format: %s", imageFormat)
	}
	if err != nil {
		return err
	}

	c.Format = ImageFormat(imageFormat)
	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return nil
}
