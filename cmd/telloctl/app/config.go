package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/tello-pilot/internal/command"
	"github.com/roman-kulish/tello-pilot/internal/flight"
	"github.com/roman-kulish/tello-pilot/internal/position"
	"github.com/roman-kulish/tello-pilot/internal/relay"
)

const (
	defaultLogLevel    = "info"
	defaultStepTimeout = time.Minute
	defaultDBFile      = "tello_flights.sqlite"
)

type TimeDuration time.Duration

func (d *TimeDuration) UnmarshalYAML(value *yaml.Node) error {
	duration, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("app.TimeDuration: failed to parse: %s", err)
	}

	*d = TimeDuration(duration)
	return nil
}

func (d TimeDuration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d TimeDuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d TimeDuration) String() string {
	return time.Duration(d).String()
}

// Config represents the main application configuration
type Config struct {
	Settings Settings      `yaml:"settings" json:"settings"`
	Drone    DroneConfig   `yaml:"drone" json:"drone"`
	Mission  MissionConfig `yaml:"mission" json:"mission"`
	Storage  StorageConfig `yaml:"storage" json:"storage"`
	Relay    relay.Config  `yaml:"relay" json:"-"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel" json:"logLevel"`
}

// DroneConfig holds the addresses of the three drone channels. Empty values
// fall back to the addresses of a stock drone.
type DroneConfig struct {
	CommandAddr      string       `yaml:"commandAddr" json:"commandAddr"`
	LocalCommandAddr string       `yaml:"localCommandAddr" json:"localCommandAddr"`
	TelemetryAddr    string       `yaml:"telemetryAddr" json:"telemetryAddr"`
	VideoAddr        string       `yaml:"videoAddr" json:"videoAddr"`
	FrameRate        int          `yaml:"frameRate" json:"frameRate"`
	VideoBufferSize  int          `yaml:"videoBufferSize" json:"videoBufferSize"`
	SampleTimeout    TimeDuration `yaml:"sampleTimeout" json:"sampleTimeout"`
}

// MissionConfig describes what to fly once connected
type MissionConfig struct {
	// Steps are commands in wire format, e.g. "takeoff" or "forward 100",
	// run one after another
	Steps       []string       `yaml:"steps" json:"steps"`
	Polygon     *PolygonConfig `yaml:"polygon" json:"polygon,omitempty"`
	StepTimeout TimeDuration   `yaml:"stepTimeout" json:"stepTimeout"`
	VideoFile   string         `yaml:"videoFile" json:"videoFile,omitempty"` // raw H.264 output, video disabled when empty
	LandOnExit  *bool          `yaml:"landOnExit" json:"landOnExit,omitempty"`
}

// PolygonConfig is a regular polygon flown after the steps
type PolygonConfig struct {
	Sides     int    `yaml:"sides" json:"sides"`
	Length    int    `yaml:"length" json:"length"`
	Speed     int    `yaml:"speed" json:"speed"`
	Direction string `yaml:"direction" json:"direction"` // cw or ccw
}

// StorageConfig represents storage settings
type StorageConfig struct {
	Enabled       bool   `yaml:"enabled" json:"enabled"`
	DataDirectory string `yaml:"dataDirectory" json:"dataDirectory"`
	FileName      string `yaml:"fileName" json:"fileName"`
}

// LoadConfig reads and validates a YAML configuration file
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	config := Config{
		Settings: Settings{LogLevel: defaultLogLevel},
		Mission:  MissionConfig{StepTimeout: TimeDuration(defaultStepTimeout)},
		Storage:  StorageConfig{FileName: defaultDBFile},
	}

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err = dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	if err = config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if err := c.Drone.Validate(); err != nil {
		return fmt.Errorf("drone: %w", err)
	}
	if err := c.Mission.Validate(); err != nil {
		return fmt.Errorf("mission: %w", err)
	}
	if err := c.Relay.Validate(); err != nil {
		return fmt.Errorf("relay: %w", err)
	}
	if c.Storage.Enabled && c.Storage.FileName == "" {
		return errors.New("storage: file name is required")
	}
	return nil
}

func (c *DroneConfig) Validate() error {
	if c.FrameRate < 0 {
		return fmt.Errorf("invalid frame rate %d", c.FrameRate)
	}
	if c.VideoBufferSize < 0 {
		return fmt.Errorf("invalid video buffer size %d", c.VideoBufferSize)
	}
	if c.SampleTimeout < 0 {
		return fmt.Errorf("sample timeout must not be negative: %s", c.SampleTimeout)
	}
	return nil
}

// FlightConfig merges the drone settings over the stock defaults
func (c *DroneConfig) FlightConfig() flight.Config {
	cfg := flight.DefaultConfig()
	if c.CommandAddr != "" {
		cfg.CommandAddr = c.CommandAddr
	}
	if c.LocalCommandAddr != "" {
		cfg.LocalCommandAddr = c.LocalCommandAddr
	}
	if c.TelemetryAddr != "" {
		cfg.TelemetryAddr = c.TelemetryAddr
	}
	if c.VideoAddr != "" {
		cfg.VideoAddr = c.VideoAddr
	}
	if c.FrameRate > 0 {
		cfg.FrameRate = c.FrameRate
	}
	if c.VideoBufferSize > 0 {
		cfg.VideoBufferSize = c.VideoBufferSize
	}
	if c.SampleTimeout > 0 {
		cfg.SampleTimeout = time.Duration(c.SampleTimeout)
	}
	return cfg
}

func (c *MissionConfig) Validate() error {
	rules := command.DefaultRuleSet()
	for i, step := range c.Steps {
		if _, err := rules.Parse(step); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	if c.StepTimeout <= 0 {
		return fmt.Errorf("step timeout must be positive: %s", c.StepTimeout)
	}

	if c.Polygon != nil {
		if err := c.Polygon.Validate(); err != nil {
			return fmt.Errorf("polygon: %w", err)
		}
	}
	return nil
}

// ShouldLand returns true if the drone is landed when the mission ends or is interrupted
func (c *MissionConfig) ShouldLand() bool {
	return c.LandOnExit == nil || *c.LandOnExit
}

func (c *PolygonConfig) Validate() error {
	if c.Sides < 3 {
		return fmt.Errorf("at least 3 sides required, %d given", c.Sides)
	}
	if c.Length < command.DistanceMin || c.Length > command.DistanceMax {
		return fmt.Errorf("length must be between %d and %d cm: %d given", command.DistanceMin, command.DistanceMax, c.Length)
	}
	if c.Speed < command.SpeedMin || c.Speed > command.SpeedMax {
		return fmt.Errorf("speed must be between %d and %d cm/s: %d given", command.SpeedMin, command.SpeedMax, c.Speed)
	}
	if _, err := c.Clockwiseness(); err != nil {
		return err
	}
	return nil
}

func (c *PolygonConfig) Clockwiseness() (position.Clockwiseness, error) {
	switch strings.ToLower(c.Direction) {
	case "", "cw", "clockwise":
		return position.Clockwise, nil
	case "ccw", "counterclockwise":
		return position.CounterClockwise, nil
	default:
		return position.Clockwise, fmt.Errorf("invalid direction %q, expected cw or ccw", c.Direction)
	}
}
