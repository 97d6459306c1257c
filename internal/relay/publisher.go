package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/roman-kulish/tello-pilot/internal/record"
)

const (
	DefaultPrefix = "tello"

	pingTimeout = 5 * time.Second
	latestKey   = "latest"
)

// Config of the Redis relay
type Config struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		return errors.New("redis address is required")
	}
	if c.DB < 0 {
		return fmt.Errorf("invalid redis database %d", c.DB)
	}
	return nil
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) func(*Publisher) {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// Publisher relays flight records to Redis. Every record is published on the
// channel <prefix>:<type> and kept as the latest value of its type in the hash
// <prefix>:latest, so late subscribers can pick up the current state.
type Publisher struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

var _ record.Writer = (*Publisher)(nil)

// NewPublisher creates a new Publisher. A disabled configuration yields a
// Publisher that drops all records.
func NewPublisher(cfg Config, opts ...func(*Publisher)) *Publisher {
	p := &Publisher{
		prefix: cfg.Prefix,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if p.prefix == "" {
		p.prefix = DefaultPrefix
	}
	for _, opt := range opts {
		opt(p)
	}

	if cfg.Enabled {
		p.client = redis.NewClient(&redis.Options{
			Addr:        cfg.Addr,
			Password:    cfg.Password,
			DB:          cfg.DB,
			DialTimeout: pingTimeout,
		})
	}

	return p
}

// Enabled returns true if records are relayed
func (p *Publisher) Enabled() bool {
	return p.client != nil
}

// Connect checks the Redis server is reachable
func (p *Publisher) Connect(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}

	p.logger.Info("connected to redis", slog.String("addr", p.client.Options().Addr))
	return nil
}

// FormatKey returns the key prefixed with the configured prefix
func (p *Publisher) FormatKey(parts ...string) string {
	return p.prefix + ":" + strings.Join(parts, ":")
}

// Write publishes the record and stores it as the latest of its type
func (p *Publisher) Write(ctx context.Context, r record.Record) error {
	if !p.Enabled() {
		return nil
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling %s record: %w", r.Type(), err)
	}

	pipe := p.client.Pipeline()
	pipe.Publish(ctx, p.FormatKey(string(r.Type())), payload)
	pipe.HSet(ctx, p.FormatKey(latestKey), string(r.Type()), payload)

	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("relaying %s record: %w", r.Type(), err)
	}
	return nil
}

// Close closes the Redis client
func (p *Publisher) Close() error {
	if !p.Enabled() {
		return nil
	}
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("closing redis client: %w", err)
	}
	return nil
}
