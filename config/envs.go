package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config errors.
var (
	ErrInvalidMoleBounds = errors.New("invalid mole timing bounds")
	ErrInvalidSize       = errors.New("size must be positive")
)

// Config holds the application's configuration values.
type Config struct {
	HostIP   string `env:"HOST_IP" envDefault:"0.0.0.0"` // Host IP the listeners bind to
	GrpcPort int    `env:"GRPC_PORT" envDefault:"50051"` // Port for the GRPC control plane
	HTTPPort int    `env:"HTTP_PORT" envDefault:"8080"`  // Port for health checks and websocket clients

	MoleIdleMin time.Duration `env:"MOLE_IDLE_MIN" envDefault:"2s"`  // Shortest time a mole stays down
	MoleIdleMax time.Duration `env:"MOLE_IDLE_MAX" envDefault:"10s"` // Upper bound (exclusive) for a mole staying down
	MoleUpMin   time.Duration `env:"MOLE_UP_MIN" envDefault:"3s"`    // Shortest time a mole stays up
	MoleUpMax   time.Duration `env:"MOLE_UP_MAX" envDefault:"5s"`    // Upper bound (exclusive) for a mole staying up

	PlayerOutboxSize   int           `env:"PLAYER_OUTBOX_SIZE" envDefault:"256"`  // Queued lines per player before it is dropped
	PlayerWriteTimeout time.Duration `env:"PLAYER_WRITE_TIMEOUT" envDefault:"5s"` // Write deadline per outbound line
	MaxLineBytes       int           `env:"MAX_LINE_BYTES" envDefault:"1024"`     // Longest accepted inbound line

	RepeatSessions bool   `env:"REPEAT_SESSIONS" envDefault:"false"` // Open a new lobby after each session
	OtelEndpoint   string `env:"OTEL_ENDPOINT"`                      // OTLP/HTTP endpoint, empty disables tracing
}

// Load reads a .env file when present and parses the environment into a Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("[APP] [INFO] .env file not found or could not be loaded: %v", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the timing bounds and sizes are usable.
func (c Config) Validate() error {
	if c.MoleIdleMin <= 0 || c.MoleIdleMax <= c.MoleIdleMin {
		return fmt.Errorf("%w: idle [%s, %s)", ErrInvalidMoleBounds, c.MoleIdleMin, c.MoleIdleMax)
	}
	if c.MoleUpMin <= 0 || c.MoleUpMax <= c.MoleUpMin {
		return fmt.Errorf("%w: up [%s, %s)", ErrInvalidMoleBounds, c.MoleUpMin, c.MoleUpMax)
	}
	if c.PlayerOutboxSize <= 0 {
		return fmt.Errorf("%w: PLAYER_OUTBOX_SIZE", ErrInvalidSize)
	}
	if c.PlayerWriteTimeout <= 0 {
		return fmt.Errorf("%w: PLAYER_WRITE_TIMEOUT", ErrInvalidSize)
	}
	if c.MaxLineBytes <= 0 {
		return fmt.Errorf("%w: MAX_LINE_BYTES", ErrInvalidSize)
	}
	return nil
}
