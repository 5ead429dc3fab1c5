// Package config loads the arena server configuration from the environment.
package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"pkg.world.dev/arena/types"
)

// Config holds the configuration of one arena server.
// Every field can be set via the environment variable named in its tag; unset variables take the listed default.
type Config struct {
	// Prefix of every redis key written by this server.
	Namespace string `env:"ARENA_NAMESPACE" envDefault:"arena"`

	// Port the HTTP and websocket server listens on.
	Port string `env:"ARENA_PORT" envDefault:"4040"`

	RedisAddress  string `env:"ARENA_REDIS_ADDRESS" envDefault:"localhost:6379"`
	RedisPassword string `env:"ARENA_REDIS_PASSWORD"`

	// Interval between two bullet simulation ticks.
	TickInterval time.Duration `env:"ARENA_TICK_INTERVAL" envDefault:"60ms"`

	// One of zerolog's levels: trace, debug, info, warn, error, fatal, panic, disabled.
	LogLevel string `env:"ARENA_LOG_LEVEL" envDefault:"info"`

	// Human readable console output instead of JSON lines.
	LogPretty bool `env:"ARENA_LOG_PRETTY" envDefault:"false"`

	// Address of the statsd agent. Metrics are dropped when empty.
	StatsdAddress string `env:"ARENA_STATSD_ADDRESS"`

	// Tags attached to every metric, comma separated.
	StatsdTags []string `env:"ARENA_STATSD_TAGS" envSeparator:","`

	// Also delete the Entity and MobileLocation rows of expired bullets.
	ReapExpiredBullets bool `env:"ARENA_REAP_EXPIRED_BULLETS" envDefault:"false"`
}

// Load reads the configuration from environment variables and validates it.
func Load() (Config, error) {
	cfg := Config{}

	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse config")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, eris.Wrap(err, "failed to validate config")
	}

	return cfg, nil
}

// Validate performs validation on the loaded configuration.
func (cfg *Config) Validate() error {
	if err := types.Namespace(cfg.Namespace).Validate(); err != nil {
		return err
	}
	if cfg.Port == "" {
		return eris.New("port cannot be empty")
	}
	if cfg.RedisAddress == "" {
		return eris.New("redis address cannot be empty")
	}
	if cfg.TickInterval <= 0 {
		return eris.New("tick interval must be positive")
	}
	if _, err := cfg.ZerologLevel(); err != nil {
		return err
	}
	return nil
}

// ZerologLevel parses LogLevel.
func (cfg *Config) ZerologLevel() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return zerolog.NoLevel, eris.Wrapf(err, "invalid log level %q", cfg.LogLevel)
	}
	return level, nil
}
