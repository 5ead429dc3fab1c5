package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"pkg.world.dev/arena/assert"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	assert.NilError(t, err)

	assert.DeepEqual(t, Config{
		Namespace:    "arena",
		Port:         "4040",
		RedisAddress: "localhost:6379",
		TickInterval: 60 * time.Millisecond,
		LogLevel:     "info",
	}, cfg)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("ARENA_NAMESPACE", "arena-eu-1")
	t.Setenv("ARENA_PORT", "5050")
	t.Setenv("ARENA_REDIS_ADDRESS", "redis:6379")
	t.Setenv("ARENA_REDIS_PASSWORD", "hunter2")
	t.Setenv("ARENA_TICK_INTERVAL", "100ms")
	t.Setenv("ARENA_LOG_LEVEL", "DEBUG")
	t.Setenv("ARENA_LOG_PRETTY", "true")
	t.Setenv("ARENA_STATSD_ADDRESS", "localhost:8125")
	t.Setenv("ARENA_STATSD_TAGS", "env:test,shard:1")
	t.Setenv("ARENA_REAP_EXPIRED_BULLETS", "true")

	cfg, err := Load()
	assert.NilError(t, err)
	assert.DeepEqual(t, Config{
		Namespace:          "arena-eu-1",
		Port:               "5050",
		RedisAddress:       "redis:6379",
		RedisPassword:      "hunter2",
		TickInterval:       100 * time.Millisecond,
		LogLevel:           "DEBUG",
		LogPretty:          true,
		StatsdAddress:      "localhost:8125",
		StatsdTags:         []string{"env:test", "shard:1"},
		ReapExpiredBullets: true,
	}, cfg)

	level, err := cfg.ZerologLevel()
	assert.NilError(t, err)
	assert.Equal(t, zerolog.DebugLevel, level)
}

func TestValidationFailures(t *testing.T) {
	testCases := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{name: "bad namespace", key: "ARENA_NAMESPACE", value: "no spaces", wantErr: "invalid namespace"},
		{name: "zero tick", key: "ARENA_TICK_INTERVAL", value: "0s", wantErr: "tick interval must be positive"},
		{name: "negative tick", key: "ARENA_TICK_INTERVAL", value: "-5ms", wantErr: "tick interval must be positive"},
		{name: "bad level", key: "ARENA_LOG_LEVEL", value: "loud", wantErr: "invalid log level"},
		{name: "bad duration", key: "ARENA_TICK_INTERVAL", value: "soon", wantErr: "failed to parse config"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}
