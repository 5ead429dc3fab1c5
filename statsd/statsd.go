// Package statsd is a helper package that wraps the few statsd calls the arena makes.
// It hides the datadog dependency, so moving to another client means editing this single file. For example, the
// https://pkg.go.dev/github.com/cactus/go-statsd-client/statsd package roughly implements datadog's
// ClientInterface interface.
package statsd

import (
	"time"

	ddstatsd "github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

const namespace = "arena"

var client ddstatsd.ClientInterface = &ddstatsd.NoOpClient{}

func Client() ddstatsd.ClientInterface {
	return client
}

// SetClient replaces the global client. Passing nil restores the no-op client.
func SetClient(c ddstatsd.ClientInterface) {
	if c == nil {
		c = &ddstatsd.NoOpClient{}
	}
	client = c
}

func EmitTickStat(start time.Time, stage string) {
	duration := time.Since(start)
	err := Client().Timing("tick", duration, []string{"stage:" + stage}, 1)
	if err != nil {
		log.Logger.Warn().Msgf("failed to emit tick stat: %v", err)
	}
}

func Gauge(name string, value float64) {
	if err := Client().Gauge(name, value, nil, 1); err != nil {
		log.Logger.Warn().Msgf("failed to emit gauge %s: %v", name, err)
	}
}

func Incr(name string, tags ...string) {
	if err := Client().Incr(name, tags, 1); err != nil {
		log.Logger.Warn().Msgf("failed to emit counter %s: %v", name, err)
	}
}

func Init(address string, tags []string) error {
	if address == "" {
		return eris.New("address must not be empty")
	}
	opts := []ddstatsd.Option{
		// The statsd namespace is the prefix of all metrics
		ddstatsd.WithNamespace(namespace),
	}
	if len(tags) > 0 {
		opts = append(opts, ddstatsd.WithTags(tags))
	}

	newClient, err := ddstatsd.New(address, opts...)
	if err != nil {
		return eris.Wrap(err, "failed to create statsd client")
	}
	// Success! replace the global client
	client = newClient
	return nil
}
