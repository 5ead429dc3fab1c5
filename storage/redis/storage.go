package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"pkg.world.dev/arena/types"
)

// DialTimeout is generous so the shard can start before redis finishes booting.
const DialTimeout = 15 * time.Second

type Storage struct {
	Namespace types.Namespace
	Client    *redis.Client
}

type Options = redis.Options

func NewRedisStorage(options Options, namespace types.Namespace) Storage {
	if options.DialTimeout == 0 {
		options.DialTimeout = DialTimeout
	}
	return Storage{
		Namespace: namespace,
		Client:    redis.NewClient(&options),
	}
}

// Ping verifies the connection. It is called once on startup so a bad address fails fast.
func (r *Storage) Ping(ctx context.Context) error {
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return eris.Wrapf(err, "failed to reach redis at %s", r.Client.Options().Addr)
	}
	return nil
}

func (r *Storage) Close() error {
	log.Info().Msg("Closing storage connection.")
	if err := r.Client.Close(); err != nil {
		if eris.Is(err, redis.ErrClosed) {
			// Another shutdown path got here first.
			return nil
		}
		return eris.Wrap(err, "")
	}
	log.Info().Msg("Successfully closed storage connection.")
	return nil
}
