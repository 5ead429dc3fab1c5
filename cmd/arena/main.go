// Command arena runs one arena shard: the authoritative game state, the bullet simulation tick and the client
// facing HTTP and websocket server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"pkg.world.dev/arena/arena"
	"pkg.world.dev/arena/config"
	"pkg.world.dev/arena/events"
	"pkg.world.dev/arena/gamestate"
	arenalog "pkg.world.dev/arena/log"
	"pkg.world.dev/arena/server"
	"pkg.world.dev/arena/statsd"
	"pkg.world.dev/arena/storage/redis"
	"pkg.world.dev/arena/tick"
	"pkg.world.dev/arena/types"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg(eris.ToString(err, true))
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}
	if cfg.StatsdAddress != "" {
		if err := statsd.Init(cfg.StatsdAddress, cfg.StatsdTags); err != nil {
			return eris.Wrap(err, "failed to init statsd")
		}
	}

	// Handles SIGINT and SIGTERM signals and starts the shutdown process.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rs := redis.NewRedisStorage(redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
	}, types.Namespace(cfg.Namespace))
	defer func() {
		if err := rs.Close(); err != nil {
			log.Error().Err(err).Msg(eris.ToString(err, true))
		}
	}()
	if err := rs.Ping(ctx); err != nil {
		return err
	}

	hub := events.NewEventHub(events.WithLogger(*arenalog.CreateSystemLogger(&log.Logger, "events")))
	w, err := arena.NewWorld(
		gamestate.NewRedisPrimitiveStorage(rs.Client),
		rs.Namespace,
		arena.WithReapExpiredBullets(cfg.ReapExpiredBullets),
		arena.WithTickInterval(cfg.TickInterval),
		arena.WithCommitListener(hub.EmitRowChanges),
	)
	if err != nil {
		return eris.Wrap(err, "failed to create world")
	}
	if err := w.Load(ctx); err != nil {
		return err
	}
	defer w.Shutdown()

	scheduler := tick.New(tick.WithLogger(*arenalog.CreateSystemLogger(&log.Logger, "tick")))
	if err := w.OnInit(scheduler); err != nil {
		return eris.Wrap(err, "failed to init world")
	}
	arenalog.World(&log.Logger, w, zerolog.InfoLevel)

	srv, err := server.New(w, server.WithPort(cfg.Port), server.WithCORS(), server.WithEventHub(hub))
	if err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return eris.Wrap(scheduler.Run(ctx), "tick loop failed")
	})
	eg.Go(func() error {
		return srv.Serve(ctx)
	})
	return eg.Wait()
}

func setupLogging(cfg config.Config) error {
	level, err := cfg.ZerologLevel()
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	log.Logger = log.With().Str("namespace", cfg.Namespace).Logger()
	return nil
}
