package arena

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"pkg.world.dev/arena/log"
	"pkg.world.dev/arena/tick"
	"pkg.world.dev/arena/types"
)

// Scheduler installs the periodic simulation task. *tick.Scheduler implements it.
type Scheduler interface {
	Schedule(name string, interval time.Duration, task tick.Task) error
}

// OnConnect marks the player owned by identity as logged in.
func (w *World) OnConnect(ctx context.Context, identity types.Identity) error {
	return w.SetLoginState(ctx, identity, true)
}

// OnDisconnect marks the player owned by identity as logged out.
func (w *World) OnDisconnect(ctx context.Context, identity types.Identity) error {
	return w.SetLoginState(ctx, identity, false)
}

// OnInit schedules AdvanceBullets. It may only succeed once per world.
func (w *World) OnInit(scheduler Scheduler) error {
	if !w.scheduled.CompareAndSwap(false, true) {
		return eris.Wrapf(tick.ErrAlreadyScheduled, "%s is already scheduled", advanceBulletsTask)
	}
	if err := scheduler.Schedule(advanceBulletsTask, w.tickInterval, w.AdvanceBullets); err != nil {
		w.scheduled.Store(false)
		return err
	}
	w.logger.Info().Dur("interval", w.tickInterval).Msg("bullet simulation scheduled")
	log.Tasks(&w.logger, w, zerolog.DebugLevel)
	return nil
}
