// Package arena holds the authoritative state of one arena: the players, the bullets in flight and where every
// one of them is. Every exported operation is atomic; it either applies in full or has no effect.
package arena

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pkg.world.dev/arena/component"
	"pkg.world.dev/arena/gamestate"
	"pkg.world.dev/arena/internal/assert"
	arenalog "pkg.world.dev/arena/log"
	"pkg.world.dev/arena/types"
	"pkg.world.dev/arena/worldstage"
)

const (
	// BulletLifetime is the number of ticks a bullet stays in flight.
	BulletLifetime float32 = 32.0
	// BulletSpeed is the distance a bullet covers per tick, in direction units.
	BulletSpeed float32 = 50.0
	// TickInterval is the cadence of AdvanceBullets.
	TickInterval = 60 * time.Millisecond

	advanceBulletsTask = "advance_bullets"
	ownerIndex         = "owner"
)

// Option configures a World at construction.
type Option func(*World)

// WithReapExpiredBullets makes AdvanceBullets delete the Entity and MobileLocation rows of a bullet when its Bullet
// row expires. By default those rows are left behind.
func WithReapExpiredBullets(enabled bool) Option {
	return func(w *World) {
		w.reapExpiredBullets = enabled
	}
}

// WithTickInterval overrides the interval OnInit schedules AdvanceBullets at.
func WithTickInterval(interval time.Duration) Option {
	return func(w *World) {
		w.tickInterval = interval
	}
}

// WithCommitListener makes the world report the row changes of every committed operation to fn. See
// gamestate.CommitListener for the constraints on fn.
func WithCommitListener(fn gamestate.CommitListener) Option {
	return func(w *World) {
		w.onCommit = fn
	}
}

// WithLogger replaces the global zerolog logger for the world and its store.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *World) {
		w.logger = logger
	}
}

// World is one arena: its four tables, the entity allocator and the lifecycle stage gating every operation.
type World struct {
	store     *gamestate.Store
	entities  *gamestate.Table[component.Entity]
	players   *gamestate.Table[component.Player]
	bullets   *gamestate.Table[component.Bullet]
	locations *gamestate.Table[component.MobileLocation]

	stage              *worldstage.Manager
	logger             zerolog.Logger
	reapExpiredBullets bool
	tickInterval       time.Duration
	onCommit           gamestate.CommitListener
	scheduled          atomic.Bool
	ticks              atomic.Uint64
}

// NewWorld creates a world backed by storage. Load must be called before any operation.
func NewWorld(storage gamestate.PrimitiveStorage, namespace types.Namespace, opts ...Option) (*World, error) {
	if err := namespace.Validate(); err != nil {
		return nil, err
	}
	w := &World{
		stage:        worldstage.NewManager(),
		logger:       log.Logger,
		tickInterval: TickInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	storeOpts := []gamestate.StoreOption{gamestate.WithLogger(w.logger)}
	if w.onCommit != nil {
		storeOpts = append(storeOpts, gamestate.WithCommitListener(w.onCommit))
	}
	w.store = gamestate.NewStore(storage, namespace, storeOpts...)

	var err error
	if w.entities, err = gamestate.Register[component.Entity](w.store); err != nil {
		return nil, err
	}
	if w.players, err = gamestate.Register[component.Player](w.store); err != nil {
		return nil, err
	}
	w.players.AddUniqueIndex(ownerIndex, func(p component.Player) string { return p.OwnerID.String() })
	if w.bullets, err = gamestate.Register[component.Bullet](w.store); err != nil {
		return nil, err
	}
	if w.locations, err = gamestate.Register[component.MobileLocation](w.store); err != nil {
		return nil, err
	}
	return w, nil
}

// Load recovers the committed state from storage and opens the world for operations.
func (w *World) Load(ctx context.Context) error {
	if !w.stage.CompareAndSwap(worldstage.Init, worldstage.Loading) {
		return eris.Errorf("world can only be loaded once, current stage is %s", w.stage.Current())
	}
	if err := w.store.Load(ctx); err != nil {
		w.stage.Store(worldstage.Init)
		return eris.Wrap(err, "failed to load world state")
	}
	if !w.stage.CompareAndSwap(worldstage.Loading, worldstage.Ready) {
		return eris.Wrapf(ErrWorldNotReady, "shut down while loading")
	}
	arenalog.Tables(&w.logger, w, zerolog.DebugLevel)
	return nil
}

// Shutdown stops the world from accepting further operations. Operations already running complete first; once
// Shutdown returns nothing more is committed. Calling it again is a no-op.
func (w *World) Shutdown() {
	switch prev := w.stage.Swap(worldstage.ShuttingDown); prev {
	case worldstage.ShuttingDown, worldstage.ShutDown:
		w.stage.CompareAndSwap(worldstage.ShuttingDown, prev)
		return
	}
	// Waits for any running operation to release the store.
	_ = w.store.View(func(*gamestate.Tx) error { return nil })
	w.stage.Store(worldstage.ShutDown)
	w.logger.Info().Msg("world shut down")
}

// Stage returns the current lifecycle stage.
func (w *World) Stage() worldstage.Stage {
	return w.stage.Current()
}

// IsReady reports whether the world accepts operations.
func (w *World) IsReady() bool {
	return w.stage.IsAcceptingOperations()
}

// IsGameLoopRunning reports whether AdvanceBullets has been fired by the scheduler at least once.
func (w *World) IsGameLoopRunning() bool {
	return w.stage.IsRunning()
}

// CurrentTick is the number of completed AdvanceBullets calls.
func (w *World) CurrentTick() uint64 {
	return w.ticks.Load()
}

// RegisteredTables returns the table names, in registration order.
func (w *World) RegisteredTables() []string {
	return []string{w.entities.Name(), w.players.Name(), w.bullets.Name(), w.locations.Name()}
}

// ScheduledTasks returns the names of the tasks OnInit scheduled.
func (w *World) ScheduledTasks() []string {
	if w.scheduled.Load() {
		return []string{advanceBulletsTask}
	}
	return []string{}
}

// atomic runs fn as a single store operation once the world is open. The stage is checked again under the store
// lock so nothing admitted before Shutdown commits after it.
func (w *World) atomic(ctx context.Context, fn func(tx *gamestate.Tx) error) error {
	if !w.stage.IsAcceptingOperations() {
		return eris.Wrapf(ErrWorldNotReady, "stage %s", w.stage.Current())
	}
	return w.store.AtomicFn(ctx, func(tx *gamestate.Tx) error {
		if !w.stage.IsAcceptingOperations() {
			return eris.Wrapf(ErrWorldNotReady, "stage %s", w.stage.Current())
		}
		return fn(tx)
	})
}

// allocate issues a fresh entity id and marks it live.
func (w *World) allocate(tx *gamestate.Tx) types.EntityID {
	id := tx.NextEntityID()
	assert.That(id != types.NoEntity, "allocator issued the reserved entity id")
	assert.NoError(w.entities.Insert(tx, component.Entity{EntityID: id}), "allocated entity id is already live")
	return id
}
