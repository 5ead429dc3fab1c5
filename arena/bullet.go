package arena

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"pkg.world.dev/arena/component"
	"pkg.world.dev/arena/gamestate"
	"pkg.world.dev/arena/internal/assert"
	"pkg.world.dev/arena/log"
	"pkg.world.dev/arena/statsd"
	"pkg.world.dev/arena/types"
	"pkg.world.dev/arena/worldstage"
)

// ShootBullet puts a new bullet in flight at location. Any client may shoot; there is no ownership check.
func (w *World) ShootBullet(ctx context.Context, location, direction types.Vector2) (types.EntityID, error) {
	var id types.EntityID
	err := w.atomic(ctx, func(tx *gamestate.Tx) error {
		id = w.allocate(tx)
		assert.NoError(w.bullets.Insert(tx, component.Bullet{
			EntityID: id,
			Lifetime: BulletLifetime,
		}), "insert new bullet")
		assert.NoError(w.locations.Insert(tx, component.MobileLocation{
			EntityID:           id,
			Location:           location,
			Direction:          direction,
			MoveStartTimestamp: types.UnixEpoch,
		}), "insert new bullet location")
		return nil
	})
	if err != nil {
		return types.NoEntity, err
	}
	statsd.Incr("bullet.shot")
	log.Entity(&w.logger, zerolog.DebugLevel, id, w.entities.Name(), w.bullets.Name(), w.locations.Name())
	return id, nil
}

// AdvanceBullets steps every bullet once: its location moves BulletSpeed along its direction and its lifetime
// drops by one. Bullets whose lifetime runs out lose their Bullet row. The tick time is not used by the step.
func (w *World) AdvanceBullets(ctx context.Context, _ time.Time) error {
	start := time.Now()
	w.stage.CompareAndSwap(worldstage.Ready, worldstage.Running)

	var inFlight, expired int
	err := w.atomic(ctx, func(tx *gamestate.Tx) error {
		inFlight, expired = 0, 0
		for _, bullet := range w.bullets.Rows(tx) {
			if loc, ok := w.locations.Get(tx, bullet.EntityID); ok {
				loc.Location = loc.Location.Add(loc.Direction.Mul(BulletSpeed))
				assert.NoError(w.locations.Update(tx, loc), "step bullet location")
			}

			bullet.Lifetime--
			if bullet.Lifetime > 0 {
				assert.NoError(w.bullets.Update(tx, bullet), "step bullet lifetime")
				inFlight++
				continue
			}
			expired++
			w.expireBullet(tx, bullet.EntityID)
		}
		return nil
	})
	statsd.EmitTickStat(start, advanceBulletsTask)
	if err != nil {
		return err
	}

	tick := w.ticks.Add(1) - 1
	statsd.Gauge("bullets.in_flight", float64(inFlight))
	if expired > 0 {
		statsd.Gauge("bullets.expired", float64(expired))
	}
	log.Tick(&w.logger, zerolog.TraceLevel, tick, time.Since(start), inFlight)
	return nil
}

func (w *World) expireBullet(tx *gamestate.Tx, id types.EntityID) {
	deleted, err := w.bullets.Delete(tx, id)
	assert.NoError(err, "delete expired bullet")
	assert.That(deleted, "expired bullet %d vanished mid tick", id)
	if !w.reapExpiredBullets {
		return
	}
	_, err = w.locations.Delete(tx, id)
	assert.NoError(err, "delete expired bullet location")
	_, err = w.entities.Delete(tx, id)
	assert.NoError(err, "delete expired bullet entity")
}
