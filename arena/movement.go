package arena

import (
	"context"
	"time"

	"pkg.world.dev/arena/component"
	"pkg.world.dev/arena/gamestate"
	"pkg.world.dev/arena/internal/assert"
	"pkg.world.dev/arena/types"
)

// MovePlayer starts the player owned by identity moving from start along direction at now. The server does not
// validate the course; clients extrapolate from the stored record.
func (w *World) MovePlayer(
	ctx context.Context, identity types.Identity, start, direction types.Vector2, now time.Time,
) error {
	return w.atomic(ctx, func(tx *gamestate.Tx) error {
		loc, err := w.playerLocation(tx, identity)
		if err != nil {
			return err
		}
		loc.Location = start
		loc.Direction = direction
		loc.MoveStartTimestamp = types.TimestampFromTime(now)
		assert.NoError(w.locations.Update(tx, loc), "update moving player")
		return nil
	})
}

// StopPlayer halts the player owned by identity at location.
func (w *World) StopPlayer(ctx context.Context, identity types.Identity, location types.Vector2) error {
	return w.atomic(ctx, func(tx *gamestate.Tx) error {
		loc, err := w.playerLocation(tx, identity)
		if err != nil {
			return err
		}
		loc.Location = location
		loc.Direction = types.ZeroVector
		loc.MoveStartTimestamp = types.UnixEpoch
		assert.NoError(w.locations.Update(tx, loc), "update stopped player")
		return nil
	})
}

// Extrapolate returns where a player record places its entity at now, given a speed in units per second. Records
// that are not moving stay at their location.
func Extrapolate(loc component.MobileLocation, speed float32, now time.Time) types.Vector2 {
	if !loc.IsMoving() {
		return loc.Location
	}
	elapsed := float32(loc.MoveStartTimestamp.Since(now).Seconds())
	return loc.Location.Add(loc.Direction.Mul(speed * elapsed))
}
