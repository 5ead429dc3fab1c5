package arena

import (
	"context"

	"github.com/rotisserie/eris"

	"pkg.world.dev/arena/component"
	"pkg.world.dev/arena/gamestate"
	"pkg.world.dev/arena/internal/assert"
	"pkg.world.dev/arena/statsd"
	"pkg.world.dev/arena/types"
)

// CreatePlayer registers the player owned by identity. A new player starts logged in, at the origin and standing
// still.
func (w *World) CreatePlayer(ctx context.Context, identity types.Identity, username string) error {
	var id types.EntityID
	err := w.atomic(ctx, func(tx *gamestate.Tx) error {
		if _, ok := w.playerByOwner(tx, identity); ok {
			return eris.Wrapf(ErrAlreadyExists, "identity %s", identity)
		}
		id = w.allocate(tx)
		assert.NoError(w.players.Insert(tx, component.Player{
			EntityID: id,
			OwnerID:  identity,
			Username: username,
			LoggedIn: true,
		}), "insert new player")
		assert.NoError(w.locations.Insert(tx, component.MobileLocation{
			EntityID:           id,
			Location:           types.ZeroVector,
			Direction:          types.ZeroVector,
			MoveStartTimestamp: types.UnixEpoch,
		}), "insert new player location")
		return nil
	})
	if err != nil {
		return err
	}
	statsd.Incr("player.created")
	w.logger.Info().Str("username", username).Uint64("entity_id", uint64(id)).Msg("player created")
	return nil
}

// SetLoginState records whether the player owned by identity is connected. Identities without a player are
// ignored.
func (w *World) SetLoginState(ctx context.Context, identity types.Identity, loggedIn bool) error {
	return w.atomic(ctx, func(tx *gamestate.Tx) error {
		player, ok := w.playerByOwner(tx, identity)
		if !ok || player.LoggedIn == loggedIn {
			return nil
		}
		player.LoggedIn = loggedIn
		assert.NoError(w.players.Update(tx, player), "update login state")
		return nil
	})
}

func (w *World) playerByOwner(tx *gamestate.Tx, identity types.Identity) (component.Player, bool) {
	player, ok, err := w.players.Lookup(tx, ownerIndex, identity.String())
	assert.NoError(err, "player owner index")
	return player, ok
}

// playerLocation resolves the location row of the player owned by identity.
func (w *World) playerLocation(tx *gamestate.Tx, identity types.Identity) (component.MobileLocation, error) {
	player, ok := w.playerByOwner(tx, identity)
	if !ok {
		return component.MobileLocation{}, eris.Wrapf(ErrMissingPlayer, "identity %s", identity)
	}
	loc, ok := w.locations.Get(tx, player.EntityID)
	if !ok {
		return component.MobileLocation{}, eris.Wrapf(ErrMissingPlayer, "player %d has no location", player.EntityID)
	}
	return loc, nil
}
