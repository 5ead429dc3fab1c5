package arena

import (
	"pkg.world.dev/arena/component"
	"pkg.world.dev/arena/gamestate"
	"pkg.world.dev/arena/types"
)

// The read helpers below see committed state only.

func (w *World) Entities() ([]component.Entity, error) {
	return rows(w, w.entities)
}

func (w *World) Players() ([]component.Player, error) {
	return rows(w, w.players)
}

func (w *World) Bullets() ([]component.Bullet, error) {
	return rows(w, w.bullets)
}

func (w *World) Locations() ([]component.MobileLocation, error) {
	return rows(w, w.locations)
}

// Player returns the player owned by identity.
func (w *World) Player(identity types.Identity) (player component.Player, found bool, err error) {
	err = w.store.View(func(tx *gamestate.Tx) error {
		player, found = w.playerByOwner(tx, identity)
		return nil
	})
	return player, found, err
}

// Location returns the location row of entity id.
func (w *World) Location(id types.EntityID) (loc component.MobileLocation, found bool, err error) {
	err = w.store.View(func(tx *gamestate.Tx) error {
		loc, found = w.locations.Get(tx, id)
		return nil
	})
	return loc, found, err
}

func (w *World) Bullet(id types.EntityID) (bullet component.Bullet, found bool, err error) {
	err = w.store.View(func(tx *gamestate.Tx) error {
		bullet, found = w.bullets.Get(tx, id)
		return nil
	})
	return bullet, found, err
}

func rows[R gamestate.Row](w *World, t *gamestate.Table[R]) (out []R, err error) {
	err = w.store.View(func(tx *gamestate.Tx) error {
		out = t.Rows(tx)
		return nil
	})
	return out, err
}
