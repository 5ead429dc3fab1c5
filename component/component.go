// Package component defines the rows stored in the arena tables. Every row is keyed by the entity it belongs to;
// rows never point at each other except through that shared EntityID.
package component

import "pkg.world.dev/arena/types"

// Entity marks an id as live. Every other row must reference exactly one Entity.
type Entity struct {
	EntityID types.EntityID `json:"entity_id"`
}

func (Entity) Name() string { return "entity" }

func (e Entity) ID() types.EntityID { return e.EntityID }

// Player ties an entity to the client identity that owns it.
type Player struct {
	EntityID types.EntityID `json:"entity_id"`
	OwnerID  types.Identity `json:"owner_id"`
	Username string         `json:"username"`
	LoggedIn bool           `json:"logged_in"`
}

func (Player) Name() string { return "player" }

func (p Player) ID() types.EntityID { return p.EntityID }

// Bullet is a projectile. Lifetime counts down by one per tick.
type Bullet struct {
	EntityID types.EntityID `json:"entity_id"`
	Lifetime float32        `json:"lifetime"`
}

func (Bullet) Name() string { return "bullet" }

func (b Bullet) ID() types.EntityID { return b.EntityID }

// MobileLocation is the last known position and course of an entity.
//
// Players keep an extrapolation record: the current position is Location + Direction*speed*(now-MoveStart), and
// MoveStartTimestamp is types.UnixEpoch while they stand still. Bullets are stepped by the server once per tick and
// keep MoveStartTimestamp at types.UnixEpoch.
type MobileLocation struct {
	EntityID           types.EntityID  `json:"entity_id"`
	Location           types.Vector2   `json:"location"`
	Direction          types.Vector2   `json:"direction"`
	MoveStartTimestamp types.Timestamp `json:"move_start_timestamp"`
}

func (MobileLocation) Name() string { return "mobile_location" }

func (m MobileLocation) ID() types.EntityID { return m.EntityID }

// IsMoving reports whether the record is extrapolating.
func (m MobileLocation) IsMoving() bool {
	return !m.MoveStartTimestamp.IsEpoch()
}
