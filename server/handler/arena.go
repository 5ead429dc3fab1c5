package handler

import (
	"context"
	"time"

	"pkg.world.dev/arena/component"
	"pkg.world.dev/arena/types"
	"pkg.world.dev/arena/worldstage"
)

// Arena is the part of *arena.World the HTTP and websocket handlers call into.
type Arena interface {
	CreatePlayer(ctx context.Context, identity types.Identity, username string) error
	MovePlayer(ctx context.Context, identity types.Identity, start, direction types.Vector2, now time.Time) error
	StopPlayer(ctx context.Context, identity types.Identity, location types.Vector2) error
	ShootBullet(ctx context.Context, location, direction types.Vector2) (types.EntityID, error)
	OnConnect(ctx context.Context, identity types.Identity) error
	OnDisconnect(ctx context.Context, identity types.Identity) error

	IsReady() bool
	IsGameLoopRunning() bool
	Stage() worldstage.Stage
	Entities() ([]component.Entity, error)
	Players() ([]component.Player, error)
	Bullets() ([]component.Bullet, error)
	Locations() ([]component.MobileLocation, error)
	Player(identity types.Identity) (component.Player, bool, error)
}
