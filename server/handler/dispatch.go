package handler

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"pkg.world.dev/arena/types"
)

// Client message types accepted on the websocket session.
const (
	CreatePlayerMsg = "create_player"
	MovePlayerMsg   = "move_player"
	StopPlayerMsg   = "stop_player"
	ShootBulletMsg  = "shoot_bullet"

	ResultMsg   = "result"
	IdentityMsg = "identity"
)

var (
	ErrUnknownMessage = eris.New("unknown message type")
	ErrMissingField   = eris.New("message is missing a required field")
)

// Request is the envelope of every client message. Which fields are read depends on Type; move_player takes its
// starting point from Location.
type Request struct {
	Type      string         `json:"type"`
	Username  string         `json:"username,omitempty"`
	Location  *types.Vector2 `json:"location,omitempty"`
	Direction *types.Vector2 `json:"direction,omitempty"`
}

// Result is sent back for every client message.
type Result struct {
	Type     string         `json:"type"`
	Request  string         `json:"request"`
	OK       bool           `json:"ok"`
	Error    string         `json:"error,omitempty"`
	EntityID types.EntityID `json:"entityId,omitempty"`
}

// IdentityMessage hands a client the session token the server issued for it, together with the public identity
// the token maps to.
type IdentityMessage struct {
	Type     string             `json:"type"`
	Token    types.SessionToken `json:"token"`
	Identity types.Identity     `json:"identity"`
}

// Dispatch decodes one client message and runs the matching operation on behalf of identity.
func Dispatch(ctx context.Context, a Arena, identity types.Identity, raw []byte, now time.Time) Result {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Result{Type: ResultMsg, Error: "malformed message: " + err.Error()}
	}
	res := Result{Type: ResultMsg, Request: req.Type}
	entityID, err := dispatch(ctx, a, identity, req, now)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.OK = true
	res.EntityID = entityID
	return res
}

func dispatch(
	ctx context.Context, a Arena, identity types.Identity, req Request, now time.Time,
) (types.EntityID, error) {
	switch req.Type {
	case CreatePlayerMsg:
		if req.Username == "" {
			return types.NoEntity, eris.Wrap(ErrMissingField, "username")
		}
		return types.NoEntity, a.CreatePlayer(ctx, identity, req.Username)
	case MovePlayerMsg:
		if req.Location == nil || req.Direction == nil {
			return types.NoEntity, eris.Wrap(ErrMissingField, "location and direction")
		}
		return types.NoEntity, a.MovePlayer(ctx, identity, *req.Location, *req.Direction, now)
	case StopPlayerMsg:
		if req.Location == nil {
			return types.NoEntity, eris.Wrap(ErrMissingField, "location")
		}
		return types.NoEntity, a.StopPlayer(ctx, identity, *req.Location)
	case ShootBulletMsg:
		if req.Location == nil || req.Direction == nil {
			return types.NoEntity, eris.Wrap(ErrMissingField, "location and direction")
		}
		return a.ShootBullet(ctx, *req.Location, *req.Direction)
	default:
		return types.NoEntity, eris.Wrapf(ErrUnknownMessage, "%q", req.Type)
	}
}
