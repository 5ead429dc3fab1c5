package handler

import (
	"github.com/gofiber/fiber/v2"

	"pkg.world.dev/arena/types"
)

type PostIdentityResponse struct {
	Token    types.SessionToken `json:"token"`
	Identity types.Identity     `json:"identity"`
}

// PostIdentity godoc
//
//	@Summary		Issues a new session token
//	@Description	The token is secret and opens websocket sessions (/ws?token=...). The identity it maps to is public
//	@Description	and is what the player rows carry as owner_id.
//	@Produce		application/json
//	@Success		200	{object}	PostIdentityResponse	"Freshly issued token and its identity"
//	@Router			/identity [post]
func PostIdentity() func(c *fiber.Ctx) error {
	return func(ctx *fiber.Ctx) error {
		token := types.NewSessionToken()
		return ctx.JSON(PostIdentityResponse{Token: token, Identity: token.Identity()})
	}
}
