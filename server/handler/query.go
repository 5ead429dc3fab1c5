package handler

import (
	"github.com/gofiber/fiber/v2"

	"pkg.world.dev/arena/types"
)

// GetRows returns a handler that replies with every committed row returned by rows.
func GetRows[R any](rows func() ([]R, error)) func(c *fiber.Ctx) error {
	return func(ctx *fiber.Ctx) error {
		res, err := rows()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read state: "+err.Error())
		}
		return ctx.JSON(res)
	}
}

// GetPlayer godoc
//
//	@Summary		Retrieves the player owned by an identity
//	@Produce		application/json
//	@Param			identity	path		string				true	"Client identity token"
//	@Success		200			{object}	component.Player	"Player"
//	@Failure		400			{string}	string				"Invalid identity"
//	@Failure		404			{string}	string				"No player for this identity"
//	@Router			/query/player/{identity} [get]
func GetPlayer(a Arena) func(c *fiber.Ctx) error {
	return func(ctx *fiber.Ctx) error {
		identity, err := types.ParseIdentity(ctx.Params("identity"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		player, found, err := a.Player(identity)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read state: "+err.Error())
		}
		if !found {
			return fiber.NewError(fiber.StatusNotFound, "no player for identity "+identity.String())
		}
		return ctx.JSON(player)
	}
}
