package handler

import (
	"github.com/gofiber/fiber/v2"

	"pkg.world.dev/arena/worldstage"
)

type GetHealthResponse struct {
	IsServerRunning   bool             `json:"isServerRunning"`
	IsReady           bool             `json:"isReady"`
	IsGameLoopRunning bool             `json:"isGameLoopRunning"`
	Stage             worldstage.Stage `json:"stage"`
}

// GetHealth godoc
//
//	@Summary		Retrieves the status of the server, the world and its game loop
//	@Produce		application/json
//	@Success		200	{object}	GetHealthResponse	"Server and world status"
//	@Failure		503	{object}	GetHealthResponse	"World does not accept operations"
//	@Router			/health [get]
func GetHealth(a Arena) func(c *fiber.Ctx) error {
	return func(ctx *fiber.Ctx) error {
		res := GetHealthResponse{
			IsServerRunning:   true,
			IsReady:           a.IsReady(),
			IsGameLoopRunning: a.IsGameLoopRunning(),
			Stage:             a.Stage(),
		}
		if !res.IsReady {
			ctx.Status(fiber.StatusServiceUnavailable)
		}
		return ctx.JSON(res)
	}
}
