package server

import (
	"github.com/gofiber/fiber/v2/middleware/cors"

	"pkg.world.dev/arena/events"
)

type Option func(s *Server)

func WithPort(port string) Option {
	return func(s *Server) {
		s.port = port
	}
}

func WithCORS() Option {
	return func(s *Server) {
		s.app.Use(cors.New())
	}
}

// WithEventHub pushes the events emitted on hub to every websocket session. The server shuts hub down when it
// shuts down.
func WithEventHub(hub *events.EventHub) Option {
	return func(s *Server) {
		s.hub = hub
	}
}
