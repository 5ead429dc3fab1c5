package server

import (
	"context"
	"net"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"pkg.world.dev/arena/events"
	"pkg.world.dev/arena/server/handler"
)

const (
	defaultPort     = "4040"
	shutdownTimeout = 5 * time.Second
)

type Server struct {
	app   *fiber.App
	arena handler.Arena
	hub   *events.EventHub
	port  string
}

// New returns an HTTP server exposing health, session token issue, the read only table queries and the websocket
// session endpoint of a.
func New(a handler.Arena, opts ...Option) (*Server, error) {
	if a == nil {
		return nil, eris.New("server requires a non-nil arena")
	}

	app := fiber.New(fiber.Config{
		Network:               "tcp", // Enable server listening on both ipv4 & ipv6 (default: ipv4 only)
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	s := &Server{
		app:   app,
		arena: a,
		port:  defaultPort,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()

	return s, nil
}

// Serve serves the application, blocking the calling thread until ctx is cancelled or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+s.port)
	if err != nil {
		return eris.Wrapf(err, "failed to listen on port %s", s.port)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener is Serve on an already bound listener.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	serverErr := make(chan error, 1)

	go func() {
		log.Info().Msgf("Starting HTTP server at %s", ln.Addr())
		if err := s.app.Listener(ln); err != nil {
			serverErr <- eris.Wrap(err, "error starting http server")
		}
	}()

	select {
	case err := <-serverErr:
		return eris.Wrap(err, "server encountered an error")
	case <-ctx.Done():
		if err := s.shutdown(); err != nil {
			return eris.Wrap(err, "error shutting down server")
		}
	}

	return nil
}

func (s *Server) shutdown() error {
	log.Info().Msg("Shutting down server")

	// Ends every open session so the shutdown below does not wait on them.
	if s.hub != nil {
		s.hub.Shutdown()
	}

	if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return eris.Wrap(err, "error shutting down server")
	}

	log.Info().Msg("Successfully shut down server")
	return nil
}

func (s *Server) setupRoutes() {
	// Route: /...
	s.app.Get("/health", handler.GetHealth(s.arena))
	s.app.Post("/identity", handler.PostIdentity())

	// Route: /ws
	s.app.Use("/ws", handler.WebSocketUpgrader)
	s.app.Get("/ws", handler.WebSocketSession(s.arena, s.hub))

	// Route: /query/...
	q := s.app.Group("/query")
	q.Get("/entities", handler.GetRows(s.arena.Entities))
	q.Get("/players", handler.GetRows(s.arena.Players))
	q.Get("/bullets", handler.GetRows(s.arena.Bullets))
	q.Get("/locations", handler.GetRows(s.arena.Locations))
	q.Get("/player/:identity", handler.GetPlayer(s.arena))
}
