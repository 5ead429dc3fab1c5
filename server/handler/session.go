package handler

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pkg.world.dev/arena/events"
	arenalog "pkg.world.dev/arena/log"
	"pkg.world.dev/arena/types"
)

const (
	writeDeadline = 5 * time.Second

	localToken  = "sessionToken"
	localIssued = "sessionTokenIssued"
)

// WebSocketUpgrader resolves the session token from the token query parameter, issuing a new one when the
// parameter is absent, before letting the upgrade through.
func WebSocketUpgrader(c *fiber.Ctx) error {
	// IsWebSocketUpgrade returns true if the client
	// requested upgrade to the WebSocket protocol.
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	raw := c.Query("token")
	if raw == "" {
		c.Locals(localToken, types.NewSessionToken())
		c.Locals(localIssued, true)
		return eris.Wrap(c.Next(), "")
	}
	token, err := types.ParseSessionToken(raw)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	c.Locals(localToken, token)
	return eris.Wrap(c.Next(), "")
}

// sessionCounter tracks how many sessions each identity has open, so only the first connect and the last
// disconnect change its login state.
type sessionCounter struct {
	mu   sync.Mutex
	open map[types.Identity]int
}

func (s *sessionCounter) connect(ctx context.Context, a Arena, identity types.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open[identity]++
	if s.open[identity] > 1 {
		return nil
	}
	return a.OnConnect(ctx, identity)
}

func (s *sessionCounter) disconnect(ctx context.Context, a Arena, identity types.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open[identity]--
	if s.open[identity] > 0 {
		return nil
	}
	delete(s.open, identity)
	return a.OnDisconnect(ctx, identity)
}

// sessionWriter serializes writes from the request loop and the event feed.
type sessionWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *sessionWriter) writeJSON(v any) error {
	bz, err := json.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "")
	}
	return w.write(bz)
}

func (w *sessionWriter) write(bz []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
		return eris.Wrap(err, "")
	}
	return eris.Wrap(w.conn.WriteMessage(websocket.TextMessage, bz), "")
}

func (w *sessionWriter) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.Close()
}

// forward writes every event of feed to the client until ctx is done. When the hub drops the feed the connection
// is closed, which ends the session.
func (w *sessionWriter) forward(ctx context.Context, feed *events.Connection, logger *zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case bz, ok := <-feed.Events():
			if !ok {
				logger.Debug().Msg("event feed closed, ending session")
				w.close()
				return
			}
			if err := w.write(bz); err != nil {
				logger.Err(err).Msg("websocket write event failed")
				w.close()
				return
			}
		}
	}
}

// WebSocketSession runs one client session: OnConnect when the first session of an identity opens, one Dispatch
// per text message, every committed row change of hub pushed as it happens, and OnDisconnect when the last session
// of the identity closes. hub may be nil, in which case no changes are pushed.
func WebSocketSession(a Arena, hub *events.EventHub) func(c *fiber.Ctx) error {
	sessions := &sessionCounter{open: map[types.Identity]int{}}
	sessionLogger := arenalog.CreateSystemLogger(&log.Logger, "session")

	return websocket.New(func(conn *websocket.Conn) {
		token, _ := conn.Locals(localToken).(types.SessionToken)
		identity := token.Identity()
		logger := sessionLogger.With().Str("identity", identity.String()).Logger()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		w := &sessionWriter{conn: conn}

		// Registered before anything else is written, so a client that saw its first message misses no change.
		var feed *events.Connection
		if hub != nil {
			feed = hub.RegisterConnection()
			defer hub.UnregisterConnection(feed)
		}

		if issued, _ := conn.Locals(localIssued).(bool); issued {
			if err := w.writeJSON(IdentityMessage{Type: IdentityMsg, Token: token, Identity: identity}); err != nil {
				logger.Err(err).Msg("websocket write identity failed")
				return
			}
		}

		if feed != nil {
			forwardDone := make(chan struct{})
			go func() {
				defer close(forwardDone)
				w.forward(ctx, feed, &logger)
			}()
			// The connection must not be touched once the handler returns.
			defer func() {
				cancel()
				<-forwardDone
			}()
		}

		if err := sessions.connect(ctx, a, identity); err != nil {
			logger.Error().Err(err).Msg(eris.ToString(err, true))
		}
		defer func() {
			if err := sessions.disconnect(context.Background(), a, identity); err != nil {
				logger.Error().Err(err).Msg(eris.ToString(err, true))
			}
		}()

		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				logger.Debug().Err(err).Msg("websocket session closed")
				return
			}
			if mt != websocket.TextMessage {
				continue
			}
			res := Dispatch(ctx, a, identity, msg, time.Now())
			if err := w.writeJSON(res); err != nil {
				logger.Err(err).Msg("websocket write message failed")
				return
			}
		}
	})
}
