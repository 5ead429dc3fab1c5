// Package events pushes committed row changes to every open client session.
package events

import (
	"sync"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pkg.world.dev/arena/gamestate"
)

const (
	RowsMsg = "rows"

	defaultQueueLength = 256
)

// RowsEvent carries the row changes of one committed operation.
type RowsEvent struct {
	Type    string                `json:"type"`
	Changes []gamestate.RowChange `json:"changes"`
}

type Option func(*EventHub)

// WithQueueLength sets how many undelivered events a connection may fall behind by before it is dropped.
func WithQueueLength(n int) Option {
	return func(eh *EventHub) {
		eh.queueLength = n
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(eh *EventHub) {
		eh.logger = logger
	}
}

// Connection is a registered receiver of events. Events is closed when the connection is unregistered, when the
// hub shuts down, or when the connection fell too far behind.
type Connection struct {
	events chan []byte
}

func (c *Connection) Events() <-chan []byte {
	return c.events
}

// EventHub fans every emitted event out to all registered connections. EmitEvent never blocks on a slow
// connection; a connection whose queue is full is dropped and has to resync from the query endpoints.
type EventHub struct {
	mu          sync.Mutex
	connections map[*Connection]struct{}
	queueLength int
	logger      zerolog.Logger
	shutdown    bool
}

func NewEventHub(opts ...Option) *EventHub {
	eh := &EventHub{
		connections: map[*Connection]struct{}{},
		queueLength: defaultQueueLength,
		logger:      log.Logger,
	}
	for _, opt := range opts {
		opt(eh)
	}
	return eh
}

// EmitEvent delivers event, encoded as JSON, to every registered connection.
func (eh *EventHub) EmitEvent(event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return eris.Wrap(err, "must use a json serializable type for emitting events")
	}

	eh.mu.Lock()
	defer eh.mu.Unlock()
	for conn := range eh.connections {
		select {
		case conn.events <- data:
		default:
			eh.logger.Warn().Int("queue_length", eh.queueLength).Msg("dropping connection that fell behind")
			eh.remove(conn)
		}
	}
	return nil
}

// EmitRowChanges emits the changes of one committed operation as a RowsEvent. It has the shape of a
// gamestate.CommitListener.
func (eh *EventHub) EmitRowChanges(changes []gamestate.RowChange) {
	if err := eh.EmitEvent(RowsEvent{Type: RowsMsg, Changes: changes}); err != nil {
		eh.logger.Error().Err(err).Msg(eris.ToString(err, true))
	}
}

// RegisterConnection adds a receiver. After Shutdown the returned connection is already closed.
func (eh *EventHub) RegisterConnection() *Connection {
	conn := &Connection{events: make(chan []byte, eh.queueLength)}
	eh.mu.Lock()
	defer eh.mu.Unlock()
	if eh.shutdown {
		close(conn.events)
		return conn
	}
	eh.connections[conn] = struct{}{}
	return conn
}

// UnregisterConnection removes conn. Unregistering twice is a no-op.
func (eh *EventHub) UnregisterConnection(conn *Connection) {
	eh.mu.Lock()
	defer eh.mu.Unlock()
	eh.remove(conn)
}

func (eh *EventHub) ConnectionAmount() int {
	eh.mu.Lock()
	defer eh.mu.Unlock()
	return len(eh.connections)
}

// Shutdown closes every connection and refuses new ones.
func (eh *EventHub) Shutdown() {
	eh.mu.Lock()
	defer eh.mu.Unlock()
	eh.shutdown = true
	for conn := range eh.connections {
		eh.remove(conn)
	}
}

func (eh *EventHub) remove(conn *Connection) {
	if _, ok := eh.connections[conn]; !ok {
		return
	}
	delete(eh.connections, conn)
	close(conn.events)
}
