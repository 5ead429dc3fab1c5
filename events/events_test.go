package events_test

import (
	"testing"

	"github.com/goccy/go-json"

	"pkg.world.dev/arena/assert"
	"pkg.world.dev/arena/events"
	"pkg.world.dev/arena/gamestate"
)

func TestEmitReachesEveryConnection(t *testing.T) {
	hub := events.NewEventHub()
	first := hub.RegisterConnection()
	second := hub.RegisterConnection()
	assert.Equal(t, 2, hub.ConnectionAmount())

	hub.EmitRowChanges([]gamestate.RowChange{{
		Table:    "bullet",
		Op:       gamestate.OpInsert,
		EntityID: 3,
		Row:      json.RawMessage(`{"entity_id":3,"lifetime":32}`),
	}})

	want := `{"type":"rows","changes":[{"table":"bullet","op":"insert","entityId":3,` +
		`"row":{"entity_id":3,"lifetime":32}}]}`
	for _, conn := range []*events.Connection{first, second} {
		select {
		case bz := <-conn.Events():
			assert.JSONEq(t, want, string(bz))
		default:
			t.Fatal("event was not delivered")
		}
	}
}

func TestUnregisterClosesConnection(t *testing.T) {
	hub := events.NewEventHub()
	conn := hub.RegisterConnection()
	hub.UnregisterConnection(conn)
	hub.UnregisterConnection(conn)
	assert.Equal(t, 0, hub.ConnectionAmount())

	_, open := <-conn.Events()
	assert.Check(t, !open)

	assert.NilError(t, hub.EmitEvent("nobody listens"))
}

func TestSlowConnectionIsDropped(t *testing.T) {
	hub := events.NewEventHub(events.WithQueueLength(1))
	slow := hub.RegisterConnection()
	fast := hub.RegisterConnection()

	assert.NilError(t, hub.EmitEvent(1))
	<-fast.Events()
	assert.NilError(t, hub.EmitEvent(2))

	assert.Equal(t, 1, hub.ConnectionAmount())
	assert.Equal(t, "1", string(<-slow.Events()))
	_, open := <-slow.Events()
	assert.Check(t, !open)
	assert.Equal(t, "2", string(<-fast.Events()))
}

func TestShutdownClosesConnections(t *testing.T) {
	hub := events.NewEventHub()
	conn := hub.RegisterConnection()
	hub.Shutdown()

	_, open := <-conn.Events()
	assert.Check(t, !open)

	late := hub.RegisterConnection()
	_, open = <-late.Events()
	assert.Check(t, !open)
	assert.Equal(t, 0, hub.ConnectionAmount())
}

func TestEmitRejectsUnencodableEvent(t *testing.T) {
	hub := events.NewEventHub()
	assert.ErrorContains(t, hub.EmitEvent(make(chan int)), "json serializable")
}
