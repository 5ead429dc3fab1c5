package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"pkg.world.dev/arena/arena"
	"pkg.world.dev/arena/assert"
	"pkg.world.dev/arena/component"
	"pkg.world.dev/arena/events"
	"pkg.world.dev/arena/gamestate"
	"pkg.world.dev/arena/server/handler"
	"pkg.world.dev/arena/types"
	"pkg.world.dev/arena/worldstage"
)

const (
	aliceToken = types.SessionToken("5f0c8a36-0f4e-4f35-8a1e-7d84f2ad0b01")
	alice      = types.Identity("9c61d7a4-3b0e-4d2f-a6a1-0e52c44b7f10")
)

func newTestServer(t *testing.T) (*Server, *arena.World) {
	s, w, _ := newTestServerWithHub(t)
	return s, w
}

func newTestServerWithHub(t *testing.T) (*Server, *arena.World, *events.EventHub) {
	client := redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hub := events.NewEventHub()
	w, err := arena.NewWorld(gamestate.NewRedisPrimitiveStorage(client), "arena",
		arena.WithCommitListener(hub.EmitRowChanges))
	assert.NilError(t, err)
	assert.NilError(t, w.Load(context.Background()))

	s, err := New(w, WithCORS(), WithEventHub(hub))
	assert.NilError(t, err)
	return s, w, hub
}

func get(t *testing.T, s *Server, path string, out any) int {
	res, err := s.app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	assert.NilError(t, err)
	defer res.Body.Close()
	if out != nil && res.StatusCode == http.StatusOK {
		bz, err := io.ReadAll(res.Body)
		assert.NilError(t, err)
		assert.NilError(t, json.Unmarshal(bz, out))
	}
	return res.StatusCode
}

func TestNewRequiresArena(t *testing.T) {
	_, err := New(nil)
	assert.ErrorContains(t, err, "non-nil arena")
}

func TestHealth(t *testing.T) {
	s, w := newTestServer(t)

	var health handler.GetHealthResponse
	assert.Equal(t, http.StatusOK, get(t, s, "/health", &health))
	assert.Check(t, health.IsServerRunning)
	assert.Check(t, !health.IsGameLoopRunning)

	assert.NilError(t, w.AdvanceBullets(context.Background(), time.Now()))
	assert.Equal(t, http.StatusOK, get(t, s, "/health", &health))
	assert.Check(t, health.IsGameLoopRunning)
	assert.Check(t, health.IsReady)
	assert.Equal(t, worldstage.Running, health.Stage)

	w.Shutdown()
	res, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NilError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	assert.NilError(t, json.NewDecoder(res.Body).Decode(&health))
	assert.Check(t, !health.IsReady)
	assert.Equal(t, worldstage.ShutDown, health.Stage)
}

func TestIssueIdentity(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.app.Test(httptest.NewRequest(http.MethodPost, "/identity", nil))
	assert.NilError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var body handler.PostIdentityResponse
	assert.NilError(t, json.NewDecoder(res.Body).Decode(&body))
	token, err := types.ParseSessionToken(body.Token.String())
	assert.NilError(t, err)
	assert.Equal(t, token.Identity(), body.Identity)
}

func TestQueries(t *testing.T) {
	s, w := newTestServer(t)
	ctx := context.Background()
	assert.NilError(t, w.CreatePlayer(ctx, alice, "alice"))
	_, err := w.ShootBullet(ctx, types.NewVector2(10, 0), types.NewVector2(1, 0))
	assert.NilError(t, err)

	var entities []component.Entity
	assert.Equal(t, http.StatusOK, get(t, s, "/query/entities", &entities))
	assert.DeepEqual(t, []component.Entity{{EntityID: 1}, {EntityID: 2}}, entities)

	var players []component.Player
	assert.Equal(t, http.StatusOK, get(t, s, "/query/players", &players))
	assert.DeepEqual(t, []component.Player{{EntityID: 1, OwnerID: alice, Username: "alice", LoggedIn: true}},
		players)

	var bullets []component.Bullet
	assert.Equal(t, http.StatusOK, get(t, s, "/query/bullets", &bullets))
	assert.DeepEqual(t, []component.Bullet{{EntityID: 2, Lifetime: arena.BulletLifetime}}, bullets)

	var locations []component.MobileLocation
	assert.Equal(t, http.StatusOK, get(t, s, "/query/locations", &locations))
	assert.Len(t, locations, 2)

	var player component.Player
	assert.Equal(t, http.StatusOK, get(t, s, "/query/player/"+alice.String(), &player))
	assert.Equal(t, "alice", player.Username)

	assert.Equal(t, http.StatusNotFound, get(t, s, "/query/player/"+types.NewSessionToken().Identity().String(), nil))
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/query/player/not-a-token", nil))
}

func TestErrorResponseBody(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/query/player/not-a-token", nil))
	assert.NilError(t, err)
	defer res.Body.Close()
	bz, err := io.ReadAll(res.Body)
	assert.NilError(t, err)

	var body ErrorResponse
	assert.NilError(t, json.Unmarshal(bz, &body))
	assert.Contains(t, body.Error.Message, "invalid identity")
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	s, _ := newTestServer(t)
	assert.Equal(t, http.StatusUpgradeRequired, get(t, s, "/ws", nil))
}

// serve runs s on a random local port and returns the websocket url of its session endpoint.
func serve(t *testing.T, s *Server) string {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NilError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.ServeListener(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		assert.NilError(t, <-errCh)
	})
	return "ws://" + ln.Addr().String() + "/ws"
}

// readType reads messages until one of type typ arrives and returns it raw.
func readType(t *testing.T, conn *websocket.Conn, typ string) []byte {
	for {
		assert.NilError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, bz, err := conn.ReadMessage()
		require.NoError(t, err)
		var envelope struct {
			Type string `json:"type"`
		}
		assert.NilError(t, json.Unmarshal(bz, &envelope))
		if envelope.Type == typ {
			return bz
		}
	}
}

func readResult(t *testing.T, conn *websocket.Conn) handler.Result {
	var res handler.Result
	assert.NilError(t, json.Unmarshal(readType(t, conn, handler.ResultMsg), &res))
	return res
}

func readRows(t *testing.T, conn *websocket.Conn) events.RowsEvent {
	var ev events.RowsEvent
	assert.NilError(t, json.Unmarshal(readType(t, conn, events.RowsMsg), &ev))
	return ev
}

func dial(t *testing.T, url string) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestWebSocketSession(t *testing.T) {
	s, w := newTestServer(t)
	url := serve(t, s)

	conn := dial(t, url+"?token="+aliceToken.String())

	assert.NilError(t, conn.WriteJSON(map[string]any{"type": "create_player", "username": "alice"}))
	assert.DeepEqual(t, handler.Result{Type: "result", Request: "create_player", OK: true}, readResult(t, conn))

	assert.NilError(t, conn.WriteJSON(map[string]any{"type": "create_player", "username": "alice"}))
	res := readResult(t, conn)
	assert.Check(t, !res.OK)
	assert.Contains(t, res.Error, "player already exists")

	assert.NilError(t, conn.WriteJSON(map[string]any{
		"type":      "shoot_bullet",
		"location":  map[string]float32{"x": 10, "z": 0},
		"direction": map[string]float32{"x": 1, "z": 0},
	}))
	assert.DeepEqual(t, handler.Result{Type: "result", Request: "shoot_bullet", OK: true, EntityID: 2},
		readResult(t, conn))

	assert.NilError(t, conn.Close())

	require.Eventually(t, func() bool {
		player, found, err := w.Player(aliceToken.Identity())
		return err == nil && found && !player.LoggedIn
	}, 5*time.Second, 10*time.Millisecond, "disconnect should log the player out")
}

func TestWebSocketSessionIssuesIdentity(t *testing.T) {
	s, w := newTestServer(t)
	url := serve(t, s)

	conn := dial(t, url)

	var issued handler.IdentityMessage
	assert.NilError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	assert.NilError(t, conn.ReadJSON(&issued))
	assert.Equal(t, "identity", issued.Type)
	assert.Equal(t, issued.Token.Identity(), issued.Identity)

	assert.NilError(t, conn.WriteJSON(map[string]any{"type": "create_player", "username": "anon"}))
	assert.Check(t, readResult(t, conn).OK)

	player, found, err := w.Player(issued.Identity)
	assert.NilError(t, err)
	assert.Check(t, found)
	assert.Equal(t, "anon", player.Username)
}

func TestWebSocketRejectsInvalidToken(t *testing.T) {
	s, _ := newTestServer(t)
	url := serve(t, s)

	_, resp, err := websocket.DefaultDialer.Dial(url+"?token=not-a-token", nil)
	assert.Check(t, err != nil)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPublicIdentityDoesNotOpenSession(t *testing.T) {
	s, w := newTestServer(t)
	url := serve(t, s)

	owner := dial(t, url+"?token="+aliceToken.String())
	assert.NilError(t, owner.WriteJSON(map[string]any{"type": "create_player", "username": "alice"}))
	assert.Check(t, readResult(t, owner).OK)

	var players []component.Player
	assert.Equal(t, http.StatusOK, get(t, s, "/query/players", &players))
	assert.Len(t, players, 1)
	published := players[0].OwnerID
	assert.Equal(t, aliceToken.Identity(), published)

	// Presenting the published identity as a token opens a session for some other identity.
	other := dial(t, url+"?token="+published.String())
	assert.NilError(t, other.WriteJSON(map[string]any{
		"type":     "stop_player",
		"location": map[string]float32{"x": 999, "z": 999},
	}))
	res := readResult(t, other)
	assert.Check(t, !res.OK)
	assert.Contains(t, res.Error, arena.ErrMissingPlayer.Error())

	loc, found, err := w.Location(players[0].EntityID)
	assert.NilError(t, err)
	assert.Check(t, found)
	assert.Equal(t, types.ZeroVector, loc.Location)
	player, _, err := w.Player(published)
	assert.NilError(t, err)
	assert.Check(t, player.LoggedIn)
}

func TestLoginStateFollowsLastSession(t *testing.T) {
	s, w, hub := newTestServerWithHub(t)
	url := serve(t, s)
	url += "?token=" + aliceToken.String()

	first := dial(t, url)
	assert.NilError(t, first.WriteJSON(map[string]any{"type": "create_player", "username": "alice"}))
	assert.Check(t, readResult(t, first).OK)
	second := dial(t, url)
	assert.NilError(t, second.WriteJSON(map[string]any{"type": "create_player", "username": "alice"}))
	assert.Check(t, !readResult(t, second).OK)
	require.Eventually(t, func() bool { return hub.ConnectionAmount() == 2 }, 5*time.Second, 10*time.Millisecond)

	loggedIn := func() bool {
		player, found, err := w.Player(aliceToken.Identity())
		return err == nil && found && player.LoggedIn
	}

	assert.NilError(t, first.Close())
	require.Eventually(t, func() bool { return hub.ConnectionAmount() == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Check(t, loggedIn(), "a session of the identity is still open")

	assert.NilError(t, second.Close())
	require.Eventually(t, func() bool { return !loggedIn() }, 5*time.Second, 10*time.Millisecond)
}

func TestWebSocketPushesRowChanges(t *testing.T) {
	s, w := newTestServer(t)
	url := serve(t, s)

	observer := dial(t, url)
	readType(t, observer, handler.IdentityMsg)

	shooter := dial(t, url+"?token="+aliceToken.String())
	assert.NilError(t, shooter.WriteJSON(map[string]any{
		"type":      "shoot_bullet",
		"location":  map[string]float32{"x": 10, "z": 0},
		"direction": map[string]float32{"x": 1, "z": 0},
	}))
	shot := readResult(t, shooter)
	require.True(t, shot.OK)
	assert.Equal(t, types.EntityID(1), shot.EntityID)

	type change struct {
		Table string
		Op    gamestate.Op
		ID    types.EntityID
	}
	flatten := func(ev events.RowsEvent) []change {
		out := make([]change, 0, len(ev.Changes))
		for _, c := range ev.Changes {
			out = append(out, change{Table: c.Table, Op: c.Op, ID: c.EntityID})
		}
		return out
	}

	inserted := readRows(t, observer)
	assert.DeepEqual(t, []change{
		{"entity", gamestate.OpInsert, shot.EntityID},
		{"bullet", gamestate.OpInsert, shot.EntityID},
		{"mobile_location", gamestate.OpInsert, shot.EntityID},
	}, flatten(inserted))

	assert.NilError(t, w.AdvanceBullets(context.Background(), time.Now()))
	stepped := readRows(t, observer)
	assert.DeepEqual(t, []change{
		{"bullet", gamestate.OpUpdate, shot.EntityID},
		{"mobile_location", gamestate.OpUpdate, shot.EntityID},
	}, flatten(stepped))
	assert.JSONEq(t, `{"entity_id":1,"lifetime":31}`, string(stepped.Changes[0].Row))

	var loc component.MobileLocation
	assert.NilError(t, json.Unmarshal(stepped.Changes[1].Row, &loc))
	assert.Equal(t, types.NewVector2(60, 0), loc.Location)
}
