package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizrush/internal/game"
	"quizrush/internal/quiz"
)

type staticQuestions struct{}

func (staticQuestions) Generate(ctx context.Context, theme quiz.Theme) []quiz.Question {
	return quiz.FallbackSet()
}

// receivedEvent is the outbound envelope with the payload kept raw for
// per-test decoding.
type receivedEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cm := NewConnectionManager(DefaultConnectionConfig())
	registry := game.NewRegistry()
	clock := clockwork.NewRealClock()
	timings := game.Timings{
		RoundDuration:     5 * time.Second,
		TickInterval:      time.Second,
		NextRoundDelay:    50 * time.Millisecond,
		GameStartDelay:    50 * time.Millisecond,
		AllAnsweredDelay:  50 * time.Millisecond,
		DuplicateAckDelay: 50 * time.Millisecond,
	}
	scheduler := game.NewScheduler(clock, registry, cm, timings)
	coordinator := game.NewCoordinator(registry, scheduler, cm, staticQuestions{}, clock)
	gateway := NewGateway(cm, coordinator)

	mux := http.NewServeMux()
	gateway.RegisterRoutes(mux)

	ctx, cancel := context.WithCancel(context.Background())
	go cm.Start(ctx)

	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, event string, data any) {
	t.Helper()
	msg := map[string]any{"event": event}
	if data != nil {
		msg["data"] = data
	}
	require.NoError(t, ws.WriteJSON(msg))
}

// waitEvent reads frames until the named event arrives, skipping others
// (timer ticks, interleaved snapshots).
func waitEvent(t *testing.T, ws *websocket.Conn, event string) json.RawMessage {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		ws.SetReadDeadline(deadline)
		_, raw, err := ws.ReadMessage()
		require.NoError(t, err, "waiting for %q", event)
		var ev receivedEvent
		require.NoError(t, json.Unmarshal(raw, &ev))
		if ev.Event == event {
			return ev.Data
		}
	}
	t.Fatalf("event %q never arrived", event)
	return nil
}

func TestGateway_JoinFlow(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv)
	send(t, alice, "join", map[string]string{"nickname": "Alice", "roomCode": "ws1"})

	var joined game.JoinedPayload
	require.NoError(t, json.Unmarshal(waitEvent(t, alice, "joined"), &joined))
	assert.Equal(t, "WS1", joined.RoomCode)
	assert.True(t, joined.IsCreator)
	assert.NotEmpty(t, joined.ID)

	var scoreboard []game.ScoreEntry
	require.NoError(t, json.Unmarshal(waitEvent(t, alice, "scoreboard"), &scoreboard))
	require.Len(t, scoreboard, 1)
	assert.Equal(t, "Alice", scoreboard[0].Nickname)

	// A second join reaches both members through the room pool.
	bob := dial(t, srv)
	send(t, bob, "join", map[string]string{"nickname": "Bob", "roomCode": "WS1"})

	var state game.PlayersStatePayload
	require.NoError(t, json.Unmarshal(waitEvent(t, bob, "playersState"), &state))
	assert.Len(t, state.Players, 2)

	// Alice still has the 1-player snapshot from her own join queued; keep
	// reading until the snapshot triggered by Bob's join arrives.
	for i := 0; i < 5; i++ {
		require.NoError(t, json.Unmarshal(waitEvent(t, alice, "playersState"), &state))
		if len(state.Players) == 2 {
			break
		}
	}
	assert.Len(t, state.Players, 2)
}

func TestGateway_ThemeToGameStart(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv)
	send(t, alice, "join", map[string]string{"nickname": "Alice", "roomCode": "ws2"})
	waitEvent(t, alice, "joined")

	send(t, alice, "setTheme", map[string]string{"theme": "sains"})

	var theme game.ThemeSetPayload
	require.NoError(t, json.Unmarshal(waitEvent(t, alice, "themeSet"), &theme))
	assert.Equal(t, "Sains & Teknologi", theme.Theme)

	waitEvent(t, alice, "generatingQuiz")
	waitEvent(t, alice, "quizReady")

	send(t, alice, "ready", nil)
	waitEvent(t, alice, "gameStarting")

	var round game.RoundPayload
	require.NoError(t, json.Unmarshal(waitEvent(t, alice, "round"), &round))
	assert.Equal(t, 1, round.Index)
	assert.Equal(t, quiz.QuestionsPerQuiz, round.Total)
	require.Len(t, round.Options, 4)

	// Answer and watch the result come back.
	correct := quiz.FallbackSet()[0].CorrectLabel
	send(t, alice, "guess", map[string]string{"answer": correct})

	var result game.GuessResultPayload
	require.NoError(t, json.Unmarshal(waitEvent(t, alice, "guessResult"), &result))
	assert.True(t, result.Correct)
	assert.Equal(t, 10, result.Points)
}

func TestGateway_InvalidThemeError(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv)
	send(t, alice, "join", map[string]string{"nickname": "Alice", "roomCode": "ws3"})
	waitEvent(t, alice, "joined")

	send(t, alice, "setTheme", map[string]string{"theme": "bogus"})

	var errPayload game.ErrorPayload
	require.NoError(t, json.Unmarshal(waitEvent(t, alice, "themeError"), &errPayload))
	assert.Equal(t, "Tema tidak valid", errPayload.Message)
}

func TestGateway_LeaveRoomNotifiesOthers(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv)
	send(t, alice, "join", map[string]string{"nickname": "Alice", "roomCode": "ws4"})
	waitEvent(t, alice, "joined")

	bob := dial(t, srv)
	send(t, bob, "join", map[string]string{"nickname": "Bob", "roomCode": "ws4"})
	waitEvent(t, bob, "joined")

	send(t, bob, "leaveRoom", nil)

	// Alice keeps receiving snapshots; the one triggered by the leave has a
	// single remaining player.
	var state game.PlayersStatePayload
	for i := 0; i < 5; i++ {
		require.NoError(t, json.Unmarshal(waitEvent(t, alice, "playersState"), &state))
		if len(state.Players) == 1 {
			break
		}
	}
	require.Len(t, state.Players, 1)
	assert.Equal(t, "Alice", state.Players[0].Nickname)
}

func TestGateway_RejectedJoinerGetsNoRoomTraffic(t *testing.T) {
	srv := newTestServer(t)

	members := make([]*websocket.Conn, 0, game.MaxPlayersPerRoom)
	for i := 0; i < game.MaxPlayersPerRoom; i++ {
		ws := dial(t, srv)
		send(t, ws, "join", map[string]string{"nickname": fmt.Sprintf("P%d", i), "roomCode": "full"})
		waitEvent(t, ws, "joined")
		members = append(members, ws)
	}

	overflow := dial(t, srv)
	send(t, overflow, "join", map[string]string{"nickname": "Over", "roomCode": "full"})

	var errPayload game.ErrorPayload
	require.NoError(t, json.Unmarshal(waitEvent(t, overflow, "joinError"), &errPayload))
	assert.Contains(t, errPayload.Message, "penuh")

	// A room broadcast after the rejection must not reach the overflow
	// connection.
	send(t, members[0], "requestState", nil)
	waitEvent(t, members[0], "playersState")

	overflow.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, _, err := overflow.ReadMessage()
	require.Error(t, err)
	netErr, ok := err.(net.Error)
	require.True(t, ok)
	assert.True(t, netErr.Timeout())
}

func TestGateway_MalformedPayloadIsIgnored(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv)
	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte(`{"event": "guess", "data": 42}`)))

	// The connection survives and still handles a proper join.
	send(t, alice, "join", map[string]string{"nickname": "Alice", "roomCode": "ws5"})
	waitEvent(t, alice, "joined")
}

func TestGateway_StatsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv)
	send(t, alice, "join", map[string]string{"nickname": "Alice", "roomCode": "ws6"})
	waitEvent(t, alice, "joined")

	resp, err := http.Get(srv.URL + "/ws/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var stats map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 1, stats["total_connections"])
	assert.Equal(t, 1, stats["active_rooms"])
}
