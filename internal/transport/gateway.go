package transport

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"quizrush/internal/game"
)

// Inbound event names.
const (
	eventJoin         = "join"
	eventSetTheme     = "setTheme"
	eventReady        = "ready"
	eventGuess        = "guess"
	eventPlayAgain    = "playAgain"
	eventRequestState = "requestState"
	eventLeaveRoom    = "leaveRoom"
)

// clientEnvelope is the inbound wire envelope.
type clientEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type joinRequest struct {
	Nickname string `json:"nickname"`
	RoomCode string `json:"roomCode"`
}

type themeRequest struct {
	Theme string `json:"theme"`
}

type guessRequest struct {
	Answer string `json:"answer"`
}

// Gateway routes inbound client events to the session coordinator and
// manages room-pool subscriptions around join/leave.
type Gateway struct {
	cm          *ConnectionManager
	coordinator *game.Coordinator
}

// NewGateway wires the gateway into the connection manager's message and
// disconnect hooks.
func NewGateway(cm *ConnectionManager, coordinator *game.Coordinator) *Gateway {
	g := &Gateway{cm: cm, coordinator: coordinator}
	cm.onMessage = g.handleMessage
	cm.onDisconnect = g.handleDisconnect
	return g
}

// HandleConnection upgrades an HTTP request into a game connection.
func (g *Gateway) HandleConnection(w http.ResponseWriter, r *http.Request) {
	if err := g.cm.UpgradeConnection(w, r); err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
	}
}

// HandleStats reports connection counts.
func (g *Gateway) HandleStats(w http.ResponseWriter, r *http.Request) {
	total, rooms := g.cm.Stats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{
		"total_connections": total,
		"active_rooms":      rooms,
	})
}

// RegisterRoutes registers the gateway's routes on an HTTP mux.
func (g *Gateway) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", g.HandleConnection)
	mux.HandleFunc("/ws/stats", g.HandleStats)
}

// handleMessage validates and dispatches one inbound envelope. Payloads
// that fail to parse are dropped with a debug log; the boundary never
// panics on client input.
func (g *Gateway) handleMessage(conn *Connection, raw []byte) {
	var env clientEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Debug().Err(err).Str("connection_id", conn.ID).Msg("malformed client envelope")
		return
	}

	switch env.Event {
	case eventJoin:
		var req joinRequest
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &req); err != nil {
				log.Debug().Err(err).Str("connection_id", conn.ID).Msg("malformed join payload")
				return
			}
		}
		// A connection rejected for capacity must never enter the room
		// pool; Join still runs so the requester gets its joinError.
		if !g.coordinator.CanJoin(req.RoomCode) {
			g.coordinator.Join(conn.Session, req.Nickname, req.RoomCode)
			return
		}
		// Subscribe before the coordinator broadcasts the post-join
		// snapshots, so the joiner receives them too.
		g.cm.Subscribe(conn, game.NormalizeRoomCode(req.RoomCode))
		if err := g.coordinator.Join(conn.Session, req.Nickname, req.RoomCode); err != nil {
			g.cm.Unsubscribe(conn)
		}

	case eventSetTheme:
		var req themeRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			log.Debug().Err(err).Str("connection_id", conn.ID).Msg("malformed setTheme payload")
			return
		}
		g.coordinator.SetTheme(conn.Session, req.Theme)

	case eventReady:
		g.coordinator.Ready(conn.Session)

	case eventGuess:
		var req guessRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			log.Debug().Err(err).Str("connection_id", conn.ID).Msg("malformed guess payload")
			return
		}
		g.coordinator.Guess(conn.Session, req.Answer)

	case eventPlayAgain:
		g.coordinator.PlayAgain(conn.Session)

	case eventRequestState:
		g.coordinator.RequestState(conn.Session)

	case eventLeaveRoom:
		g.coordinator.Leave(conn.Session)
		g.cm.Unsubscribe(conn)

	default:
		log.Debug().Str("connection_id", conn.ID).Str("event", env.Event).Msg("unknown client event")
	}
}

// handleDisconnect removes the dropped connection's player from its room.
func (g *Gateway) handleDisconnect(conn *Connection) {
	g.coordinator.Leave(conn.Session)
}
