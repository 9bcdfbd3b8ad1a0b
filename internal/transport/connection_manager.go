package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"quizrush/internal/game"
)

// ConnectionManager owns every WebSocket connection and the per-room
// connection pools game events are broadcast through. It implements
// game.Broadcaster.
type ConnectionManager struct {
	mu        sync.RWMutex
	roomConns map[string]map[*Connection]bool
	connsByID map[string]*Connection

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan outboundMessage

	// Set by the gateway before connections are accepted.
	onMessage    func(*Connection, []byte)
	onDisconnect func(*Connection)
}

// Connection is one WebSocket client.
type Connection struct {
	ID      string
	Session *game.Session
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time
	LastPing    time.Time

	// Room pool the connection is subscribed to, empty before join.
	room string
}

// ConnectionConfig holds WebSocket tuning knobs.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// ServerEvent is the outbound wire envelope.
type ServerEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// outboundMessage is a queued delivery: to one connection when ConnID is
// set, otherwise to every member of Room.
type outboundMessage struct {
	Room    string
	ConnID  string
	Event   string
	Payload any
}

// DefaultConnectionConfig returns the default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewConnectionManager creates a connection manager.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		roomConns: make(map[string]map[*Connection]bool),
		connsByID: make(map[string]*Connection),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan outboundMessage, 1000),
	}
}

// Start processes queued deliveries until the context is cancelled. Events
// for one room are delivered in the order they were queued.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.deliver(message)
		}
	}
}

// Broadcast queues an event for every member of a room.
func (cm *ConnectionManager) Broadcast(roomCode, event string, payload any) {
	select {
	case cm.broadcastCh <- outboundMessage{Room: roomCode, Event: event, Payload: payload}:
	default:
		log.Warn().Str("room", roomCode).Str("event", event).Msg("broadcast channel full, dropping message")
	}
}

// Unicast queues an event for a single connection.
func (cm *ConnectionManager) Unicast(connectionID, event string, payload any) {
	select {
	case cm.broadcastCh <- outboundMessage{ConnID: connectionID, Event: event, Payload: payload}:
	default:
		log.Warn().Str("connection_id", connectionID).Str("event", event).Msg("broadcast channel full, dropping message")
	}
}

// UpgradeConnection upgrades an HTTP request to a WebSocket connection and
// starts its pumps. The connection joins a room pool later, on its join
// event.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	id := uuid.New().String()
	connection := &Connection{
		ID:          id,
		Session:     &game.Session{ConnectionID: id},
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Manager:     cm,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	cm.mu.Lock()
	cm.connsByID[id] = connection
	cm.mu.Unlock()

	go connection.writePump()
	go connection.readPump()

	log.Info().Str("connection_id", id).Msg("WebSocket connection established")
	return nil
}

// Subscribe adds a connection to a room pool, moving it out of any previous
// pool first.
func (cm *ConnectionManager) Subscribe(conn *Connection, roomCode string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.removeFromRoomLocked(conn)
	if cm.roomConns[roomCode] == nil {
		cm.roomConns[roomCode] = make(map[*Connection]bool)
	}
	cm.roomConns[roomCode][conn] = true
	conn.room = roomCode

	log.Debug().
		Str("connection_id", conn.ID).
		Str("room", roomCode).
		Int("room_connections", len(cm.roomConns[roomCode])).
		Msg("connection subscribed")
}

// Unsubscribe removes a connection from its room pool, if any.
func (cm *ConnectionManager) Unsubscribe(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.removeFromRoomLocked(conn)
}

func (cm *ConnectionManager) removeFromRoomLocked(conn *Connection) {
	if conn.room == "" {
		return
	}
	if pool, ok := cm.roomConns[conn.room]; ok {
		delete(pool, conn)
		if len(pool) == 0 {
			delete(cm.roomConns, conn.room)
		}
	}
	conn.room = ""
}

// unregisterConnection tears a connection fully down.
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, ok := cm.connsByID[conn.ID]; !ok {
		return
	}
	delete(cm.connsByID, conn.ID)
	cm.removeFromRoomLocked(conn)
	close(conn.Send)

	log.Info().Str("connection_id", conn.ID).Msg("connection unregistered")
}

// deliver sends a queued message to its targets.
func (cm *ConnectionManager) deliver(message outboundMessage) {
	cm.mu.RLock()
	var targets []*Connection
	if message.ConnID != "" {
		if conn, ok := cm.connsByID[message.ConnID]; ok {
			targets = append(targets, conn)
		}
	} else {
		for conn := range cm.roomConns[message.Room] {
			targets = append(targets, conn)
		}
	}
	cm.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	data, err := json.Marshal(ServerEvent{Event: message.Event, Data: message.Payload})
	if err != nil {
		log.Error().Err(err).Str("event", message.Event).Msg("failed to marshal event")
		return
	}

	for _, conn := range targets {
		select {
		case conn.Send <- data:
		default:
			// Connection is slow/dead, close it
			log.Warn().Str("connection_id", conn.ID).Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}
}

// Stats returns connection counts for the stats endpoint.
func (cm *ConnectionManager) Stats() (totalConnections, activeRooms int) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connsByID), len(cm.roomConns)
}

// writePump drains the send channel to the socket and keeps the connection
// alive with pings.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump reads and dispatches inbound messages until the connection
// drops, then runs disconnect cleanup.
func (c *Connection) readPump() {
	defer func() {
		if c.Manager.onDisconnect != nil {
			c.Manager.onDisconnect(c)
		}
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("unexpected WebSocket close error")
			}
			break
		}
		if c.Manager.onMessage != nil {
			c.Manager.onMessage(c, message)
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
