package gateway

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

	"github.com/mcdev12/refbox/go/internal/models"
)

// Topic names a websocket feed.
type Topic string

const (
	// TopicSnapshots carries one frame per orchestrator tick.
	TopicSnapshots Topic = "snapshots"
	// TopicEvents carries refbox event envelopes read back from JetStream.
	TopicEvents Topic = "events"
)

// ConnectionManager fans frames out to the scoreboards, overlays and timing
// consoles connected over websocket.
type ConnectionManager struct {
	connections map[Topic]map[*Connection]bool
	latest      map[Topic][]byte
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan BroadcastMessage
}

// Connection is one websocket client subscribed to a single topic.
type Connection struct {
	ID      string
	Topic   Topic
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time
}

// ConnectionConfig holds configuration for websocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// BroadcastMessage is a frame queued for every connection on a topic. Payload
// is marshalled unless it is already a json.RawMessage.
type BroadcastMessage struct {
	Topic   Topic
	Payload any
}

// DefaultConnectionConfig returns default websocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			// pool-deck displays connect from anywhere on the LAN
			return true
		},
	}
}

// NewConnectionManager creates a new websocket connection manager.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[Topic]map[*Connection]bool),
		latest:      make(map[Topic][]byte),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan BroadcastMessage, 1000),
	}
}

// Start processes queued broadcasts until ctx is done.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP request to a websocket subscribed to topic.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, topic Topic) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Topic:       topic,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Manager:     cm,
		ConnectedAt: time.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("topic", string(topic)).
		Str("remote", r.RemoteAddr).
		Msg("websocket connection established")

	return nil
}

// registerConnection adds a connection and queues the last frame of its topic,
// so a display that joins mid-game draws the current state at once.
func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.connections[conn.Topic] == nil {
		cm.connections[conn.Topic] = make(map[*Connection]bool)
	}
	cm.connections[conn.Topic][conn] = true

	if frame, ok := cm.latest[conn.Topic]; ok {
		conn.Send <- frame
	}

	log.Debug().
		Str("connection_id", conn.ID).
		Str("topic", string(conn.Topic)).
		Int("total_connections", len(cm.connections[conn.Topic])).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.removeLocked(conn)
}

// removeLocked drops conn and closes its Send channel. Callers hold cm.mu for
// writing, and every send on Send happens under the same lock, so nothing can
// send on a closed channel.
func (cm *ConnectionManager) removeLocked(conn *Connection) {
	connections, exists := cm.connections[conn.Topic]
	if !exists {
		return
	}
	if _, exists := connections[conn]; !exists {
		return
	}

	delete(connections, conn)
	close(conn.Send)
	if len(connections) == 0 {
		delete(cm.connections, conn.Topic)
	}

	log.Info().
		Str("connection_id", conn.ID).
		Str("topic", string(conn.Topic)).
		Msg("connection unregistered")
}

// Broadcast queues a game snapshot for the snapshots topic.
func (cm *ConnectionManager) Broadcast(snapshot *models.GameSnapshot) {
	cm.enqueue(BroadcastMessage{Topic: TopicSnapshots, Payload: snapshot})
}

// BroadcastEvent queues an encoded event envelope for the events topic.
func (cm *ConnectionManager) BroadcastEvent(envelope json.RawMessage) {
	cm.enqueue(BroadcastMessage{Topic: TopicEvents, Payload: envelope})
}

func (cm *ConnectionManager) enqueue(message BroadcastMessage) {
	select {
	case cm.broadcastCh <- message:
	default:
		log.Warn().Str("topic", string(message.Topic)).Msg("broadcast channel full, dropping message")
	}
}

func (cm *ConnectionManager) handleBroadcast(message BroadcastMessage) {
	var data []byte
	if raw, ok := message.Payload.(json.RawMessage); ok {
		data = raw
	} else {
		var err error
		data, err = json.Marshal(message.Payload)
		if err != nil {
			log.Error().Err(err).Str("topic", string(message.Topic)).Msg("failed to marshal frame for broadcast")
			return
		}
	}

	// sends never block, so the whole fan-out runs under the lock
	cm.mu.Lock()
	cm.latest[message.Topic] = data
	sent := len(cm.connections[message.Topic])
	var slow []*Connection
	for conn := range cm.connections[message.Topic] {
		select {
		case conn.Send <- data:
		default:
			slow = append(slow, conn)
		}
	}
	for _, conn := range slow {
		log.Warn().
			Str("connection_id", conn.ID).
			Msg("connection send buffer full, closing connection")
		cm.removeLocked(conn)
	}
	cm.mu.Unlock()

	for _, conn := range slow {
		conn.Conn.Close()
	}

	log.Debug().
		Str("topic", string(message.Topic)).
		Int("connections", sent-len(slow)).
		Msg("frame broadcasted")
}

func (cm *ConnectionManager) latestFrame(topic Topic) ([]byte, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	frame, ok := cm.latest[topic]
	return frame, ok
}

// ConnectionStats counts open connections per topic.
type ConnectionStats struct {
	TotalConnections int            `json:"total_connections"`
	Topics           map[string]int `json:"topics"`
}

// GetConnectionStats returns statistics about active connections.
func (cm *ConnectionManager) GetConnectionStats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := ConnectionStats{Topics: make(map[string]int)}
	for topic, connections := range cm.connections {
		stats.TotalConnections += len(connections)
		stats.Topics[string(topic)] = len(connections)
	}
	return stats
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
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
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to websocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump only keeps the read deadline alive. Displays never send commands.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected websocket close error")
			}
			break
		}

		log.Debug().
			Str("connection_id", c.ID).
			Int("bytes", len(message)).
			Msg("ignoring client message")
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
