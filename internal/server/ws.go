package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ayusman/handplay/internal/app"
	"github.com/ayusman/handplay/internal/detector"
	"github.com/ayusman/handplay/internal/game"
)

// DefaultPushInterval paces state broadcasts at roughly 15 per second.
const DefaultPushInterval = 66 * time.Millisecond

const writeTimeout = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StateMessage is the JSON document pushed to websocket clients.
type StateMessage struct {
	Type      string                   `json:"type"`
	ClientID  string                   `json:"clientId,omitempty"`
	Mode      app.Mode                 `json:"mode"`
	Counter   *app.CounterState        `json:"counter,omitempty"`
	Game      *game.Snapshot           `json:"game,omitempty"`
	Hands     []detector.HandLandmarks `json:"hands"`
	Timestamp int64                    `json:"timestamp"`
}

type wsClient struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// StateHub broadcasts application state to every connected websocket client.
type StateHub struct {
	source   Source
	interval time.Duration
	logger   zerolog.Logger
	clients  map[string]*wsClient
	mu       sync.RWMutex
}

// NewStateHub creates a hub for source. Broadcasting starts with Run.
func NewStateHub(source Source, interval time.Duration, logger zerolog.Logger) *StateHub {
	if interval <= 0 {
		interval = DefaultPushInterval
	}
	return &StateHub{
		source:   source,
		interval: interval,
		logger:   logger.With().Str("component", "ws").Logger(),
		clients:  make(map[string]*wsClient),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *StateHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade error")
		return
	}
	defer conn.Close()

	client := &wsClient{id: uuid.NewString(), conn: conn}

	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, client.id)
		h.mu.Unlock()
		h.logger.Debug().Str("client", client.id).Msg("websocket client left")
	}()

	h.logger.Debug().Str("client", client.id).Msg("websocket client joined")

	hello := h.snapshot("hello")
	hello.ClientID = client.id
	if msg, err := json.Marshal(hello); err == nil {
		if err := client.send(msg); err != nil {
			return
		}
	}

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Clients returns the number of connected clients.
func (h *StateHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run broadcasts state at the hub interval until ctx is done.
func (h *StateHub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Broadcast()
		}
	}
}

// Broadcast sends the current state to every client once.
func (h *StateHub) Broadcast() {
	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	msg, err := json.Marshal(h.snapshot("state"))
	if err != nil {
		h.logger.Error().Err(err).Msg("encode state")
		return
	}

	for _, c := range clients {
		if err := c.send(msg); err != nil {
			h.logger.Debug().Err(err).Str("client", c.id).Msg("websocket write failed")
			c.conn.Close()
		}
	}
}

func (h *StateHub) snapshot(kind string) StateMessage {
	msg := StateMessage{
		Type:      kind,
		Mode:      h.source.Mode(),
		Hands:     []detector.HandLandmarks{},
		Timestamp: time.Now().UnixMilli(),
	}

	switch msg.Mode {
	case app.ModeGame:
		s := h.source.GameState()
		msg.Game = &s
	default:
		c := h.source.CounterState()
		msg.Counter = &c
	}

	if frame, ok := h.source.LastFrame(); ok && frame.Hands != nil {
		msg.Hands = frame.Hands
	}
	return msg
}
