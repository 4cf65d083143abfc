package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"sync"
	"time"

	"tank-arena/internal/game"

	"github.com/cespare/xxhash/v2"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	// DefaultBroadcastInterval is 10 snapshots per second
	DefaultBroadcastInterval = 100 * time.Millisecond

	wsWriteTimeout  = 2 * time.Second
	wsMaxMessageLen = 1 << 10
)

// Event names on the wire
const (
	EventState = "arena:state"
	EventError = "arena:error"
)

type wsEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// wsInbound is a client message. Only "input" is accepted.
type wsInbound struct {
	Type  string     `json:"type"`
	Input game.Input `json:"input"`
}

type wsClient struct {
	conn *websocket.Conn
	ip   string

	// Inputs are accepted only from clients that presented the control token.
	control bool
}

// WebSocketHub fans snapshots out to connected clients and forwards their
// input to the session.
type WebSocketHub struct {
	clients    map[*websocket.Conn]*wsClient
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *websocket.Conn
	done       chan struct{} // closed when Run returns
	mu         sync.RWMutex

	upgrader  websocket.Upgrader
	wsLimiter *WebSocketRateLimiter
	auth      *ControlAuth
	engine    EngineInterface
	logger    *zap.Logger

	lastHash uint64 // broadcast loop only
}

// NewWebSocketHub creates a hub. engine receives client input.
func NewWebSocketHub(engine EngineInterface, origins OriginPolicy, auth *ControlAuth, logger *zap.Logger) *WebSocketHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &WebSocketHub{
		clients:    make(map[*websocket.Conn]*wsClient),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		wsLimiter:  NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
		auth:       auth,
		engine:     engine,
		logger:     logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origins.Allowed(origin) {
				return true
			}
			logger.Warn("websocket origin rejected", zap.String("origin", origin))
			RecordConnectionRejected("origin")
			return false
		},
	}
	return h
}

// Run owns the client set until ctx is cancelled, then closes every client.
func (h *WebSocketHub) Run(ctx context.Context) error {
	defer h.closeAll()
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return nil

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.Info("websocket client connected", zap.String("ip", client.ip), zap.Int("total", count))
			UpdateWSConnections(count)

		case conn := <-h.unregister:
			h.remove(conn)

		case message := <-h.broadcast:
			h.mu.RLock()
			var failed []*websocket.Conn
			for conn := range h.clients {
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					failed = append(failed, conn)
					continue
				}
				RecordWSMessage("out")
			}
			h.mu.RUnlock()
			for _, conn := range failed {
				h.remove(conn)
			}
		}
	}
}

func (h *WebSocketHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	client, ok := h.clients[conn]
	if ok {
		h.wsLimiter.Release(client.ip)
		delete(h.clients, conn)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		_ = conn.Close()
		h.logger.Info("websocket client disconnected", zap.String("ip", client.ip), zap.Int("remaining", count))
		UpdateWSConnections(count)
	}
}

func (h *WebSocketHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, client := range h.clients {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		h.wsLimiter.Release(client.ip)
		delete(h.clients, conn)
	}
	UpdateWSConnections(0)
}

// Broadcast queues an event for every client. It drops the message when
// the hub is backed up.
func (h *WebSocketHub) Broadcast(event string, data any) {
	b, err := json.Marshal(wsEnvelope{Event: event, Data: data})
	if err != nil {
		h.logger.Warn("broadcast encode failed", zap.String("event", event), zap.Error(err))
		return
	}
	h.enqueue(b)
}

func (h *WebSocketHub) enqueue(b []byte) {
	select {
	case h.broadcast <- b:
	default:
		RecordWSMessage("skipped")
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcastSnapshot sends the engine's snapshot unless it is byte-identical
// to the last one sent. It reports whether a message was queued.
func (h *WebSocketHub) broadcastSnapshot() bool {
	b, err := json.Marshal(wsEnvelope{Event: EventState, Data: h.engine.Snapshot()})
	if err != nil {
		h.logger.Warn("snapshot encode failed", zap.Error(err))
		return false
	}
	sum := xxhash.Sum64(b)
	if sum == h.lastHash {
		RecordWSMessage("skipped")
		return false
	}
	h.lastHash = sum
	h.enqueue(b)
	return true
}

// RunBroadcastLoop pushes snapshots every interval until ctx is cancelled.
// Paused or finished sessions publish nothing new, so their repeats are
// suppressed by the content hash.
func (h *WebSocketHub) RunBroadcastLoop(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultBroadcastInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if h.ClientCount() == 0 {
				continue
			}
			h.broadcastSnapshot()
		}
	}
}

// HandleWebSocket upgrades the request and starts the client read loop.
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if h.ClientCount() >= MaxWSConnectionsTotal {
		h.logger.Warn("websocket rejected: total limit reached", zap.Int("limit", MaxWSConnectionsTotal))
		RecordConnectionRejected("ws_total_limit")
		writeError(w, "too many connections", http.StatusServiceUnavailable)
		return
	}
	if !h.wsLimiter.Allow(ip) {
		h.logger.Warn("websocket rejected: per-IP limit reached", zap.String("ip", ip))
		RecordConnectionRejected("ws_ip_limit")
		writeError(w, "too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	// Browsers cannot set headers on a websocket handshake, so the token may
	// also arrive as a query parameter.
	control := h.auth.Authorized(r)
	if !control && h.auth.Enabled() {
		if tok := r.URL.Query().Get("token"); tok != "" && tokenEqual(tok, h.auth.token) {
			control = true
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.String("ip", ip), zap.Error(err))
		h.wsLimiter.Release(ip)
		return
	}
	conn.SetReadLimit(wsMaxMessageLen)

	client := &wsClient{conn: conn, ip: ip, control: control}
	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		h.wsLimiter.Release(ip)
		return
	}

	go h.readLoop(client)
}

func (h *WebSocketHub) readLoop(client *wsClient) {
	defer func() {
		select {
		case h.unregister <- client.conn:
		case <-h.done:
		}
	}()

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		RecordWSMessage("in")
		if err := h.handleMessage(client, message); err != nil {
			h.reply(client, err.Error())
		}
	}
}

type wsError string

func (e wsError) Error() string { return string(e) }

const (
	errWSMalformed    wsError = "malformed message"
	errWSUnknownType  wsError = "unknown message type"
	errWSUnauthorized wsError = "control token required"
	errWSBadInput     wsError = "lookDelta must be finite"
)

func (h *WebSocketHub) handleMessage(client *wsClient, message []byte) error {
	var msg wsInbound
	if err := json.Unmarshal(message, &msg); err != nil {
		return errWSMalformed
	}
	if msg.Type != "input" {
		return errWSUnknownType
	}
	if !client.control && h.auth.Enabled() {
		return errWSUnauthorized
	}
	if math.IsNaN(msg.Input.LookDelta) || math.IsInf(msg.Input.LookDelta, 0) {
		return errWSBadInput
	}
	return h.engine.Submit(game.InputCommand(msg.Input))
}

// reply writes directly to one client. Gorilla allows one concurrent writer,
// so it takes the hub's write lock to stay clear of Run's broadcasts.
func (h *WebSocketHub) reply(client *wsClient, message string) {
	b, err := json.Marshal(wsEnvelope{Event: EventError, Data: message})
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.conn]; !ok {
		return
	}
	_ = client.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	_ = client.conn.WriteMessage(websocket.TextMessage, b)
}
