package websocket

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/brianly1003/codexdesk/internal/domain/events"
	"github.com/brianly1003/codexdesk/internal/domain/ports"
	"github.com/brianly1003/codexdesk/internal/sync"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 15 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 90 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024

	// Send buffer size per client. Streaming output arrives in bursts.
	sendBufferSize = 1024

	// Application-level heartbeat interval.
	heartbeatInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// CommandHandler handles a raw message received from a client.
type CommandHandler func(clientID string, message []byte)

// StatusProvider provides status information for heartbeat events.
type StatusProvider interface {
	SessionState() string
	UptimeSeconds() int64
}

// Handler upgrades requests on /ws and subscribes every client to the hub.
type Handler struct {
	hub            ports.EventHub
	commandHandler CommandHandler
	statusProvider StatusProvider

	mu      sync.RWMutex
	clients map[string]*Client

	heartbeatDone chan struct{}
	heartbeatSeq  int64
	startTime     time.Time
	stopOnce      sync.Once
}

// NewHandler creates a WebSocket handler publishing hub events to clients.
func NewHandler(hub ports.EventHub, commandHandler CommandHandler) *Handler {
	return &Handler{
		hub:            hub,
		commandHandler: commandHandler,
		clients:        make(map[string]*Client),
		heartbeatDone:  make(chan struct{}),
		startTime:      time.Now(),
	}
}

// SetStatusProvider sets the status provider for heartbeat events.
func (h *Handler) SetStatusProvider(provider StatusProvider) {
	h.statusProvider = provider
}

// SetCommandHandler replaces the handler for incoming client messages.
// Must be called before the first client connects.
func (h *Handler) SetCommandHandler(handler CommandHandler) {
	h.commandHandler = handler
}

// Start starts the heartbeat broadcaster.
func (h *Handler) Start() {
	go h.heartbeatLoop()
}

// Stop stops the heartbeat and closes all client connections.
func (h *Handler) Stop() {
	h.stopOnce.Do(func() {
		close(h.heartbeatDone)

		h.mu.Lock()
		for _, client := range h.clients {
			client.Close()
		}
		h.clients = make(map[string]*Client)
		h.mu.Unlock()
	})
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade connection")
		return
	}

	client := NewClient(conn, h.commandHandler, func(id string) {
		if h.hub != nil {
			h.hub.Unsubscribe(id)
		}
		h.removeClient(id)
	})

	h.mu.Lock()
	h.clients[client.ID()] = client
	h.mu.Unlock()

	if h.hub != nil {
		h.hub.Subscribe(NewClientSubscriber(client))
	}

	log.Info().
		Str("client_id", client.ID()).
		Str("remote_addr", conn.RemoteAddr().String()).
		Msg("client connected")

	client.Start()
}

// removeClient removes a client from the handler.
func (h *Handler) removeClient(id string) {
	h.mu.Lock()
	delete(h.clients, id)
	h.mu.Unlock()
	log.Info().Str("client_id", id).Msg("client disconnected")
}

// SendTo sends an event to one client. Unknown clients are ignored.
func (h *Handler) SendTo(clientID string, event events.Event) {
	h.mu.RLock()
	client := h.clients[clientID]
	h.mu.RUnlock()
	if client == nil {
		return
	}

	data, err := event.ToJSON()
	if err != nil {
		log.Warn().Err(err).Msg("failed to serialize event")
		return
	}
	client.Send(data)
}

// Broadcast sends a message to all connected clients.
func (h *Handler) Broadcast(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		client.Send(message)
	}
}

// ClientCount returns the number of connected clients.
func (h *Handler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// heartbeatLoop broadcasts periodic heartbeat events to all connected clients.
func (h *Handler) heartbeatLoop() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.heartbeatDone:
			return
		case <-ticker.C:
			h.broadcastHeartbeat()
		}
	}
}

// broadcastHeartbeat sends a heartbeat event to all connected clients.
func (h *Handler) broadcastHeartbeat() {
	if h.ClientCount() == 0 {
		return
	}

	state := "unknown"
	uptimeSeconds := int64(time.Since(h.startTime).Seconds())
	if h.statusProvider != nil {
		state = h.statusProvider.SessionState()
		uptimeSeconds = h.statusProvider.UptimeSeconds()
	}

	seq := atomic.AddInt64(&h.heartbeatSeq, 1)
	data, err := events.NewHeartbeatEvent(seq, state, uptimeSeconds).ToJSON()
	if err != nil {
		log.Warn().Err(err).Msg("failed to serialize heartbeat")
		return
	}

	h.Broadcast(data)
	log.Trace().Int64("seq", seq).Msg("heartbeat sent")
}
