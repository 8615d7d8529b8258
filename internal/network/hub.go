package network

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"royale/internal/app"
	"royale/internal/logging"
)

// Match is the slice of a session the relay drives: roster membership,
// owner commands, and spends. *session.Session satisfies it.
type Match interface {
	Join(userID, displayName string) error
	Leave(userID string)
	Start(actorID string) error
	Pause(actorID string) error
	Resume(actorID string) error
	Reset(actorID string) error
	Spend(actorID string, amount int) error
	Snapshot() app.Snapshot
}

// Resolver finds the match behind a session ID.
type Resolver func(sessionID string) (Match, bool)

// envelope is one outbound frame addressed to a session's watchers.
type envelope struct {
	sessionID  string
	recipients []string
	data       []byte
}

func (e envelope) wants(userID string) bool {
	if len(e.recipients) == 0 {
		return true
	}
	for _, id := range e.recipients {
		if id == userID {
			return true
		}
	}
	return false
}

// Hub maintains the set of connected watchers and fans match events out
// to them. It also implements the event publisher port, so sessions
// hand their events straight to it.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
	log        logging.Logger
	metrics    metrics
}

// NewHub creates a hub. Call Run before connecting watchers.
func NewHub(log logging.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan envelope),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
		metrics:    newMetrics(),
	}
}

// Run starts the hub's main loop. Blocks until the context ends.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.metrics.Connects.Inc()
			h.log.Debug("watcher %s connected, %d online", client.userID, count)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.metrics.Disconnects.Inc()
		case env := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if client.sessionID != env.sessionID || !env.wants(client.userID) {
					continue
				}
				select {
				case client.send <- env.data:
				default:
					// drop watchers that cannot drain their queue
					close(client.send)
					delete(h.clients, client)
					h.metrics.SlowDrops.Inc()
				}
			}
			h.mu.Unlock()
			h.metrics.Broadcasts.Inc()
		}
	}
}

// Publish delivers match events to the session's watchers. Each event
// becomes one frame; recipient lists turn into private delivery.
func (h *Hub) Publish(sessionID string, events []app.Event) {
	for _, ev := range events {
		data, err := json.Marshal(Frame{Kind: string(ev.Kind), Payload: ev.Payload})
		if err != nil {
			h.log.Error("marshal %s event: %v", ev.Kind, err)
			continue
		}
		h.broadcast <- envelope{sessionID: sessionID, recipients: ev.Recipients, data: data}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS returns the websocket entry point. Watchers connect with
// ?session=<id>&name=<display name>, join the roster right after the
// upgrade, and leave it again when the socket drops. maxParticipants
// bounds the roster best-effort; zero means unbounded.
func (h *Hub) ServeWS(resolve Resolver, maxParticipants int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session")
		match, ok := resolve(sessionID)
		if !ok {
			http.Error(w, "unknown session", http.StatusNotFound)
			return
		}
		if maxParticipants > 0 && len(match.Snapshot().Participants) >= maxParticipants {
			http.Error(w, "match is full", http.StatusConflict)
			return
		}

		userID := uuid.NewString()
		name := r.URL.Query().Get("name")
		if name == "" {
			name = "watcher-" + userID[:8]
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Error("websocket upgrade: %v", err)
			return
		}
		client := &Client{
			hub:       h,
			conn:      conn,
			send:      make(chan []byte, sendBuffer),
			sessionID: sessionID,
			userID:    userID,
			match:     match,
		}
		h.register <- client
		go client.writePump()
		go client.readPump()

		// join after registration so the private roster snapshot
		// reaches this watcher
		if err := match.Join(userID, name); err != nil {
			client.sendError("", err.Error())
			conn.Close()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}
