// Package realtime pushes ledger change events to connected websocket
// clients.
package realtime

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event kinds.
const (
	EventCollectionCreated  = "collection_created"
	EventCollectionUpdated  = "collection_updated"
	EventCollectionsDeleted = "collections_deleted"
	EventCollectionRemitted = "collection_remitted"
	EventPaymentUpdated     = "payment_updated"
	EventImportConfirmed    = "import_confirmed"
	EventMembersChanged     = "members_changed"
)

type Event struct {
	Type          string    `json:"type"`
	CollectionIDs []string  `json:"collection_ids,omitempty"`
	MemberID      string    `json:"member_id,omitempty"`
	At            time.Time `json:"at"`
}

// Publisher is what services use to announce ledger changes.
type Publisher interface {
	Publish(Event)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Hub struct {
	clients    map[*websocket.Conn]bool
	clientsMux sync.Mutex
	broadcast  chan Event
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Event, 64),
	}
}

// Run fans events out to clients until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.clientsMux.Lock()
			for c := range h.clients {
				c.Close()
				delete(h.clients, c)
			}
			h.clientsMux.Unlock()
			return
		case ev := <-h.broadcast:
			h.clientsMux.Lock()
			for c := range h.clients {
				c.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := c.WriteJSON(ev); err != nil {
					c.Close()
					delete(h.clients, c)
				}
			}
			h.clientsMux.Unlock()
		}
	}
}

// Publish queues an event. Events are dropped when the queue is full.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	select {
	case h.broadcast <- ev:
	default:
		log.Printf("[Realtime] Broadcast queue full, dropping %s event", ev.Type)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	return len(h.clients)
}

// ServeWS upgrades the request and keeps the client registered until it
// disconnects. Incoming messages are ignored.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("[Realtime] WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	h.clientsMux.Lock()
	h.clients[conn] = true
	h.clientsMux.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.clientsMux.Lock()
			delete(h.clients, conn)
			h.clientsMux.Unlock()
			return
		}
	}
}
