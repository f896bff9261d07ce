package dashboard

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"KastleBackOffice/api"
	"KastleBackOffice/api/constants"
	"KastleBackOffice/internal/logger"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	EventConnected   = "connected"
	EventPing        = "ping"
	EventTransaction = "transaction"
	EventToast       = "toast"
	EventKPIRefresh  = "kpi_refresh"

	DefaultPingInterval = 30 * time.Second

	clientBuffer = 32
)

// Broadcaster is what producers of live events depend on.
type Broadcaster interface {
	Broadcast(event string, data interface{}) int
}

type sseClient struct {
	id   string
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *sseClient) close() {
	c.once.Do(func() { close(c.done) })
}

// Hub fans events out to every connected dashboard view. Each view owns one
// subscription; reconnecting with the same id replaces the old stream.
type Hub struct {
	mu        sync.RWMutex
	clients   map[string]*sseClient
	pingEvery time.Duration
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewHub accepts subscriptions right away; pings begin with Start. A
// non-positive interval uses the default.
func NewHub(pingEvery time.Duration) *Hub {
	if pingEvery <= 0 {
		pingEvery = DefaultPingInterval
	}
	return &Hub{
		clients:   make(map[string]*sseClient),
		pingEvery: pingEvery,
		stopCh:    make(chan struct{}),
	}
}

func (h *Hub) Name() string { return "sse" }

func (h *Hub) Start() error {
	go h.pingClients()
	return nil
}

// RegisterRoutes mounts GET /feed.
func (h *Hub) RegisterRoutes() api.RouteRegistrar {
	return func(r *mux.Router) {
		r.HandleFunc("/feed", h.Handle).Methods(http.MethodGet)
	}
}

func frame(event string, data interface{}) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event, payload)), nil
}

// subscriptionID keeps a well-formed ?id= so a reloaded view gets its old
// slot back, and mints a fresh one otherwise.
func subscriptionID(r *http.Request) string {
	if id, err := uuid.Parse(r.URL.Query().Get("id")); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// Handle streams events to one client until it disconnects, is replaced, or
// the hub stops. The handler goroutine is the only writer for its response.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		api.RespondWithError(w, http.StatusInternalServerError, constants.ErrStreamingFailed)
		return
	}
	w.Header().Set(constants.ContentTypeText, constants.ContentTypeEvent)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	c := &sseClient{
		id:   subscriptionID(r),
		send: make(chan []byte, clientBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if old, exists := h.clients[c.id]; exists {
		old.close()
	}
	h.clients[c.id] = c
	h.mu.Unlock()

	api.LogInfo("[SSE] subscription %s connected from %s", c.id, r.RemoteAddr)
	defer func() {
		h.mu.Lock()
		if h.clients[c.id] == c {
			delete(h.clients, c.id)
		}
		h.mu.Unlock()
		api.LogInfo("[SSE] subscription %s closed", c.id)
	}()

	hello, _ := frame(EventConnected, map[string]interface{}{
		"id":   c.id,
		"time": time.Now().Format(time.RFC3339),
	})
	if _, err := w.Write(hello); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case msg := <-c.send:
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()
		case <-c.done:
			return
		case <-r.Context().Done():
			return
		case <-h.stopCh:
			return
		}
	}
}

// Broadcast queues the event for every subscription and returns how many
// accepted it. A client whose buffer is full misses the event.
func (h *Hub) Broadcast(event string, data interface{}) int {
	msg, err := frame(event, data)
	if err != nil {
		log.Printf("[SSE] encode %s: %v", event, err)
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for id, c := range h.clients {
		select {
		case c.send <- msg:
			delivered++
		default:
			log.Printf("[SSE] subscription %s is behind, dropped %s", id, event)
		}
	}
	return delivered
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) pingClients() {
	ticker := time.NewTicker(h.pingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.Broadcast(EventPing, map[string]interface{}{"time": time.Now().Format(time.RFC3339)})
		case <-h.stopCh:
			return
		}
	}
}

// Stop ends the ping loop and every open stream. Safe to call twice.
func (h *Hub) Stop() error {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		h.mu.Lock()
		for _, c := range h.clients {
			c.close()
		}
		h.clients = make(map[string]*sseClient)
		h.mu.Unlock()
		if logger.GlobalLogger != nil {
			logger.GlobalLogger.LogAudit("SSE hub stopped")
		}
	})
	return nil
}
