package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/lliebig/opencelldroid/internal/core/domain"
	"github.com/lliebig/opencelldroid/internal/pkg/metrics"
)

// Event types pushed to websocket clients.
const (
	EventCellSubmitted = "cell_submitted"
	EventAreaQueried   = "area_queried"
	EventFix           = "fix"
	EventFixTimeout    = "fix_timeout"
)

// Event is one message pushed to websocket clients.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type resultPayload struct {
	RequestID string              `json:"request_id"`
	Status    domain.Status       `json:"status"`
	Report    *domain.CellReport  `json:"report,omitempty"`
	Cells     []domain.CellReport `json:"cells,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// Hub is the UI side of the engine: it observes sync results and location
// fixes and fans them out to websocket clients. It also remembers the last
// fix for manual submissions.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan []byte]struct{}
	lastFix *domain.LocationFix
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[chan []byte]struct{})}
}

// LastFix returns the most recent fix delivered to the hub.
func (h *Hub) LastFix() (domain.LocationFix, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.lastFix == nil {
		return domain.LocationFix{}, false
	}
	return *h.lastFix, true
}

func (h *Hub) OnCellSubmitted(r domain.SubmitResult) {
	report := r.Report
	h.broadcast(Event{Type: EventCellSubmitted, Data: resultPayload{
		RequestID: r.RequestID, Status: r.Status, Report: &report, Error: errText(r.Err),
	}})
}

func (h *Hub) OnAreaQueried(r domain.AreaQueryResult) {
	h.broadcast(Event{Type: EventAreaQueried, Data: resultPayload{
		RequestID: r.RequestID, Status: r.Status, Cells: r.Cells, Error: errText(r.Err),
	}})
}

func (h *Hub) OnFix(fix domain.LocationFix) {
	h.mu.Lock()
	h.lastFix = &fix
	h.mu.Unlock()
	h.broadcast(Event{Type: EventFix, Data: fix})
}

func (h *Hub) OnFixTimeout() {
	h.broadcast(Event{Type: EventFixTimeout})
}

// Subscribe registers a client queue. The returned function removes it.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 32)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.clients, ch)
		h.mu.Unlock()
	}
}

// broadcast runs on the executor and must not block: slow clients lose
// events.
func (h *Hub) broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("encode ws event", "type", ev.Type, "error", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- data:
		default:
			slog.Warn("ws client too slow, event dropped", "type", ev.Type)
		}
	}
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// WebSocketHandler streams hub events to one client until it disconnects.
func WebSocketHandler(hub *Hub) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		events, unsubscribe := hub.Subscribe()
		defer unsubscribe()

		// Reader: only detects disconnects; clients never send commands.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := c.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case data := <-events:
				if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
					return
				}
			case <-ticker.C:
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				slog.Info("ws client disconnected", "remote", remoteAddr)
				return
			}
		}
	}
}
