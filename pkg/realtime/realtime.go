// Package realtime is an in-process publish/subscribe hub used by the
// preview server to tell connected browsers that the page they show is
// stale.
//
// Delivery is best effort: a listener whose buffer is full misses the
// event, and nothing is replayed to listeners that connect later.
package realtime

import (
	"sync"
	"time"
)

// Event types.
const (
	TypeReload = "reload"
	TypeHello  = "hello"
)

// Event is the envelope written to live-reload clients.
type Event struct {
	Type string    `json:"type"`
	Path string    `json:"path,omitempty"`
	At   time.Time `json:"at"`
}

// Reload builds a reload event for a change to path.
func Reload(path string) Event {
	return Event{Type: TypeReload, Path: path, At: time.Now().UTC()}
}

// Hub fans events out to every registered listener. Each listener has its
// own buffered channel; a full buffer drops the event for that listener
// only. The hub is safe for concurrent use.
type Hub struct {
	mu        sync.RWMutex
	listeners map[uint64]chan Event
	nextID    uint64
	bufSize   int
}

// NewHub returns a hub with the given per-listener buffer. If bufSize <= 0,
// a default of 8 is used.
func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 8
	}
	return &Hub{
		listeners: make(map[uint64]chan Event),
		bufSize:   bufSize,
	}
}

// Register adds a listener. Callers must Unregister the returned id.
func (h *Hub) Register() (uint64, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.bufSize)
	h.listeners[id] = ch
	return id, ch
}

// Unregister removes the listener and closes its channel. Unknown ids are
// ignored.
func (h *Hub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(ch)
	}
}

// Broadcast delivers ev to every listener and returns how many accepted it.
func (h *Hub) Broadcast(ev Event) int {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for _, ch := range h.listeners {
		select {
		case ch <- ev:
			delivered++
		default:
			// Slow listener.
		}
	}
	return delivered
}

// Size returns the number of registered listeners.
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

// Close unregisters every listener.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.listeners {
		delete(h.listeners, id)
		close(ch)
	}
}
