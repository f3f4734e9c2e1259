// Package realtime provides a lightweight in-process publish/subscribe hub
// used to fan out newly published offers to multiple listeners (e.g.
// WebSocket firehose sessions).
//
// Fan-out is best effort: a listener whose buffer is full misses events
// rather than backpressuring offer ingestion. There is no persistence or
// replay; the stream is ephemeral.
package realtime

import (
	"sync"
	"time"
)

// OfferEvent is the subset of an offer delivered over the firehose when the
// offer is published.
type OfferEvent struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	OwnerName    string    `json:"ownerName"`
	Location     string    `json:"location"`
	JobType      string    `json:"jobType"`
	Fields       []string  `json:"fields"`
	Technologies []string  `json:"technologies"`
	PublishDate  time.Time `json:"publishDate"`
}

// Event is the hub's envelope. Additional event kinds (heartbeat, hide,
// delete) can be introduced without changing channel element types; for now
// only Type == "offer" is produced.
type Event struct {
	Type  string     `json:"type"`
	Offer OfferEvent `json:"offer"`
}

// Hub is an in-memory fan-out dispatcher. Each registered listener receives
// events on its own buffered channel; if the buffer is full the event is
// dropped for that listener only.
//
// The hub is concurrency-safe.
type Hub struct {
	mu        sync.RWMutex
	listeners map[uint64]chan Event
	nextID    uint64
	bufSize   int
}

// NewHub constructs a hub with the given per-listener buffer size.
// If bufSize <= 0, a default of 32 is used.
func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 32
	}
	return &Hub{
		listeners: make(map[uint64]chan Event),
		bufSize:   bufSize,
	}
}

// Register adds a listener and returns its id and receive channel. Callers
// must Unregister(id) when done.
func (h *Hub) Register() (uint64, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.bufSize)
	h.listeners[id] = ch
	return id, ch
}

// Unregister removes a listener and closes its channel. Safe to call more
// than once; unknown ids are ignored.
func (h *Hub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(ch)
	}
}

// Broadcast delivers an event to all registered listeners, best effort.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- event:
		default:
			// Drop for slow listener.
		}
	}
}

// Size returns the current number of active listeners.
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}
