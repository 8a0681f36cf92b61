package ui

import (
	"sync"
	"time"

	"github.com/krishimitra/frontend/internal/models"
)

// EventType names a controller state change.
type EventType string

const (
	EventSection    EventType = "section"
	EventPreview    EventType = "preview"
	EventAlert      EventType = "alert"
	EventDrag       EventType = "drag"
	EventLoading    EventType = "loading"
	EventResult     EventType = "result"
	EventTranscript EventType = "transcript"
)

// Event is published after the controller state has changed.
type Event struct {
	Type      EventType           `json:"type"`
	SessionID string              `json:"sessionId"`
	Section   models.Section      `json:"section,omitempty"`
	File      *models.FileInfo    `json:"file,omitempty"`
	Alert     string              `json:"alert,omitempty"`
	Active    bool                `json:"active"` // loading / drag highlight
	Panel     *models.ResultPanel `json:"panel,omitempty"`
	Message   *models.ChatMessage `json:"message,omitempty"`
	Timestamp int64               `json:"timestamp"`
}

const subscriberBuffer = 64

// Hub fans events out to the subscribers of the session they belong to.
// Slow subscribers lose events rather than stall the publisher.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]chan Event
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan Event)}
}

// Subscribe registers a listener for the events of one session. The
// returned func unsubscribes and closes the channel.
func (h *Hub) Subscribe(sessionID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[int]chan Event)
	}
	h.subs[sessionID][id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[sessionID], id)
			if len(h.subs[sessionID]) == 0 {
				delete(h.subs, sessionID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers ev to the subscribers of ev.SessionID without blocking.
func (h *Hub) Publish(ev Event) {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().UnixMilli()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs[ev.SessionID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, session := range h.subs {
		n += len(session)
	}
	return n
}
