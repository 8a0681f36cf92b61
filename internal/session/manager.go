package session

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/krishimitra/frontend/internal/ui"
)

// DefaultMaxSessions limits concurrent UI sessions to bound disk and memory use
const DefaultMaxSessions = 500

// Manager owns one UI controller per browser session.
type Manager struct {
	sessions    map[string]*ui.Controller
	mu          sync.RWMutex
	deps        ui.Deps
	maxSessions int
}

// NewManager creates a session manager. maxSessions <= 0 uses DefaultMaxSessions.
func NewManager(deps ui.Deps, maxSessions int) *Manager {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	if deps.Hub == nil {
		deps.Hub = ui.NewHub()
	}
	return &Manager{
		sessions:    make(map[string]*ui.Controller),
		deps:        deps,
		maxSessions: maxSessions,
	}
}

// Hub returns the event hub shared by all controllers.
func (m *Manager) Hub() *ui.Hub {
	return m.deps.Hub
}

// StartSession creates a controller under a fresh ID.
func (m *Manager) StartSession() *ui.Controller {
	m.evictIfNeeded()

	id := uuid.New().String()
	ctrl := ui.NewController(id, m.deps)

	m.mu.Lock()
	m.sessions[id] = ctrl
	m.mu.Unlock()

	slog.Debug("Session started", "session_id", id)
	return ctrl
}

// GetSession returns a session by ID.
func (m *Manager) GetSession(id string) (*ui.Controller, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ctrl, ok := m.sessions[id]
	return ctrl, ok
}

// GetOrStart returns the session for id, starting a new one when id is
// empty or unknown. The bool reports whether a new session was started.
func (m *Manager) GetOrStart(id string) (*ui.Controller, bool) {
	if id != "" {
		if ctrl, ok := m.GetSession(id); ok {
			return ctrl, false
		}
	}
	return m.StartSession(), true
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// EndSession removes a session and releases its stored image.
func (m *Manager) EndSession(id string) bool {
	m.mu.Lock()
	ctrl, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		m.release(ctrl)
	}
	return ok
}

// evictIfNeeded removes the least recently used idle sessions when at capacity
func (m *Manager) evictIfNeeded() {
	m.mu.Lock()

	if len(m.sessions) < m.maxSessions {
		m.mu.Unlock()
		return
	}

	type candidate struct {
		id   string
		last time.Time
	}
	var candidates []candidate
	for id, ctrl := range m.sessions {
		if ctrl.Busy() {
			continue
		}
		candidates = append(candidates, candidate{id: id, last: ctrl.LastActivity()})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].last.Before(candidates[j].last)
	})

	toFree := len(m.sessions) - m.maxSessions + 1
	var evicted []*ui.Controller
	for _, cand := range candidates {
		if len(evicted) >= toFree {
			break
		}
		evicted = append(evicted, m.sessions[cand.id])
		delete(m.sessions, cand.id)
	}
	m.mu.Unlock()

	for _, ctrl := range evicted {
		slog.Info("Evicted session to stay under capacity", "session_id", ctrl.ID())
		m.release(ctrl)
	}
}

// CleanupOldSessions removes sessions idle for longer than maxAge.
// Sessions with an analysis in flight are kept.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	var expired []*ui.Controller
	for id, ctrl := range m.sessions {
		if ctrl.Busy() || ctrl.LastActivity().After(cutoff) {
			continue
		}
		expired = append(expired, ctrl)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, ctrl := range expired {
		slog.Info("Cleaned up idle session", "session_id", ctrl.ID(),
			"idle", time.Since(ctrl.LastActivity()).Round(time.Second))
		m.release(ctrl)
	}
	return len(expired)
}

func (m *Manager) release(ctrl *ui.Controller) {
	if err := ctrl.Close(); err != nil {
		slog.Warn("Failed to release session image", "session_id", ctrl.ID(), "err", err)
	}
}
