// Package session isolates per-conversation state: one SessionContext per
// conversation ID, created on first use.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/kailas-cloud/cartwise/internal/domain"
)

// Manager hands out per-conversation contexts. The manager itself is
// safe for concurrent use; each context assumes a single writer, so
// callers must not run two queries of the same conversation in parallel.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*domain.SessionContext
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*domain.SessionContext)}
}

// Acquire returns the context for the conversation ID, creating it if
// needed. An empty ID starts a fresh conversation with a generated ID.
func (m *Manager) Acquire(id string) *domain.SessionContext {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	}
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := &domain.SessionContext{ID: id}
	m.sessions[id] = s
	return s
}

// Drop discards a conversation's state.
func (m *Manager) Drop(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len reports the number of live conversations.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
