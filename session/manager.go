package session

import "sync"

// Manager tracks the contexts of concurrently active conversations. Each
// session maps to exactly one Context; contexts are discarded at session end.
// Safe for concurrent access.
type Manager struct {
	mu       sync.RWMutex
	contexts map[string]*Context
}

// NewManager constructs an empty session manager.
func NewManager() *Manager {
	return &Manager{contexts: make(map[string]*Context)}
}

// Get returns the context for a session, creating it lazily on first use.
func (m *Manager) Get(sessionID string) *Context {
	m.mu.RLock()
	ctx, ok := m.contexts[sessionID]
	m.mu.RUnlock()
	if ok {
		return ctx
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if ctx, ok := m.contexts[sessionID]; ok {
		return ctx
	}
	ctx = NewContext(sessionID)
	m.contexts[sessionID] = ctx
	return ctx
}

// End discards the context of a finished conversation.
func (m *Manager) End(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.contexts, sessionID)
}

// Active returns the number of live sessions.
func (m *Manager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.contexts)
}
