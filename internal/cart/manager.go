package cart

import (
	"log/slog"
	"sync"
)

// Manager hands out one cart store per shopper session, creating stores
// lazily on first use.
type Manager struct {
	mu       sync.Mutex
	stores   map[string]*Store
	sink     OrderSink
	logger   *slog.Logger
	currency string
}

// NewManager creates a session cart manager.
func NewManager(currency string, sink OrderSink, logger *slog.Logger) *Manager {
	return &Manager{
		stores:   make(map[string]*Store),
		sink:     sink,
		logger:   logger,
		currency: currency,
	}
}

// Get returns the store for the session, creating it if needed.
func (m *Manager) Get(sessionID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	store, ok := m.stores[sessionID]
	if !ok {
		store = NewStore(sessionID, m.currency, m.sink, m.logger)
		m.stores[sessionID] = store
	}
	return store
}

// Drop removes a session's store, releasing its memory.
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, sessionID)
}
