package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/0xsj/overwatch-linker/internal/domain/model"
)

// --- ClientCache Mock ---

// ClientCache is a mock implementation of cache.ClientCache.
type ClientCache struct {
	mu sync.RWMutex

	// Storage
	clients map[string]*model.Client // by name

	// Call tracking
	Calls struct {
		Get    int
		Set    int
		Delete int
	}

	// Error injection
	Errors struct {
		Get    error
		Set    error
		Delete error
	}
}

// NewClientCache creates a new mock ClientCache.
func NewClientCache() *ClientCache {
	return &ClientCache{
		clients: make(map[string]*model.Client),
	}
}

func (m *ClientCache) Get(ctx context.Context, name string) (*model.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.Get++

	if m.Errors.Get != nil {
		return nil, m.Errors.Get
	}

	client, ok := m.clients[name]
	if !ok {
		return nil, nil // Cache miss
	}
	return client, nil
}

func (m *ClientCache) Set(ctx context.Context, client *model.Client, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.Set++

	if m.Errors.Set != nil {
		return m.Errors.Set
	}

	m.clients[client.Name()] = client
	return nil
}

func (m *ClientCache) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.Delete++

	if m.Errors.Delete != nil {
		return m.Errors.Delete
	}

	delete(m.clients, name)
	return nil
}

// --- Helpers ---

// Has reports whether a client is cached under name.
func (m *ClientCache) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.clients[name]
	return ok
}
