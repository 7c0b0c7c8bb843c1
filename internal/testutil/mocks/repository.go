// Package mocks provides mock implementations of ports for testing.
package mocks

import (
	"context"
	"sync"

	"github.com/0xsj/overwatch-pkg/types"

	"github.com/0xsj/overwatch-linker/internal/domain/model"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/repository"
)

// --- ClientRepository Mock ---

// ClientRepository is a mock implementation of repository.ClientRepository.
// FindOrCreate is atomic under the mock's lock.
type ClientRepository struct {
	mu sync.RWMutex

	// Storage
	clients map[string]*model.Client // by ID
	byName  map[string]string        // name -> ID

	// Call tracking
	Calls struct {
		FindByName   int
		FindByID     int
		Save         int
		FindOrCreate int
		Delete       int
	}

	// Error injection
	Errors struct {
		FindByName   error
		FindByID     error
		Save         error
		FindOrCreate error
		Delete       error
	}
}

// NewClientRepository creates a new mock ClientRepository.
func NewClientRepository() *ClientRepository {
	return &ClientRepository{
		clients: make(map[string]*model.Client),
		byName:  make(map[string]string),
	}
}

func (m *ClientRepository) FindByName(ctx context.Context, name string) (*model.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.FindByName++

	if m.Errors.FindByName != nil {
		return nil, m.Errors.FindByName
	}

	id, ok := m.byName[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m.clients[id], nil
}

func (m *ClientRepository) FindByID(ctx context.Context, id types.ID) (*model.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.FindByID++

	if m.Errors.FindByID != nil {
		return nil, m.Errors.FindByID
	}

	client, ok := m.clients[id.String()]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return client, nil
}

func (m *ClientRepository) Save(ctx context.Context, client *model.Client) (*model.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.Save++

	if m.Errors.Save != nil {
		return nil, m.Errors.Save
	}

	id := client.ID().String()
	if existing, ok := m.byName[client.Name()]; ok && existing != id {
		return nil, repository.ErrAlreadyExists
	}

	m.clients[id] = client
	m.byName[client.Name()] = id
	return client, nil
}

func (m *ClientRepository) FindOrCreate(ctx context.Context, candidate *model.Client) (*model.Client, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.FindOrCreate++

	if m.Errors.FindOrCreate != nil {
		return nil, false, m.Errors.FindOrCreate
	}

	if id, ok := m.byName[candidate.Name()]; ok {
		return m.clients[id], false, nil
	}

	id := candidate.ID().String()
	m.clients[id] = candidate
	m.byName[candidate.Name()] = id
	return candidate, true, nil
}

func (m *ClientRepository) Delete(ctx context.Context, id types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.Delete++

	if m.Errors.Delete != nil {
		return m.Errors.Delete
	}

	client, ok := m.clients[id.String()]
	if !ok {
		return repository.ErrNotFound
	}
	delete(m.byName, client.Name())
	delete(m.clients, id.String())
	return nil
}

// --- Helpers ---

// AddClient adds a client directly to the mock storage.
func (m *ClientRepository) AddClient(client *model.Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := client.ID().String()
	m.clients[id] = client
	m.byName[client.Name()] = id
}

// Count returns the number of stored clients.
func (m *ClientRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}
