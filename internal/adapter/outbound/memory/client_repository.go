package memory

import (
	"context"
	"sync"

	"github.com/0xsj/overwatch-pkg/types"

	"github.com/0xsj/overwatch-linker/internal/domain/model"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/repository"
)

// clientRepository is an in-process ClientRepository. Records are copied on
// the way in and out so callers never share state with the store.
type clientRepository struct {
	mu     sync.RWMutex
	byName map[string]*model.Client
	byID   map[string]string // id -> name
}

// NewClientRepository creates an empty in-memory ClientRepository.
func NewClientRepository() repository.ClientRepository {
	return &clientRepository{
		byName: make(map[string]*model.Client),
		byID:   make(map[string]string),
	}
}

func (r *clientRepository) FindByName(ctx context.Context, name string) (*model.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byName[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(c), nil
}

func (r *clientRepository) FindByID(ctx context.Context, id types.ID) (*model.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.byID[id.String()]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(r.byName[name]), nil
}

func (r *clientRepository) Save(ctx context.Context, client *model.Client) (*model.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := client.ID().String()
	if existing, ok := r.byName[client.Name()]; ok && existing.ID().String() != id {
		return nil, repository.ErrAlreadyExists
	}

	// Renames drop the old name entry
	if oldName, ok := r.byID[id]; ok && oldName != client.Name() {
		delete(r.byName, oldName)
	}

	r.byName[client.Name()] = clone(client)
	r.byID[id] = client.Name()
	return clone(client), nil
}

func (r *clientRepository) FindOrCreate(ctx context.Context, candidate *model.Client) (*model.Client, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byName[candidate.Name()]; ok {
		return clone(existing), false, nil
	}

	r.byName[candidate.Name()] = clone(candidate)
	r.byID[candidate.ID().String()] = candidate.Name()
	return clone(candidate), true, nil
}

func (r *clientRepository) Delete(ctx context.Context, id types.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.byID[id.String()]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.byID, id.String())
	delete(r.byName, name)
	return nil
}

func clone(c *model.Client) *model.Client {
	return model.ReconstructClient(c.ID(), c.Name(), c.Identity(), c.CreatedAt(), c.UpdatedAt())
}
