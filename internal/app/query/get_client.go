package query

import (
	"context"
	"errors"

	domainerror "github.com/0xsj/overwatch-linker/internal/domain/error"
	"github.com/0xsj/overwatch-linker/internal/domain/model"
	"github.com/0xsj/overwatch-linker/internal/port/inbound/query"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/cache"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/repository"
)

// getClientHandler implements query.GetClientHandler.
type getClientHandler struct {
	clientRepo  repository.ClientRepository
	clientCache cache.ClientCache
}

// NewGetClientHandler creates a new GetClientHandler.
func NewGetClientHandler(
	clientRepo repository.ClientRepository,
	clientCache cache.ClientCache,
) query.GetClientHandler {
	return &getClientHandler{
		clientRepo:  clientRepo,
		clientCache: clientCache,
	}
}

func (h *getClientHandler) Handle(ctx context.Context, qry query.GetClient) (query.GetClientResult, error) {
	if qry.Name == "" {
		return query.GetClientResult{}, domainerror.ErrClientNameRequired
	}

	client, err := findClient(ctx, h.clientRepo, h.clientCache, qry.Name)
	if err != nil {
		return query.GetClientResult{}, err
	}
	return query.GetClientResult{Client: client}, nil
}

// findClient looks a client up by name, cache first.
func findClient(
	ctx context.Context,
	clientRepo repository.ClientRepository,
	clientCache cache.ClientCache,
	name string,
) (*model.Client, error) {
	// Try cache first
	if clientCache != nil {
		client, err := clientCache.Get(ctx, name)
		if err == nil && client != nil {
			return client, nil
		}
	}

	// Fallback to repository
	client, err := clientRepo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domainerror.ErrClientNotFound
		}
		return nil, err
	}

	// Populate cache
	if clientCache != nil {
		_ = clientCache.Set(ctx, client, 0) // Use default TTL
	}

	return client, nil
}
