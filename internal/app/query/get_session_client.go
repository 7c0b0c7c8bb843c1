package query

import (
	"context"

	domainerror "github.com/0xsj/overwatch-linker/internal/domain/error"
	"github.com/0xsj/overwatch-linker/internal/port/inbound/query"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/cache"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/repository"
)

// getSessionClientHandler implements query.GetSessionClientHandler.
type getSessionClientHandler struct {
	clientRepo      repository.ClientRepository
	clientCache     cache.ClientCache
	clientAttribute string
}

// NewGetSessionClientHandler creates a new GetSessionClientHandler. The
// clientAttribute must match the one the link handler writes.
func NewGetSessionClientHandler(
	clientRepo repository.ClientRepository,
	clientCache cache.ClientCache,
	clientAttribute string,
) query.GetSessionClientHandler {
	return &getSessionClientHandler{
		clientRepo:      clientRepo,
		clientCache:     clientCache,
		clientAttribute: clientAttribute,
	}
}

func (h *getSessionClientHandler) Handle(ctx context.Context, qry query.GetSessionClient) (query.GetSessionClientResult, error) {
	if qry.Session == nil {
		return query.GetSessionClientResult{}, domainerror.ErrNotLoggedIn
	}

	name, err := qry.Session.Attribute(ctx, h.clientAttribute)
	if err != nil {
		return query.GetSessionClientResult{}, err
	}
	if name == "" {
		return query.GetSessionClientResult{}, domainerror.ErrNotLoggedIn
	}

	client, err := findClient(ctx, h.clientRepo, h.clientCache, name)
	if err != nil {
		return query.GetSessionClientResult{}, err
	}
	return query.GetSessionClientResult{Client: client}, nil
}
