package query

import (
	"context"

	"github.com/0xsj/overwatch-linker/internal/domain/model"
)

// GetClient retrieves a client by display name.
type GetClient struct {
	Name string
}

func (q GetClient) QueryName() string {
	return "presence.get_client"
}

// GetClientResult contains the client.
type GetClientResult struct {
	Client *model.Client
}

// GetClientHandler handles the GetClient query.
type GetClientHandler interface {
	Handle(ctx context.Context, qry GetClient) (GetClientResult, error)
}
