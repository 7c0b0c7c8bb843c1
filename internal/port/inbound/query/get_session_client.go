package query

import (
	"context"

	"github.com/0xsj/overwatch-linker/internal/domain/model"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/session"
)

// GetSessionClient resolves the client the session is logged in as.
type GetSessionClient struct {
	Session session.Handle
}

func (q GetSessionClient) QueryName() string {
	return "presence.get_session_client"
}

// GetSessionClientResult contains the bound client.
type GetSessionClientResult struct {
	Client *model.Client
}

// GetSessionClientHandler handles the GetSessionClient query.
type GetSessionClientHandler interface {
	Handle(ctx context.Context, qry GetSessionClient) (GetSessionClientResult, error)
}
