package command

import (
	"context"

	"github.com/0xsj/overwatch-linker/internal/domain/model"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/session"
)

// LinkClient binds the session's authenticated principal to a display name.
// The request layer resolves the principal from the session beforehand.
type LinkClient struct {
	Name      string
	Principal *model.Principal
	Session   session.Handle
}

func (c LinkClient) CommandName() string {
	return "presence.link_client"
}

// LinkClientResult contains the linked client.
type LinkClientResult struct {
	Client      *model.Client
	IsNewClient bool
}

// LinkClientHandler handles the LinkClient command.
type LinkClientHandler interface {
	Handle(ctx context.Context, cmd LinkClient) (LinkClientResult, error)
}
