package command

import (
	"context"

	"github.com/0xsj/overwatch-linker/internal/domain/model"
)

// ObserveCallback reports an OAuth2 provider redirect that the OAuth2 client
// layer has already validated and exchanged.
type ObserveCallback struct {
	Code      string
	State     string
	Principal *model.Principal
}

func (c ObserveCallback) CommandName() string {
	return "presence.observe_callback"
}

// ObserveCallbackHandler handles the ObserveCallback command.
type ObserveCallbackHandler interface {
	Handle(ctx context.Context, cmd ObserveCallback) error
}
