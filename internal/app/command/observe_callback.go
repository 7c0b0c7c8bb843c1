package command

import (
	"context"

	"github.com/0xsj/overwatch-pkg/log"

	"github.com/0xsj/overwatch-linker/internal/port/inbound/command"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/metrics"
)

type observeCallbackHandler struct {
	recorder metrics.Recorder
	logger   log.Logger
}

func NewObserveCallbackHandler(recorder metrics.Recorder, logger log.Logger) command.ObserveCallbackHandler {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &observeCallbackHandler{
		recorder: recorder,
		logger:   logger,
	}
}

// Handle only records the callback. The authorization code is never logged.
func (h *observeCallbackHandler) Handle(ctx context.Context, cmd command.ObserveCallback) error {
	authority := ""
	if cmd.Principal != nil {
		authority = cmd.Principal.AuthorityID()
	}

	h.recorder.CallbackObserved(authority)
	h.logger.Info("oauth callback",
		log.String("command", cmd.CommandName()),
		log.String("authority", authority),
		log.Any("code_present", cmd.Code != ""),
		log.Any("state_present", cmd.State != ""),
	)
	return nil
}
