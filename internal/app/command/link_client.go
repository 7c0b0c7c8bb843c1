package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/0xsj/overwatch-pkg/log"

	domainerror "github.com/0xsj/overwatch-linker/internal/domain/error"
	"github.com/0xsj/overwatch-linker/internal/domain/event"
	"github.com/0xsj/overwatch-linker/internal/domain/model"
	"github.com/0xsj/overwatch-linker/internal/port/inbound/command"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/cache"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/messaging"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/metrics"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/repository"
)

// DefaultClientAttribute is the session attribute holding the logged-in name.
const DefaultClientAttribute = "clientName"

// LinkClientConfig configures the link handler.
type LinkClientConfig struct {
	// ClientAttribute is the session attribute set to the client name.
	ClientAttribute string

	// CacheTTL is how long linked clients stay in the client cache.
	// Zero uses the cache default.
	CacheTTL time.Duration
}

type linkClientHandler struct {
	clientRepo  repository.ClientRepository
	clientCache cache.ClientCache
	publisher   messaging.EventPublisher
	recorder    metrics.Recorder
	logger      log.Logger
	config      LinkClientConfig
}

func NewLinkClientHandler(
	clientRepo repository.ClientRepository,
	clientCache cache.ClientCache,
	publisher messaging.EventPublisher,
	recorder metrics.Recorder,
	logger log.Logger,
	config LinkClientConfig,
) command.LinkClientHandler {
	if config.ClientAttribute == "" {
		config.ClientAttribute = DefaultClientAttribute
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &linkClientHandler{
		clientRepo:  clientRepo,
		clientCache: clientCache,
		publisher:   publisher,
		recorder:    recorder,
		logger:      logger,
		config:      config,
	}
}

func (h *linkClientHandler) Handle(ctx context.Context, cmd command.LinkClient) (command.LinkClientResult, error) {
	// 1. Validate input before touching any store
	if cmd.Name == "" {
		h.recorder.LinkOutcome(metrics.OutcomeInvalid)
		return command.LinkClientResult{}, domainerror.ErrClientNameRequired
	}
	if cmd.Principal == nil {
		h.recorder.LinkOutcome(metrics.OutcomeInvalid)
		return command.LinkClientResult{}, domainerror.ErrPrincipalRequired
	}
	if cmd.Session == nil {
		h.recorder.LinkOutcome(metrics.OutcomeInvalid)
		return command.LinkClientResult{}, domainerror.ErrSessionNotFound
	}

	authority := cmd.Principal.AuthorityID()
	identity := model.DeriveIdentity(cmd.Principal)

	h.logger.Info("oauth login",
		log.String("command", cmd.CommandName()),
		log.String("name", cmd.Name),
		log.String("authority", authority),
	)

	// 2. Resolve or claim the name
	client, created, err := h.resolve(ctx, cmd.Name, identity)
	if err != nil {
		if errors.Is(err, domainerror.ErrIdentityConflict) {
			h.recorder.LinkOutcome(metrics.OutcomeConflict)
			h.logger.Warn("someone else uses this name",
				log.String("name", cmd.Name),
				log.String("authority", authority),
			)
			if client != nil {
				_ = h.publisher.Publish(ctx, event.NewClientLinkRejected(client.ID(), cmd.Name, authority))
			}
			return command.LinkClientResult{}, domainerror.ErrIdentityConflict
		}
		h.recorder.LinkOutcome(metrics.OutcomeError)
		return command.LinkClientResult{}, err
	}

	// 3. Publish event
	if created {
		h.recorder.LinkOutcome(metrics.OutcomeCreated)
		h.logger.Info("welcome new user", log.String("name", cmd.Name))
		_ = h.publisher.Publish(ctx, event.NewClientRegistered(client.ID(), client.Name(), authority))
	} else {
		h.recorder.LinkOutcome(metrics.OutcomeReturning)
		h.logger.Info("welcome back", log.String("name", cmd.Name))
		_ = h.publisher.Publish(ctx, event.NewClientLinked(client.ID(), client.Name(), authority))
	}

	// 4. Populate cache
	if h.clientCache != nil {
		if err := h.clientCache.Set(ctx, client, h.config.CacheTTL); err != nil {
			h.logger.Warn("failed to cache client",
				log.String("name", cmd.Name),
				log.String("error", err.Error()),
			)
		}
	}

	// 5. Mark the session as logged in
	if err := cmd.Session.SetAttribute(ctx, h.config.ClientAttribute, client.Name()); err != nil {
		return command.LinkClientResult{}, fmt.Errorf("failed to bind session: %w", err)
	}

	return command.LinkClientResult{
		Client:      client,
		IsNewClient: created,
	}, nil
}

// resolve returns the client stored under name once it is known to belong to
// identity. On ErrIdentityConflict the conflicting stored client is returned
// alongside the error.
func (h *linkClientHandler) resolve(ctx context.Context, name string, identity string) (*model.Client, bool, error) {
	// Cache fast path: only a verified hit short-circuits, anything else
	// is decided by the repository.
	if h.clientCache != nil {
		cached, err := h.clientCache.Get(ctx, name)
		if err != nil {
			h.logger.Warn("client cache lookup failed",
				log.String("name", name),
				log.String("error", err.Error()),
			)
		} else if cached != nil && cached.VerifyIdentity(identity) == nil {
			return cached, false, nil
		}
	}

	candidate, err := model.NewClient(name)
	if err != nil {
		return nil, false, err
	}
	if err := candidate.LinkIdentity(identity); err != nil {
		return nil, false, err
	}

	stored, created, err := h.clientRepo.FindOrCreate(ctx, candidate)
	if err != nil {
		return nil, false, fmt.Errorf("failed to find or create client: %w", err)
	}
	if created {
		return stored, true, nil
	}

	if err := stored.VerifyIdentity(identity); err != nil {
		return stored, false, err
	}
	return stored, false, nil
}
