package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/0xsj/overwatch-pkg/security"

	domainerror "github.com/0xsj/overwatch-linker/internal/domain/error"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/session"
)

const (
	sessionKeyPrefix  = "linker:session:"
	defaultSessionTTL = 24 * time.Hour

	// createdField marks a session hash as existing even with no attributes.
	createdField = "_created"
)

// sessionStore implements session.Store with one hash per session.
// Every access slides the expiry forward by ttl.
type sessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a Redis-backed session store.
func NewSessionStore(client *redis.Client, ttl time.Duration) session.Store {
	if ttl == 0 {
		ttl = defaultSessionTTL
	}
	return &sessionStore{
		client: client,
		ttl:    ttl,
	}
}

func (s *sessionStore) Create(ctx context.Context) (session.Handle, error) {
	id, err := security.RandomBase64URL(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	key := sessionKey(id)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, createdField, time.Now().Unix())
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &sessionHandle{store: s, id: id}, nil
}

func (s *sessionStore) Get(ctx context.Context, id string) (session.Handle, error) {
	if id == "" {
		return nil, domainerror.ErrSessionIDRequired
	}

	// EXPIRE reports false when the key does not exist
	ok, err := s.client.Expire(ctx, sessionKey(id), s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !ok {
		return nil, domainerror.ErrSessionNotFound
	}

	return &sessionHandle{store: s, id: id}, nil
}

func (s *sessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// sessionHandle is a view of one session hash.
type sessionHandle struct {
	store *sessionStore
	id    string
}

func (h *sessionHandle) ID() string {
	return h.id
}

func (h *sessionHandle) Attribute(ctx context.Context, key string) (string, error) {
	value, err := h.store.client.HGet(ctx, sessionKey(h.id), key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("failed to read session attribute: %w", err)
	}
	return value, nil
}

func (h *sessionHandle) SetAttribute(ctx context.Context, key string, value string) error {
	k := sessionKey(h.id)

	// Refuse to resurrect an expired session
	exists, err := h.store.client.Exists(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if exists == 0 {
		return domainerror.ErrSessionNotFound
	}

	pipe := h.store.client.TxPipeline()
	pipe.HSet(ctx, k, key, value)
	pipe.Expire(ctx, k, h.store.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write session attribute: %w", err)
	}
	return nil
}

func (h *sessionHandle) RemoveAttribute(ctx context.Context, key string) error {
	if err := h.store.client.HDel(ctx, sessionKey(h.id), key).Err(); err != nil {
		return fmt.Errorf("failed to remove session attribute: %w", err)
	}
	return nil
}
