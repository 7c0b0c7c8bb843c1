package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/0xsj/overwatch-pkg/cache"
	"github.com/0xsj/overwatch-pkg/security"

	domainerror "github.com/0xsj/overwatch-linker/internal/domain/error"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/session"
)

const defaultSessionTTL = 24 * time.Hour

// SessionStore keeps sessions in a process-local cache with a sliding TTL.
// Expired sessions are swept by the cache's background cleanup, so sessions
// that are never read again do not accumulate.
type SessionStore struct {
	// mu serializes attribute read-modify-write cycles.
	mu    sync.Mutex
	ttl   time.Duration
	items *cache.MemoryCache
}

// NewSessionStore creates an in-memory session store. Call Close to stop
// the background cleanup.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionStore{
		ttl:   ttl,
		items: cache.NewMemory(cache.WithDefaultTTL(ttl)),
	}
}

var _ session.Store = (*SessionStore)(nil)

func (s *SessionStore) Create(ctx context.Context) (session.Handle, error) {
	id, err := security.RandomBase64URL(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	if err := s.items.Set(ctx, id, map[string]string{}, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &memoryHandle{store: s, id: id}, nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (session.Handle, error) {
	if id == "" {
		return nil, domainerror.ErrSessionIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	return &memoryHandle{store: s, id: id}, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.items.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close stops the background cleanup and drops all sessions.
func (s *SessionStore) Close() error {
	return s.items.Close()
}

// load returns the session attributes and slides the expiry forward.
// Callers hold s.mu.
func (s *SessionStore) load(ctx context.Context, id string) (map[string]string, error) {
	var attrs map[string]string
	if err := s.items.Get(ctx, id, &attrs); err != nil {
		if cache.IsNotFound(err) {
			return nil, domainerror.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if err := s.items.Expire(ctx, id, s.ttl); err != nil {
		if cache.IsNotFound(err) {
			_ = s.items.Delete(ctx, id)
			return nil, domainerror.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}

	if attrs == nil {
		attrs = make(map[string]string)
	}
	return attrs, nil
}

// store writes the attributes back with a fresh TTL. Callers hold s.mu.
func (s *SessionStore) store(ctx context.Context, id string, attrs map[string]string) error {
	if err := s.items.Set(ctx, id, attrs, s.ttl); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

type memoryHandle struct {
	store *SessionStore
	id    string
}

func (h *memoryHandle) ID() string {
	return h.id
}

func (h *memoryHandle) Attribute(ctx context.Context, key string) (string, error) {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	attrs, err := h.store.load(ctx, h.id)
	if err != nil {
		return "", err
	}
	return attrs[key], nil
}

func (h *memoryHandle) SetAttribute(ctx context.Context, key string, value string) error {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	attrs, err := h.store.load(ctx, h.id)
	if err != nil {
		return err
	}
	attrs[key] = value
	return h.store.store(ctx, h.id, attrs)
}

func (h *memoryHandle) RemoveAttribute(ctx context.Context, key string) error {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	attrs, err := h.store.load(ctx, h.id)
	if err != nil {
		return err
	}
	delete(attrs, key)
	return h.store.store(ctx, h.id, attrs)
}
