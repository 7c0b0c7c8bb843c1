package cache

import (
	"context"
	"time"

	"github.com/0xsj/overwatch-linker/internal/domain/model"
)

// ClientCache defines the interface for caching clients by display name.
// Used to skip the database on repeat logins.
type ClientCache interface {
	// Get retrieves a client from the cache.
	// Returns nil if not found (cache miss).
	Get(ctx context.Context, name string) (*model.Client, error)

	// Set stores a client in the cache with TTL.
	Set(ctx context.Context, client *model.Client, ttl time.Duration) error

	// Delete removes a client from the cache.
	Delete(ctx context.Context, name string) error
}
