package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/0xsj/overwatch-pkg/types"

	"github.com/0xsj/overwatch-linker/internal/domain/model"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/cache"
)

const (
	clientKeyPrefix  = "linker:client:"
	defaultClientTTL = 1 * time.Hour
)

// clientCache implements cache.ClientCache.
type clientCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewClientCache creates a new ClientCache.
func NewClientCache(client *redis.Client, ttl time.Duration) cache.ClientCache {
	if ttl == 0 {
		ttl = defaultClientTTL
	}
	return &clientCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *clientCache) Get(ctx context.Context, name string) (*model.Client, error) {
	data, err := c.client.Get(ctx, clientKey(name)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get client from cache: %w", err)
	}

	var cached cachedClient
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("failed to unmarshal client: %w", err)
	}

	return cached.toModel()
}

func (c *clientCache) Set(ctx context.Context, client *model.Client, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}

	data, err := json.Marshal(newCachedClient(client))
	if err != nil {
		return fmt.Errorf("failed to marshal client: %w", err)
	}

	if err := c.client.Set(ctx, clientKey(client.Name()), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set client in cache: %w", err)
	}
	return nil
}

func (c *clientCache) Delete(ctx context.Context, name string) error {
	if err := c.client.Del(ctx, clientKey(name)).Err(); err != nil {
		return fmt.Errorf("failed to delete client from cache: %w", err)
	}
	return nil
}

func clientKey(name string) string {
	return clientKeyPrefix + name
}

// Cached client structure for JSON serialization

type cachedClient struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Identity  *string `json:"identity,omitempty"`
	CreatedAt int64   `json:"created_at"`
	UpdatedAt int64   `json:"updated_at"`
}

func newCachedClient(c *model.Client) cachedClient {
	cached := cachedClient{
		ID:        c.ID().String(),
		Name:      c.Name(),
		CreatedAt: c.CreatedAt().Time().Unix(),
		UpdatedAt: c.UpdatedAt().Time().Unix(),
	}

	if c.Identity().IsPresent() {
		identity := c.Identity().MustGet()
		cached.Identity = &identity
	}

	return cached
}

func (c cachedClient) toModel() (*model.Client, error) {
	id, err := types.ParseID(c.ID)
	if err != nil {
		return nil, err
	}

	identity := types.None[string]()
	if c.Identity != nil {
		identity = types.Some(*c.Identity)
	}

	return model.ReconstructClient(
		id,
		c.Name,
		identity,
		types.FromTime(time.Unix(c.CreatedAt, 0)),
		types.FromTime(time.Unix(c.UpdatedAt, 0)),
	), nil
}
