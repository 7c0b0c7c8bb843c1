package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	domainerror "github.com/0xsj/overwatch-linker/internal/domain/error"
	"github.com/0xsj/overwatch-linker/internal/domain/model"
)

var testRedisClient *redis.Client

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		// No docker: the cache and store tests skip, codec tests still run.
		fmt.Printf("redis container unavailable: %v\n", err)
		os.Exit(m.Run())
	}

	host, err := container.Host(ctx)
	if err != nil {
		fmt.Printf("failed to get redis host: %v\n", err)
		_ = container.Terminate(ctx)
		os.Exit(1)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		fmt.Printf("failed to get redis port: %v\n", err)
		_ = container.Terminate(ctx)
		os.Exit(1)
	}

	testRedisClient = redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", host, port.Port()),
	})
	if err := testRedisClient.Ping(ctx).Err(); err != nil {
		fmt.Printf("failed to connect to redis: %v\n", err)
		_ = container.Terminate(ctx)
		os.Exit(1)
	}

	code := m.Run()

	_ = testRedisClient.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func requireRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testRedisClient == nil {
		t.Skip("redis not available")
	}
	require.NoError(t, testRedisClient.FlushDB(context.Background()).Err())
	return testRedisClient
}

func TestCachedClient_RoundTrip(t *testing.T) {
	c, err := model.NewClient("alice")
	require.NoError(t, err)
	require.NoError(t, c.LinkIdentity("google:Alice"))

	restored, err := newCachedClient(c).toModel()
	require.NoError(t, err)

	assert.Equal(t, c.ID().String(), restored.ID().String())
	assert.Equal(t, "alice", restored.Name())
	assert.NoError(t, restored.VerifyIdentity("google:Alice"))

	t.Run("unlinked client keeps no identity", func(t *testing.T) {
		bare, err := model.NewClient("bob")
		require.NoError(t, err)
		restored, err := newCachedClient(bare).toModel()
		require.NoError(t, err)
		assert.False(t, restored.HasIdentity())
	})
}

func TestClientCache(t *testing.T) {
	client := requireRedis(t)
	ctx := context.Background()
	c := NewClientCache(client, time.Minute)

	miss, err := c.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, miss)

	alice, err := model.NewClient("alice")
	require.NoError(t, err)
	require.NoError(t, alice.LinkIdentity("github:Alice"))
	require.NoError(t, c.Set(ctx, alice, 0))

	hit, err := c.Get(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.NoError(t, hit.VerifyIdentity("github:Alice"))

	ttl, err := client.TTL(ctx, clientKey("alice")).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Minute)

	require.NoError(t, c.Delete(ctx, "alice"))
	gone, err := c.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestSessionStore(t *testing.T) {
	client := requireRedis(t)
	ctx := context.Background()
	store := NewSessionStore(client, time.Minute)

	h, err := store.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, h.ID())

	value, err := h.Attribute(ctx, "clientName")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, h.SetAttribute(ctx, "clientName", "alice"))

	loaded, err := store.Get(ctx, h.ID())
	require.NoError(t, err)
	value, err = loaded.Attribute(ctx, "clientName")
	require.NoError(t, err)
	assert.Equal(t, "alice", value)

	require.NoError(t, loaded.RemoveAttribute(ctx, "clientName"))
	value, err = loaded.Attribute(ctx, "clientName")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, store.Delete(ctx, h.ID()))
	_, err = store.Get(ctx, h.ID())
	assert.Equal(t, domainerror.ErrSessionNotFound, err)
	assert.Equal(t, domainerror.ErrSessionNotFound, h.SetAttribute(ctx, "clientName", "bob"))
}

func TestSessionStore_UnknownID(t *testing.T) {
	client := requireRedis(t)
	store := NewSessionStore(client, time.Minute)

	_, err := store.Get(context.Background(), "does-not-exist")
	assert.Equal(t, domainerror.ErrSessionNotFound, err)

	_, err = store.Get(context.Background(), "")
	assert.Equal(t, domainerror.ErrSessionIDRequired, err)
}
