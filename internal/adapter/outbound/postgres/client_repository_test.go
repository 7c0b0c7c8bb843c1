package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/0xsj/overwatch-pkg/types"

	"github.com/0xsj/overwatch-linker/internal/domain/model"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/repository"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("linker_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		// No docker: the repository tests skip, mapper tests still run.
		fmt.Printf("postgres container unavailable: %v\n", err)
		os.Exit(m.Run())
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err == nil {
		testPool, err = pgxpool.New(ctx, connStr)
	}
	if err == nil {
		err = Migrate(ctx, testPool)
	}
	if err != nil {
		fmt.Printf("failed to prepare database: %v\n", err)
		_ = container.Terminate(ctx)
		os.Exit(1)
	}

	code := m.Run()

	testPool.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func newTestRepository(t *testing.T) repository.ClientRepository {
	t.Helper()
	if testPool == nil {
		t.Skip("postgres not available")
	}
	_, err := testPool.Exec(context.Background(), "TRUNCATE TABLE clients")
	require.NoError(t, err)
	return NewClientRepository(testPool)
}

func linkedClient(t *testing.T, name, identity string) *model.Client {
	t.Helper()
	c, err := model.NewClient(name)
	require.NoError(t, err)
	require.NoError(t, c.LinkIdentity(identity))
	return c
}

func TestClientRepository_FindOrCreate(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first := linkedClient(t, "alice", "google:Alice")
	stored, created, err := repo.FindOrCreate(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, first.ID().String(), stored.ID().String())

	second := linkedClient(t, "alice", "github:Mallory")
	existing, created, err := repo.FindOrCreate(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID().String(), existing.ID().String())
	assert.NoError(t, existing.VerifyIdentity("google:Alice"))
}

func TestClientRepository_FindOrCreate_Concurrent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	candidates := make([]*model.Client, workers)
	for i := range candidates {
		candidates[i] = linkedClient(t, "contested", fmt.Sprintf("google:user-%d", i))
	}

	for _, c := range candidates {
		wg.Add(1)
		go func(c *model.Client) {
			defer wg.Done()
			_, created, err := repo.FindOrCreate(ctx, c)
			assert.NoError(t, err)
			if created {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}(c)
	}
	wg.Wait()

	assert.Equal(t, 1, winners)

	var count int
	require.NoError(t, testPool.QueryRow(ctx, "SELECT COUNT(*) FROM clients WHERE name = $1", "contested").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestClientRepository_FindByName(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.FindByName(ctx, "nobody")
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	c, err := model.NewClient("legacy")
	require.NoError(t, err)
	_, err = repo.Save(ctx, c)
	require.NoError(t, err)

	found, err := repo.FindByName(ctx, "legacy")
	require.NoError(t, err)
	assert.False(t, found.HasIdentity())
	assert.Equal(t, model.ClientStateRegisteredNoIdentity, found.State())
}

func TestClientRepository_SaveAndDelete(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	c := linkedClient(t, "carol", "keycloak:Carol")
	_, err := repo.Save(ctx, c)
	require.NoError(t, err)

	t.Run("duplicate name", func(t *testing.T) {
		dup := linkedClient(t, "carol", "keycloak:Other")
		_, err := repo.Save(ctx, dup)
		assert.True(t, errors.Is(err, repository.ErrAlreadyExists))
	})

	byID, err := repo.FindByID(ctx, c.ID())
	require.NoError(t, err)
	assert.Equal(t, "carol", byID.Name())

	require.NoError(t, repo.Delete(ctx, c.ID()))
	assert.True(t, errors.Is(repo.Delete(ctx, c.ID()), repository.ErrNotFound))

	_, err = repo.FindByID(ctx, types.NewID())
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}
