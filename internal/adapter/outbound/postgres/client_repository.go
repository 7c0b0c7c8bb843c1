package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/0xsj/overwatch-pkg/types"

	"github.com/0xsj/overwatch-linker/internal/domain/model"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/repository"
)

const (
	clientsTable = "clients"

	uniqueViolation = "23505"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// clientRepository implements repository.ClientRepository.
type clientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository creates a new ClientRepository.
func NewClientRepository(pool *pgxpool.Pool) repository.ClientRepository {
	return &clientRepository{
		pool: pool,
	}
}

func (r *clientRepository) FindByName(ctx context.Context, name string) (*model.Client, error) {
	return r.findOne(ctx, squirrel.Eq{"name": name})
}

func (r *clientRepository) FindByID(ctx context.Context, id types.ID) (*model.Client, error) {
	return r.findOne(ctx, squirrel.Eq{"id": id.String()})
}

func (r *clientRepository) Save(ctx context.Context, client *model.Client) (*model.Client, error) {
	query, args, err := psql.
		Insert(clientsTable).
		Columns(clientColumns...).
		Values(clientValues(client)...).
		Suffix("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, identity = EXCLUDED.identity, updated_at = EXCLUDED.updated_at").
		Suffix("RETURNING " + strings.Join(clientColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	row, err := scanClientRow(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, repository.ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to save client: %w", err)
	}
	return toClientModel(row)
}

// FindOrCreate relies on the unique name index: the insert is a no-op when the
// name is taken, and the existing row is read back instead.
func (r *clientRepository) FindOrCreate(ctx context.Context, candidate *model.Client) (*model.Client, bool, error) {
	query, args, err := psql.
		Insert(clientsTable).
		Columns(clientColumns...).
		Values(clientValues(candidate)...).
		Suffix("ON CONFLICT (name) DO NOTHING").
		Suffix("RETURNING " + strings.Join(clientColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("failed to build query: %w", err)
	}

	row, err := scanClientRow(r.pool.QueryRow(ctx, query, args...))
	if err == nil {
		created, err := toClientModel(row)
		return created, err == nil, err
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to insert client: %w", err)
	}

	existing, err := r.FindByName(ctx, candidate.Name())
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *clientRepository) Delete(ctx context.Context, id types.ID) error {
	query, args, err := psql.
		Delete(clientsTable).
		Where(squirrel.Eq{"id": id.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *clientRepository) findOne(ctx context.Context, where squirrel.Eq) (*model.Client, error) {
	query, args, err := psql.
		Select(clientColumns...).
		From(clientsTable).
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	row, err := scanClientRow(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return toClientModel(row)
}
