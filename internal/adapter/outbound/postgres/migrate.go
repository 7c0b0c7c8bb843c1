package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const createClientsTable = `
CREATE TABLE IF NOT EXISTS clients (
    id VARCHAR(26) PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    identity TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_clients_name ON clients(name);
`

// Migrate creates the linker schema if it does not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		createClientsTable,
	}

	for _, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
