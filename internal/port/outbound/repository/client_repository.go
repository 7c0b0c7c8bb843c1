package repository

import (
	"context"

	"github.com/0xsj/overwatch-pkg/types"

	"github.com/0xsj/overwatch-linker/internal/domain/model"
)

// ClientRepository defines the interface for client persistence.
type ClientRepository interface {
	// FindByName retrieves a client by its display name.
	// Returns ErrNotFound when no client uses the name.
	FindByName(ctx context.Context, name string) (*model.Client, error)

	// FindByID retrieves a client by its ID.
	FindByID(ctx context.Context, id types.ID) (*model.Client, error)

	// Save inserts or updates a client and returns the stored record,
	// including any store-assigned fields.
	Save(ctx context.Context, client *model.Client) (*model.Client, error)

	// FindOrCreate stores the candidate unless its name is taken, in one
	// atomic step. It returns the stored client and whether it was created.
	// When the name is taken the existing record is returned unchanged.
	FindOrCreate(ctx context.Context, candidate *model.Client) (*model.Client, bool, error)

	// Delete removes a client by ID.
	Delete(ctx context.Context, id types.ID) error
}
