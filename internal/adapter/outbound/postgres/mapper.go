package postgres

import (
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/0xsj/overwatch-pkg/types"

	"github.com/0xsj/overwatch-linker/internal/domain/model"
)

// clientColumns lists the clients table columns in scan order.
var clientColumns = []string{"id", "name", "identity", "created_at", "updated_at"}

// clientRow mirrors one row of the clients table.
type clientRow struct {
	ID        string
	Name      string
	Identity  pgtype.Text
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

func scanClientRow(row pgx.Row) (clientRow, error) {
	var r clientRow
	err := row.Scan(&r.ID, &r.Name, &r.Identity, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// pgtype helpers

func textToOptionalString(t pgtype.Text) types.Optional[string] {
	if t.Valid {
		return types.Some(t.String)
	}
	return types.None[string]()
}

func optionalStringToPgText(o types.Optional[string]) pgtype.Text {
	if o.IsPresent() {
		return pgtype.Text{String: o.MustGet(), Valid: true}
	}
	return pgtype.Text{Valid: false}
}

func timestampToPgTimestamptz(t types.Timestamp) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t.Time(), Valid: true}
}

// Client mappers

func toClientModel(row clientRow) (*model.Client, error) {
	id, err := types.ParseID(row.ID)
	if err != nil {
		return nil, err
	}

	return model.ReconstructClient(
		id,
		row.Name,
		textToOptionalString(row.Identity),
		types.FromTime(row.CreatedAt.Time),
		types.FromTime(row.UpdatedAt.Time),
	), nil
}

func clientValues(c *model.Client) []any {
	return []any{
		c.ID().String(),
		c.Name(),
		optionalStringToPgText(c.Identity()),
		timestampToPgTimestamptz(c.CreatedAt()),
		timestampToPgTimestamptz(c.UpdatedAt()),
	}
}
