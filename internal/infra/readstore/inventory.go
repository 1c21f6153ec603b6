package readstore

import (
	"context"

	"stockops/internal/infra"
	"stockops/internal/pkg/pgconv"
	"stockops/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InventoryReadStore struct {
	db *pgxpool.Pool
}

func NewInventoryReadStore(db *pgxpool.Pool) *InventoryReadStore {
	return &InventoryReadStore{db: db}
}

func (r *InventoryReadStore) GetByID(ctx context.Context, id uuid.UUID) (*queries.InventoryView, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, name, quantity_available, quantity_sold, version, created_at, updated_at
		 FROM inventory WHERE id = $1`, id)

	view, err := scanInventoryView(row)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("inventory item not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to get inventory item", err)
	}
	return view, nil
}

func (r *InventoryReadStore) List(ctx context.Context) ([]*queries.InventoryView, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, quantity_available, quantity_sold, version, created_at, updated_at
		 FROM inventory ORDER BY created_at DESC`)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list inventory items", err)
	}
	defer rows.Close()

	views := []*queries.InventoryView{}
	for rows.Next() {
		view, err := scanInventoryView(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan inventory item", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate inventory items", err)
	}
	return views, nil
}

func scanInventoryView(row pgx.Row) (*queries.InventoryView, error) {
	var view queries.InventoryView
	err := row.Scan(
		&view.ID,
		&view.Name,
		&view.QuantityAvailable,
		&view.QuantitySold,
		&view.Version,
		&view.CreatedAt,
		&view.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &view, nil
}
