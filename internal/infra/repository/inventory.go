package repository

import (
	"context"

	"stockops/internal/domain/inventory"
	"stockops/internal/infra"
	"stockops/internal/pkg/pgconv"
	"stockops/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const inventoryColumns = `id, name, quantity_available, quantity_sold, version, created_at, updated_at`

type InventoryRepository struct {
	db *pgxpool.Pool
}

func NewInventoryRepository(db *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*commands.InventorySnapshot, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+inventoryColumns+` FROM inventory WHERE id = $1`, id)

	snap, err := scanInventoryRow(row)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("inventory item not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to get inventory item", err)
	}
	return snap, nil
}

func (r *InventoryRepository) Create(ctx context.Context, item *inventory.Item) (*commands.InventorySnapshot, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO inventory (id, name, quantity_available, quantity_sold, version)
		 VALUES ($1, $2, $3, 0, 1)
		 RETURNING `+inventoryColumns,
		item.ID(), item.Name(), item.QuantityAvailable())

	snap, err := scanInventoryRow(row)
	if err != nil {
		if pgconv.IsUniqueViolation(err) {
			return nil, infra.WrapRepoErr("inventory item already exists", err, infra.KindDuplicateKey)
		}
		return nil, infra.WrapRepoErr("failed to create inventory item", err)
	}
	return snap, nil
}

// DecrementGuarded is the compare-and-swap write of the OCC engine.
// The version predicate makes a stale write match zero rows instead of
// clobbering a concurrent update.
func (r *InventoryRepository) DecrementGuarded(ctx context.Context, id uuid.UUID, quantity int32, expectedVersion int64) (*commands.InventorySnapshot, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE inventory
		 SET quantity_available = quantity_available - $2,
		     quantity_sold = quantity_sold + $2,
		     version = version + 1,
		     updated_at = now()
		 WHERE id = $1 AND version = $3
		 RETURNING `+inventoryColumns,
		id, quantity, expectedVersion)

	snap, err := scanInventoryRow(row)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("optimistic lock conflict", err, infra.KindConflict)
		}
		return nil, infra.WrapRepoErr("failed to decrement inventory item", err)
	}
	return snap, nil
}

func (r *InventoryRepository) Patch(ctx context.Context, id uuid.UUID, patch commands.ItemPatch) (*commands.InventorySnapshot, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE inventory
		 SET name = COALESCE($2, name),
		     quantity_available = COALESCE($3, quantity_available),
		     quantity_sold = COALESCE($4, quantity_sold),
		     version = version + 1,
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+inventoryColumns,
		id, patch.Name, patch.QuantityAvailable, patch.QuantitySold)

	snap, err := scanInventoryRow(row)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("inventory item not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to update inventory item", err)
	}
	return snap, nil
}

func (r *InventoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM inventory WHERE id = $1`, id)
	if err != nil {
		return infra.WrapRepoErr("failed to delete inventory item", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("inventory item not found", nil, infra.KindNotFound)
	}
	return nil
}

func scanInventoryRow(row pgx.Row) (*commands.InventorySnapshot, error) {
	var snap commands.InventorySnapshot
	err := row.Scan(
		&snap.ID,
		&snap.Name,
		&snap.QuantityAvailable,
		&snap.QuantitySold,
		&snap.Version,
		&snap.CreatedAt,
		&snap.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
