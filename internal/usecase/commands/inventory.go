package commands

import (
	"context"
	"log/slog"

	"stockops/internal/domain/inventory"
	"stockops/internal/infra"
	"stockops/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrItemValidation = errs.New("item validation failed")

// InventoryCommands covers the thin admin CRUD surface. The manual
// edit path deliberately bypasses the OCC engine: it is an operator
// override, audited like every other mutation.
type InventoryCommands interface {
	Create(ctx context.Context, name string, quantityAvailable int32, actorID string) (*InventorySnapshot, error)
	Update(ctx context.Context, id uuid.UUID, patch ItemPatch, actorID string) (*InventorySnapshot, error)
	Delete(ctx context.Context, id uuid.UUID, actorID string) error
}

type inventoryUseCaseImpl struct {
	inventoryRepo InventoryRepository
	auditRepo     AuditRepository
	logger        *slog.Logger
}

func NewInventoryCommands(inventoryRepo InventoryRepository, auditRepo AuditRepository, logger *slog.Logger) InventoryCommands {
	return &inventoryUseCaseImpl{
		inventoryRepo: inventoryRepo,
		auditRepo:     auditRepo,
		logger:        logger,
	}
}

func (u *inventoryUseCaseImpl) Create(ctx context.Context, name string, quantityAvailable int32, actorID string) (*InventorySnapshot, error) {
	item, err := inventory.NewItem(uuid.Nil, name, quantityAvailable)
	if err != nil {
		return nil, errs.Mark(err, ErrItemValidation)
	}

	created, err := u.inventoryRepo.Create(ctx, item)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	u.appendAudit(ctx, "CREATE_ITEM", actorID, map[string]any{
		"item_id": created.ID,
		"name":    created.Name,
	})
	return created, nil
}

func (u *inventoryUseCaseImpl) Update(ctx context.Context, id uuid.UUID, patch ItemPatch, actorID string) (*InventorySnapshot, error) {
	if patch.QuantityAvailable != nil && *patch.QuantityAvailable < 0 {
		return nil, ErrItemValidation
	}
	if patch.QuantitySold != nil && *patch.QuantitySold < 0 {
		return nil, ErrItemValidation
	}

	updated, err := u.inventoryRepo.Patch(ctx, id, patch)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	u.appendAudit(ctx, "UPDATE_ITEM", actorID, map[string]any{
		"item_id": id,
	})
	return updated, nil
}

func (u *inventoryUseCaseImpl) Delete(ctx context.Context, id uuid.UUID, actorID string) error {
	if err := u.inventoryRepo.Delete(ctx, id); err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return ErrItemNotFound
		}
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	u.appendAudit(ctx, "DELETE_ITEM", actorID, map[string]any{
		"item_id": id,
	})
	return nil
}

func (u *inventoryUseCaseImpl) appendAudit(ctx context.Context, action, actorID string, details map[string]any) {
	if err := u.auditRepo.Append(ctx, action, actorID, details); err != nil {
		u.logger.Warn("audit append failed", "action", action, "error", err)
	}
}
