package commands

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"stockops/internal/domain/inventory"
	"stockops/internal/infra"
	"stockops/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrItemNotFound            = errs.New("inventory item not found")
	ErrStockInsufficient       = errs.New("insufficient stock")
	ErrConcurrencyExhausted    = errs.New("optimistic concurrency retries exhausted")
	ErrInvalidDecrement        = errs.New("decrement quantity must be positive")
	ErrDatabaseOperationFailed = errs.New("database operation failed")
)

const maxBackoffJitter = 100 * time.Millisecond

// Audit trail actions for the two decrement entry points.
const (
	AuditActionDecrement       = "STOCK_DECREMENT"
	AuditActionDecrementWorker = "STOCK_DECREMENT_WORKER"
)

// StockCommands is the OCC decrement engine. Each attempt is a fresh
// read followed by a version-guarded conditional write; no lock is
// held across the round trips, so it is safe under any number of
// concurrent callers in any number of processes.
type StockCommands interface {
	Decrement(ctx context.Context, itemID uuid.UUID, quantity int32, actorID string) (*InventorySnapshot, error)
}

type stockUseCaseImpl struct {
	inventoryRepo InventoryRepository
	auditRepo     AuditRepository
	auditAction   string
	maxAttempts   int
	logger        *slog.Logger
}

// NewStockCommands builds the decrement engine. auditAction
// distinguishes the synchronous API path from the worker path in the
// audit trail.
func NewStockCommands(
	inventoryRepo InventoryRepository,
	auditRepo AuditRepository,
	auditAction string,
	maxAttempts int,
	logger *slog.Logger,
) StockCommands {
	return &stockUseCaseImpl{
		inventoryRepo: inventoryRepo,
		auditRepo:     auditRepo,
		auditAction:   auditAction,
		maxAttempts:   maxAttempts,
		logger:        logger,
	}
}

func (u *stockUseCaseImpl) Decrement(ctx context.Context, itemID uuid.UUID, quantity int32, actorID string) (*InventorySnapshot, error) {
	if quantity <= 0 {
		return nil, ErrInvalidDecrement
	}

	for attempt := 0; attempt < u.maxAttempts; attempt++ {
		if attempt > 0 {
			backoffJitter()
		}

		current, err := u.inventoryRepo.FindByID(ctx, itemID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil, ErrItemNotFound
			}
			return nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}

		item := inventory.Rehydrate(current.ID, current.Name, current.QuantityAvailable, current.QuantitySold, current.Version)
		expectedVersion := item.Version()
		if decErr := item.Decrement(quantity); decErr != nil {
			if errors.Is(decErr, inventory.ErrNonPositiveDecrement) {
				return nil, ErrInvalidDecrement
			}
			// A business-rule rejection, not a race: never retried.
			return nil, ErrStockInsufficient
		}

		updated, err := u.inventoryRepo.DecrementGuarded(ctx, itemID, quantity, expectedVersion)
		if err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				// Another writer moved the version; re-read and retry.
				continue
			}
			return nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}

		u.appendAudit(ctx, actorID, itemID, quantity, updated.QuantityAvailable)
		return updated, nil
	}

	return nil, ErrConcurrencyExhausted
}

func (u *stockUseCaseImpl) appendAudit(ctx context.Context, actorID string, itemID uuid.UUID, quantity, newStock int32) {
	err := u.auditRepo.Append(ctx, u.auditAction, actorID, map[string]any{
		"item_id":   itemID,
		"quantity":  quantity,
		"new_stock": newStock,
	})
	if err != nil {
		// Best-effort: the decrement stands even if the audit row
		// cannot be written.
		u.logger.Warn("audit append failed", "action", u.auditAction, "item_id", itemID, "error", err)
	}
}

func backoffJitter() {
	time.Sleep(time.Duration(rand.Int64N(int64(maxBackoffJitter))))
}
