package commands

import (
	"context"
	"encoding/json"
	"time"

	"stockops/internal/domain/inventory"

	"github.com/google/uuid"
)

// Write-side snapshots prevent dependency on read-side query types (CQRS separation)
type InventorySnapshot struct {
	ID                uuid.UUID
	Name              string
	QuantityAvailable int32
	QuantitySold      int32
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

const (
	IdempotencyStatusProcessing = "processing"
	IdempotencyStatusCompleted  = "completed"
)

type IdempotencyRecord struct {
	Key            string
	RequestHash    string
	Status         string
	ResponseStatus int32
	ResponseBody   json.RawMessage
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ItemPatch carries the admin override fields for the manual edit
// path. Nil fields are left untouched.
type ItemPatch struct {
	Name              *string
	QuantityAvailable *int32
	QuantitySold      *int32
}

type InventoryRepository interface {
	// FindByID returns KindNotFound when no row matches.
	FindByID(ctx context.Context, id uuid.UUID) (*InventorySnapshot, error)

	Create(ctx context.Context, item *inventory.Item) (*InventorySnapshot, error)

	// DecrementGuarded applies the stock decrement only if the row's
	// version still equals expectedVersion. A lost race surfaces as
	// KindConflict.
	DecrementGuarded(ctx context.Context, id uuid.UUID, quantity int32, expectedVersion int64) (*InventorySnapshot, error)

	Patch(ctx context.Context, id uuid.UUID, patch ItemPatch) (*InventorySnapshot, error)

	Delete(ctx context.Context, id uuid.UUID) error
}

type IdempotencyRepository interface {
	// TryInsert creates a new record in processing state. An existing
	// key surfaces as KindDuplicateKey.
	TryInsert(ctx context.Context, key, requestHash string) error

	Find(ctx context.Context, key string) (*IdempotencyRecord, error)

	// ClaimStale atomically takes over a processing record whose last
	// update is older than staleAfter. Returns false when the record
	// is still fresh or already completed.
	ClaimStale(ctx context.Context, key string, staleAfter time.Duration) (bool, error)

	// Commit moves the record to completed and stores the response for
	// replay. Idempotent for the single owner of the key.
	Commit(ctx context.Context, key string, responseStatus int32, responseBody []byte) error
}

type AuditRepository interface {
	// Append is best-effort by contract: callers log failures and move
	// on, a missing audit row never rolls back the mutation it records.
	Append(ctx context.Context, action, actorID string, details map[string]any) error
}

type JobQueue interface {
	Push(ctx context.Context, payload []byte) error
	Len(ctx context.Context) (int64, error)
}
