//go:build unit

package commands_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"stockops/internal/domain/inventory"
	"stockops/internal/infra"
	"stockops/internal/pkg/clock"
	"stockops/internal/usecase/commands"

	"github.com/google/uuid"
)

// memInventoryRepo is an in-memory InventoryRepository with the same
// version-guard semantics as the SQL implementation. The mutex makes
// DecrementGuarded atomic, so concurrent tests exercise real CAS races.
type memInventoryRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*commands.InventorySnapshot

	findErr      error
	decrementErr error
	// onFind runs after a successful read, before returning. Tests use
	// it to slip a competing write between read and conditional write.
	onFind func()
}

func newMemInventoryRepo() *memInventoryRepo {
	return &memInventoryRepo{items: map[uuid.UUID]*commands.InventorySnapshot{}}
}

func (r *memInventoryRepo) seed(name string, available int32) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.New()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	r.items[id] = &commands.InventorySnapshot{
		ID:                id,
		Name:              name,
		QuantityAvailable: available,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return id
}

func (r *memInventoryRepo) get(id uuid.UUID) commands.InventorySnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.items[id]
}

func (r *memInventoryRepo) FindByID(_ context.Context, id uuid.UUID) (*commands.InventorySnapshot, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}

	r.mu.Lock()
	item, ok := r.items[id]
	var snap commands.InventorySnapshot
	if ok {
		snap = *item
	}
	r.mu.Unlock()

	if !ok {
		return nil, infra.WrapRepoErr("inventory item not found", errors.New("no rows"), infra.KindNotFound)
	}
	if r.onFind != nil {
		r.onFind()
	}
	return &snap, nil
}

func (r *memInventoryRepo) Create(_ context.Context, item *inventory.Item) (*commands.InventorySnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	snap := &commands.InventorySnapshot{
		ID:                item.ID(),
		Name:              item.Name(),
		QuantityAvailable: item.QuantityAvailable(),
		QuantitySold:      item.QuantitySold(),
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	r.items[snap.ID] = snap
	out := *snap
	return &out, nil
}

func (r *memInventoryRepo) DecrementGuarded(_ context.Context, id uuid.UUID, quantity int32, expectedVersion int64) (*commands.InventorySnapshot, error) {
	if r.decrementErr != nil {
		return nil, r.decrementErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok || item.Version != expectedVersion {
		return nil, infra.WrapRepoErr("version check failed", errors.New("no rows"), infra.KindConflict)
	}

	item.QuantityAvailable -= quantity
	item.QuantitySold += quantity
	item.Version++
	out := *item
	return &out, nil
}

func (r *memInventoryRepo) Patch(_ context.Context, id uuid.UUID, patch commands.ItemPatch) (*commands.InventorySnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return nil, infra.WrapRepoErr("inventory item not found", errors.New("no rows"), infra.KindNotFound)
	}
	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.QuantityAvailable != nil {
		item.QuantityAvailable = *patch.QuantityAvailable
	}
	if patch.QuantitySold != nil {
		item.QuantitySold = *patch.QuantitySold
	}
	out := *item
	return &out, nil
}

func (r *memInventoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return infra.WrapRepoErr("inventory item not found", errors.New("no rows"), infra.KindNotFound)
	}
	delete(r.items, id)
	return nil
}

// memIdempotencyRepo mimics the insert-first unique-key protocol,
// including the staleness-guarded takeover.
type memIdempotencyRepo struct {
	mu      sync.Mutex
	records map[string]*commands.IdempotencyRecord
	clock   clock.Clock

	insertErr error
	findErr   error
	claimErr  error
	commitErr error
}

func newMemIdempotencyRepo(clk clock.Clock) *memIdempotencyRepo {
	return &memIdempotencyRepo{records: map[string]*commands.IdempotencyRecord{}, clock: clk}
}

func (r *memIdempotencyRepo) TryInsert(_ context.Context, key, requestHash string) error {
	if r.insertErr != nil {
		return r.insertErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[key]; exists {
		return infra.WrapRepoErr("idempotency key already exists", errors.New("duplicate key"), infra.KindDuplicateKey)
	}
	now := r.clock.Now()
	r.records[key] = &commands.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Status:      commands.IdempotencyStatusProcessing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return nil
}

func (r *memIdempotencyRepo) Find(_ context.Context, key string) (*commands.IdempotencyRecord, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[key]
	if !ok {
		return nil, infra.WrapRepoErr("idempotency key not found", errors.New("no rows"), infra.KindNotFound)
	}
	out := *rec
	return &out, nil
}

func (r *memIdempotencyRepo) ClaimStale(_ context.Context, key string, staleAfter time.Duration) (bool, error) {
	if r.claimErr != nil {
		return false, r.claimErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[key]
	if !ok || rec.Status != commands.IdempotencyStatusProcessing {
		return false, nil
	}
	if rec.UpdatedAt.After(r.clock.Now().Add(-staleAfter)) {
		return false, nil
	}
	rec.UpdatedAt = r.clock.Now()
	return true, nil
}

func (r *memIdempotencyRepo) Commit(_ context.Context, key string, responseStatus int32, responseBody []byte) error {
	if r.commitErr != nil {
		return r.commitErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[key]
	if !ok {
		return infra.WrapRepoErr("idempotency key not found", errors.New("no rows"), infra.KindNotFound)
	}
	rec.Status = commands.IdempotencyStatusCompleted
	rec.ResponseStatus = responseStatus
	rec.ResponseBody = responseBody
	rec.UpdatedAt = r.clock.Now()
	return nil
}

type auditEntry struct {
	action  string
	actorID string
	details map[string]any
}

type auditRecorder struct {
	mu      sync.Mutex
	entries []auditEntry

	appendErr error
}

func (r *auditRecorder) Append(_ context.Context, action, actorID string, details map[string]any) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, auditEntry{action: action, actorID: actorID, details: details})
	return nil
}

func (r *auditRecorder) all() []auditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]auditEntry(nil), r.entries...)
}

type fakeQueue struct {
	mu     sync.Mutex
	pushed [][]byte
	depth  int64

	lenErr  error
	pushErr error
}

func (q *fakeQueue) Push(_ context.Context, payload []byte) error {
	if q.pushErr != nil {
		return q.pushErr
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pushed = append(q.pushed, payload)
	return nil
}

func (q *fakeQueue) Len(_ context.Context) (int64, error) {
	if q.lenErr != nil {
		return 0, q.lenErr
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.depth + int64(len(q.pushed)), nil
}
