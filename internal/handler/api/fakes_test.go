//go:build unit

package api_test

import (
	"context"
	"errors"

	"stockops/internal/infra"
	"stockops/internal/usecase/commands"
	"stockops/internal/usecase/queries"

	"github.com/google/uuid"
)

func notFoundErr() error {
	return infra.WrapRepoErr("not found", errors.New("no rows"), infra.KindNotFound)
}

// Function-field fakes: each test assigns only the behavior it needs.

type fakeInventoryCommands struct {
	createFn func(ctx context.Context, name string, quantityAvailable int32, actorID string) (*commands.InventorySnapshot, error)
	updateFn func(ctx context.Context, id uuid.UUID, patch commands.ItemPatch, actorID string) (*commands.InventorySnapshot, error)
	deleteFn func(ctx context.Context, id uuid.UUID, actorID string) error
}

func (f *fakeInventoryCommands) Create(ctx context.Context, name string, quantityAvailable int32, actorID string) (*commands.InventorySnapshot, error) {
	return f.createFn(ctx, name, quantityAvailable, actorID)
}

func (f *fakeInventoryCommands) Update(ctx context.Context, id uuid.UUID, patch commands.ItemPatch, actorID string) (*commands.InventorySnapshot, error) {
	return f.updateFn(ctx, id, patch, actorID)
}

func (f *fakeInventoryCommands) Delete(ctx context.Context, id uuid.UUID, actorID string) error {
	return f.deleteFn(ctx, id, actorID)
}

type fakeStockCommands struct {
	decrementFn func(ctx context.Context, itemID uuid.UUID, quantity int32, actorID string) (*commands.InventorySnapshot, error)
}

func (f *fakeStockCommands) Decrement(ctx context.Context, itemID uuid.UUID, quantity int32, actorID string) (*commands.InventorySnapshot, error) {
	return f.decrementFn(ctx, itemID, quantity, actorID)
}

type fakeIdempotency struct {
	lockFn   func(ctx context.Context, key string, requestBody []byte) (*commands.LockResult, error)
	commitFn func(ctx context.Context, key string, responseStatus int32, responseBody []byte) error

	commits []struct {
		key    string
		status int32
		body   []byte
	}
}

func (f *fakeIdempotency) Lock(ctx context.Context, key string, requestBody []byte) (*commands.LockResult, error) {
	if f.lockFn != nil {
		return f.lockFn(ctx, key, requestBody)
	}
	return &commands.LockResult{Outcome: commands.LockProceed}, nil
}

func (f *fakeIdempotency) Commit(ctx context.Context, key string, responseStatus int32, responseBody []byte) error {
	f.commits = append(f.commits, struct {
		key    string
		status int32
		body   []byte
	}{key, responseStatus, responseBody})
	if f.commitFn != nil {
		return f.commitFn(ctx, key, responseStatus, responseBody)
	}
	return nil
}

type fakeOrderCommands struct {
	submitFn func(ctx context.Context, params commands.SubmitOrderParams, idempotencyKey string) error
}

func (f *fakeOrderCommands) Submit(ctx context.Context, params commands.SubmitOrderParams, idempotencyKey string) error {
	return f.submitFn(ctx, params, idempotencyKey)
}

type fakeInventoryQueries struct {
	getByIDFn func(ctx context.Context, id uuid.UUID) (*queries.InventoryView, error)
	listFn    func(ctx context.Context) ([]*queries.InventoryView, error)
}

func (f *fakeInventoryQueries) GetByID(ctx context.Context, id uuid.UUID) (*queries.InventoryView, error) {
	return f.getByIDFn(ctx, id)
}

func (f *fakeInventoryQueries) List(ctx context.Context) ([]*queries.InventoryView, error) {
	return f.listFn(ctx)
}

type fakeQueueOps struct {
	lenFn        func(ctx context.Context) (int64, error)
	deadLenFn    func(ctx context.Context) (int64, error)
	redriveAllFn func(ctx context.Context) (int64, error)
}

func (f *fakeQueueOps) Len(ctx context.Context) (int64, error) {
	return f.lenFn(ctx)
}

func (f *fakeQueueOps) DeadLetterLen(ctx context.Context) (int64, error) {
	return f.deadLenFn(ctx)
}

func (f *fakeQueueOps) RedriveAll(ctx context.Context) (int64, error) {
	return f.redriveAllFn(ctx)
}
