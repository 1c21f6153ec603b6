//go:build unit

package commands_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"stockops/internal/pkg/clock"
	"stockops/internal/usecase/commands"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const staleAfter = 30 * time.Second

func newCoordinator(t *testing.T) (commands.IdempotencyCoordinator, *memIdempotencyRepo, *clock.MockClock) {
	t.Helper()
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	repo := newMemIdempotencyRepo(clk)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return commands.NewIdempotencyCoordinator(repo, staleAfter, logger), repo, clk
}

func TestLock(t *testing.T) {
	ctx := context.Background()
	body := []byte(`{"decrement":1}`)

	t.Run("empty key proceeds without a record", func(t *testing.T) {
		coord, repo, _ := newCoordinator(t)

		result, err := coord.Lock(ctx, "", body)
		require.NoError(t, err)
		assert.Equal(t, commands.LockProceed, result.Outcome)
		assert.Empty(t, repo.records)
	})

	t.Run("first caller proceeds", func(t *testing.T) {
		coord, repo, _ := newCoordinator(t)

		result, err := coord.Lock(ctx, "key-1", body)
		require.NoError(t, err)
		assert.Equal(t, commands.LockProceed, result.Outcome)

		rec := repo.records["key-1"]
		require.NotNil(t, rec)
		assert.Equal(t, commands.IdempotencyStatusProcessing, rec.Status)
		assert.Equal(t, commands.Fingerprint(body), rec.RequestHash)
	})

	t.Run("completed key replays the stored response verbatim", func(t *testing.T) {
		coord, _, _ := newCoordinator(t)

		result, err := coord.Lock(ctx, "key-1", body)
		require.NoError(t, err)
		require.Equal(t, commands.LockProceed, result.Outcome)

		stored := []byte(`{"id":"abc","quantity_available":9}`)
		require.NoError(t, coord.Commit(ctx, "key-1", http.StatusOK, stored))

		replay, err := coord.Lock(ctx, "key-1", body)
		require.NoError(t, err)
		assert.Equal(t, commands.LockReplay, replay.Outcome)
		assert.Equal(t, int32(http.StatusOK), replay.ResponseStatus)
		assert.Equal(t, stored, []byte(replay.ResponseBody))
	})

	t.Run("same key with different payload conflicts", func(t *testing.T) {
		coord, _, _ := newCoordinator(t)

		_, err := coord.Lock(ctx, "key-1", body)
		require.NoError(t, err)

		result, err := coord.Lock(ctx, "key-1", []byte(`{"decrement":2}`))
		require.NoError(t, err)
		assert.Equal(t, commands.LockConflict, result.Outcome)
	})

	t.Run("fresh processing key reports in progress", func(t *testing.T) {
		coord, _, clk := newCoordinator(t)

		_, err := coord.Lock(ctx, "key-1", body)
		require.NoError(t, err)

		clk.Add(staleAfter - time.Second)
		result, err := coord.Lock(ctx, "key-1", body)
		require.NoError(t, err)
		assert.Equal(t, commands.LockInProgress, result.Outcome)
	})

	t.Run("stale processing key is taken over exactly once", func(t *testing.T) {
		coord, _, clk := newCoordinator(t)

		_, err := coord.Lock(ctx, "key-1", body)
		require.NoError(t, err)

		clk.Add(staleAfter + time.Second)

		first, err := coord.Lock(ctx, "key-1", body)
		require.NoError(t, err)
		assert.Equal(t, commands.LockProceed, first.Outcome)

		// The claim refreshed the record, so a second caller waits.
		second, err := coord.Lock(ctx, "key-1", body)
		require.NoError(t, err)
		assert.Equal(t, commands.LockInProgress, second.Outcome)
	})

	t.Run("fails closed when the insert error is not a duplicate", func(t *testing.T) {
		coord, repo, _ := newCoordinator(t)
		repo.insertErr = errors.New("connection refused")

		_, err := coord.Lock(ctx, "key-1", body)
		assert.ErrorIs(t, err, commands.ErrIdempotencyUnavailable)
	})

	t.Run("fails closed when the existing record cannot be read", func(t *testing.T) {
		coord, repo, _ := newCoordinator(t)

		_, err := coord.Lock(ctx, "key-1", body)
		require.NoError(t, err)

		repo.findErr = errors.New("connection refused")
		_, err = coord.Lock(ctx, "key-1", body)
		assert.ErrorIs(t, err, commands.ErrIdempotencyUnavailable)
	})

	t.Run("claim error degrades to in progress", func(t *testing.T) {
		coord, repo, clk := newCoordinator(t)

		_, err := coord.Lock(ctx, "key-1", body)
		require.NoError(t, err)

		clk.Add(staleAfter + time.Second)
		repo.claimErr = errors.New("connection refused")

		result, err := coord.Lock(ctx, "key-1", body)
		require.NoError(t, err)
		assert.Equal(t, commands.LockInProgress, result.Outcome)
	})
}

func TestCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("empty key is a no-op", func(t *testing.T) {
		coord, repo, _ := newCoordinator(t)
		require.NoError(t, coord.Commit(ctx, "", http.StatusOK, nil))
		assert.Empty(t, repo.records)
	})

	t.Run("commit failure surfaces to the caller", func(t *testing.T) {
		coord, repo, _ := newCoordinator(t)
		repo.commitErr = errors.New("connection refused")
		assert.Error(t, coord.Commit(ctx, "key-1", http.StatusOK, nil))
	})
}

func TestFingerprint(t *testing.T) {
	a := commands.Fingerprint([]byte(`{"decrement":1}`))
	b := commands.Fingerprint([]byte(`{"decrement":1}`))
	c := commands.Fingerprint([]byte(`{"decrement":2}`))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
