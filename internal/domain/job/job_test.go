//go:build unit

package job_test

import (
	"encoding/json"
	"testing"
	"time"

	"stockops/internal/domain/job"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("basic success case", func(t *testing.T) {
		itemID := uuid.New()
		j, err := job.New(itemID, 2, "user-1", "key-1", now)
		require.NoError(t, err)

		assert.Equal(t, itemID, j.ItemID)
		assert.Equal(t, int32(2), j.Quantity)
		assert.Equal(t, "user-1", j.ActorID)
		assert.Equal(t, "key-1", j.IdempotencyKey)
		assert.Equal(t, now, j.EnqueuedAt)
		assert.Equal(t, 0, j.RetryCount)
	})

	t.Run("idempotency key is optional", func(t *testing.T) {
		j, err := job.New(uuid.New(), 1, "user-1", "", now)
		require.NoError(t, err)
		assert.Empty(t, j.IdempotencyKey)
	})

	t.Run("validation", func(t *testing.T) {
		cases := []struct {
			name     string
			itemID   uuid.UUID
			quantity int32
			actorID  string
			errIs    error
		}{
			{name: "missing item id", itemID: uuid.Nil, quantity: 1, actorID: "u", errIs: job.ErrMissingItemID},
			{name: "zero quantity", itemID: uuid.New(), quantity: 0, actorID: "u", errIs: job.ErrNonPositiveQuantity},
			{name: "negative quantity", itemID: uuid.New(), quantity: -5, actorID: "u", errIs: job.ErrNonPositiveQuantity},
			{name: "missing actor", itemID: uuid.New(), quantity: 1, actorID: "", errIs: job.ErrMissingActorID},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := job.New(tc.itemID, tc.quantity, tc.actorID, "", now)
				assert.ErrorIs(t, err, tc.errIs)
			})
		}
	})
}

func TestUnmarshal(t *testing.T) {
	t.Run("round trip preserves the wire fields", func(t *testing.T) {
		original, err := job.New(uuid.New(), 3, "user-9", "key-9", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
		require.NoError(t, err)

		payload, err := original.Marshal()
		require.NoError(t, err)

		decoded, err := job.Unmarshal(payload)
		require.NoError(t, err)
		assert.Equal(t, original, decoded)
	})

	t.Run("invalid JSON is a poison message", func(t *testing.T) {
		_, err := job.Unmarshal([]byte("{not json"))
		assert.ErrorIs(t, err, job.ErrUnparseablePayload)
	})

	t.Run("valid JSON with invalid fields is a poison message", func(t *testing.T) {
		_, err := job.Unmarshal([]byte(`{"item_id":"00000000-0000-0000-0000-000000000000","quantity":1,"actor_id":"u"}`))
		assert.ErrorIs(t, err, job.ErrMissingItemID)

		_, err = job.Unmarshal([]byte(`{"quantity":-1}`))
		require.Error(t, err)
	})
}

func TestUnmarshalDeadLetter(t *testing.T) {
	t.Run("round trip recovers the envelope", func(t *testing.T) {
		dead := job.DeadLetter{
			Raw:        `{"item_id":"x"}`,
			Error:      "CONCURRENCY_EXHAUSTED",
			RetryCount: 2,
			FailedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		}
		payload, err := dead.Marshal()
		require.NoError(t, err)

		decoded, err := job.UnmarshalDeadLetter(payload)
		require.NoError(t, err)
		assert.Equal(t, dead.Raw, decoded.Raw)
		assert.Equal(t, 2, decoded.RetryCount)
	})

	t.Run("a plain job is not an envelope", func(t *testing.T) {
		j, err := job.New(uuid.New(), 1, "user-1", "", time.Now())
		require.NoError(t, err)
		payload, err := j.Marshal()
		require.NoError(t, err)

		_, err = job.UnmarshalDeadLetter(payload)
		assert.ErrorIs(t, err, job.ErrUnparseablePayload)
	})
}

func TestDeadLetterMarshal(t *testing.T) {
	dead := job.DeadLetter{
		Raw:        `{"item_id":"x"}`,
		Error:      "PARSE_ERROR",
		RetryCount: 1,
		FailedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	payload, err := dead.Marshal()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))

	// The original payload is preserved verbatim for redrive.
	assert.Equal(t, dead.Raw, decoded["raw"])
	assert.Equal(t, "PARSE_ERROR", decoded["error"])
}
