package queue

import (
	"context"
	"errors"

	"stockops/internal/pkg/config"
	"stockops/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

// Queue is the Redis list pair backing the asynchronous path: a main
// FIFO list (LPUSH producer side, RPOP consumer side) and a parallel
// dead-letter list. All mutation goes through atomic push/pop/move
// primitives; there is no client-side read-modify-write.
type Queue struct {
	client        *redis.Client
	key           string
	deadLetterKey string
}

func New(client *redis.Client, cfg config.QueueConfig) *Queue {
	return &Queue{
		client:        client,
		key:           cfg.Key,
		deadLetterKey: cfg.DeadLetterKey,
	}
}

func (q *Queue) Push(ctx context.Context, payload []byte) error {
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return errs.Wrap(err, "failed to push job")
	}
	return nil
}

func (q *Queue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, errs.Wrap(err, "failed to read queue length")
	}
	return n, nil
}

func (q *Queue) DeadLetterLen(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.deadLetterKey).Result()
	if err != nil {
		return 0, errs.Wrap(err, "failed to read dead-letter length")
	}
	return n, nil
}

// PopBatch drains up to n entries in a single pipelined round trip.
// Fewer entries than requested is not an error; concurrent consumers
// may have emptied the list between the length check and the pops.
func (q *Queue) PopBatch(ctx context.Context, n int) ([]string, error) {
	pipe := q.client.Pipeline()
	cmds := make([]*redis.StringCmd, 0, n)
	for i := 0; i < n; i++ {
		cmds = append(cmds, pipe.RPop(ctx, q.key))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, errs.Wrap(err, "failed to pop job batch")
	}

	payloads := make([]string, 0, n)
	for _, cmd := range cmds {
		raw, err := cmd.Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, errs.Wrap(err, "failed to pop job batch")
		}
		payloads = append(payloads, raw)
	}
	return payloads, nil
}

func (q *Queue) PushDead(ctx context.Context, payload []byte) error {
	if err := q.client.LPush(ctx, q.deadLetterKey, payload).Err(); err != nil {
		return errs.Wrap(err, "failed to push dead letter")
	}
	return nil
}

// RedriveAll moves every dead-letter entry back to the main queue one
// LMOVE at a time. Each move is atomic, so entries are never lost
// mid-transfer and relative order is preserved.
func (q *Queue) RedriveAll(ctx context.Context) (int64, error) {
	var moved int64
	for {
		err := q.client.LMove(ctx, q.deadLetterKey, q.key, "RIGHT", "LEFT").Err()
		if errors.Is(err, redis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, errs.Wrap(err, "failed to redrive dead letter")
		}
		moved++
	}
}
