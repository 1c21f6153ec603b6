package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"stockops/internal/domain/job"
	"stockops/internal/pkg/clock"
	"stockops/internal/pkg/config"
	"stockops/internal/usecase/commands"
	"stockops/internal/usecase/queries"
)

// crashPause keeps a failing cycle from turning into a hot loop.
const crashPause = 2 * time.Second

const (
	deadLetterParseError = "PARSE_ERROR"
	deadLetterExhausted  = "CONCURRENCY_EXHAUSTED"
	deadLetterStorage    = "STORAGE_ERROR"
)

type Queue interface {
	Len(ctx context.Context) (int64, error)
	PopBatch(ctx context.Context, n int) ([]string, error)
	PushDead(ctx context.Context, payload []byte) error
}

// Worker drains the queue in bounded batches and drives each job
// through the OCC engine and the idempotency coordinator. It is a
// single cooperative loop: shutdown is observed only between batches,
// and a batch already in flight always runs to completion.
type Worker struct {
	queue        Queue
	stock        commands.StockCommands
	idempotency  commands.IdempotencyCoordinator
	breaker      *CircuitBreaker
	batchSize    int
	pollInterval time.Duration
	clock        clock.Clock
	logger       *slog.Logger
}

func New(
	q Queue,
	stock commands.StockCommands,
	idempotency commands.IdempotencyCoordinator,
	breaker *CircuitBreaker,
	cfg config.WorkerConfig,
	clk clock.Clock,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		queue:        q,
		stock:        stock,
		idempotency:  idempotency,
		breaker:      breaker,
		batchSize:    cfg.BatchSize,
		pollInterval: cfg.PollInterval,
		clock:        clk,
		logger:       logger,
	}
}

// Run blocks until ctx is cancelled. Cycle-level errors are logged and
// absorbed; the loop is the resilience boundary, external supervision
// handles true crashes.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started", "batch_size", w.batchSize, "poll_interval", w.pollInterval)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker shutdown complete")
			return nil
		default:
		}

		if err := w.cycle(ctx); err != nil {
			w.logger.Error("worker cycle failed", "error", err)
			w.wait(ctx, crashPause)
		}
	}
}

func (w *Worker) cycle(ctx context.Context) error {
	if w.breaker.Open() {
		w.logger.Warn("circuit open, skipping cycle")
		w.wait(ctx, w.pollInterval)
		return nil
	}

	depth, err := w.queue.Len(ctx)
	if err != nil {
		w.breaker.Failure()
		return err
	}
	if depth == 0 {
		w.wait(ctx, w.pollInterval)
		return nil
	}

	n := w.batchSize
	if depth < int64(n) {
		n = int(depth)
	}

	payloads, err := w.queue.PopBatch(ctx, n)
	if err != nil {
		w.breaker.Failure()
		return err
	}

	jobs := w.parseBatch(ctx, payloads)
	if len(jobs) == 0 {
		return nil
	}

	// Total order by item id keeps the batch free of circular waits if
	// jobs ever span multiple items, and makes processing order
	// deterministic for the audit trail.
	sort.Slice(jobs, func(i, k int) bool {
		return bytes.Compare(jobs[i].job.ItemID[:], jobs[k].job.ItemID[:]) < 0
	})

	w.logger.Info("processing batch", "jobs", len(jobs))
	for _, entry := range jobs {
		w.process(ctx, entry)
	}
	return nil
}

type batchEntry struct {
	job *job.Job
	raw string
}

// parseBatch decodes popped payloads. A payload that does not decode
// to a valid job is a poison pill: it goes straight to the dead-letter
// list and never reaches the OCC engine.
func (w *Worker) parseBatch(ctx context.Context, payloads []string) []batchEntry {
	entries := make([]batchEntry, 0, len(payloads))
	for _, raw := range payloads {
		entry, err := decodeEntry(raw)
		if err != nil {
			w.logger.Error("poison message quarantined", "error", err)
			w.pushDead(ctx, job.DeadLetter{
				Raw:      raw,
				Error:    deadLetterParseError,
				FailedAt: w.clock.Now(),
			})
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// decodeEntry accepts both plain jobs and redriven entries, which
// still wear their dead-letter envelope after the LMOVE back. The
// original payload and retry count are recovered from the envelope so
// a repeated failure quarantines the job, not a nested wrapper.
func decodeEntry(raw string) (batchEntry, error) {
	j, err := job.Unmarshal([]byte(raw))
	if err == nil {
		return batchEntry{job: j, raw: raw}, nil
	}

	dead, deadErr := job.UnmarshalDeadLetter([]byte(raw))
	if deadErr != nil {
		return batchEntry{}, err
	}
	inner, innerErr := job.Unmarshal([]byte(dead.Raw))
	if innerErr != nil {
		return batchEntry{}, innerErr
	}
	inner.RetryCount = dead.RetryCount
	return batchEntry{job: inner, raw: dead.Raw}, nil
}

func (w *Worker) process(ctx context.Context, entry batchEntry) {
	j := entry.job

	updated, err := w.stock.Decrement(ctx, j.ItemID, j.Quantity, j.ActorID)
	if err != nil {
		w.handleFailure(ctx, entry, err)
		return
	}

	w.breaker.Success()

	if j.IdempotencyKey != "" {
		body, marshalErr := json.Marshal(queries.ViewFromSnapshot(updated))
		if marshalErr == nil {
			if commitErr := w.idempotency.Commit(ctx, j.IdempotencyKey, http.StatusOK, body); commitErr != nil {
				w.logger.Error("idempotency commit failed", "key", j.IdempotencyKey, "error", commitErr)
			}
		}
	}

	w.logger.Info("job processed",
		"item_id", j.ItemID,
		"quantity", j.Quantity,
		"new_stock", updated.QuantityAvailable,
	)
}

func (w *Worker) handleFailure(ctx context.Context, entry batchEntry, err error) {
	j := entry.job

	switch {
	case errors.Is(err, commands.ErrItemNotFound),
		errors.Is(err, commands.ErrStockInsufficient),
		errors.Is(err, commands.ErrInvalidDecrement):
		// Terminal business rejection; redriving could never succeed.
		// The storage layer answered, so the breaker stays closed.
		w.breaker.Success()
		w.logger.Warn("job rejected", "item_id", j.ItemID, "quantity", j.Quantity, "error", err)

	case errors.Is(err, commands.ErrConcurrencyExhausted):
		w.breaker.Success()
		w.logger.Warn("job exhausted OCC budget, quarantining", "item_id", j.ItemID)
		w.pushDead(ctx, job.DeadLetter{
			Raw:        entry.raw,
			Error:      deadLetterExhausted,
			RetryCount: j.RetryCount + 1,
			FailedAt:   w.clock.Now(),
		})

	default:
		w.breaker.Failure()
		w.logger.Error("job failed on storage error, quarantining", "item_id", j.ItemID, "error", err)
		w.pushDead(ctx, job.DeadLetter{
			Raw:        entry.raw,
			Error:      deadLetterStorage,
			RetryCount: j.RetryCount + 1,
			FailedAt:   w.clock.Now(),
		})
	}
}

func (w *Worker) pushDead(ctx context.Context, dead job.DeadLetter) {
	payload, err := dead.Marshal()
	if err != nil {
		w.logger.Error("failed to encode dead letter", "error", err)
		return
	}
	if err := w.queue.PushDead(ctx, payload); err != nil {
		w.logger.Error("failed to quarantine dead letter", "error", err)
	}
}

// wait sleeps between cycles. Waking early on cancellation is safe
// here: no batch is in flight while waiting.
func (w *Worker) wait(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
