package commands

import (
	"context"
	"log/slog"

	"stockops/internal/domain/job"
	"stockops/internal/pkg/clock"
	"stockops/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrQueueOverloaded      = errs.New("queue backpressure limit exceeded")
	ErrOrderValidation      = errs.New("order validation failed")
	ErrQueueOperationFailed = errs.New("queue operation failed")
)

type SubmitOrderParams struct {
	ItemID   uuid.UUID
	Quantity int32
	ActorID  string
}

// OrderCommands is the enqueue gate: admission control on the producer
// side. Work above the depth limit is rejected immediately instead of
// growing the queue without bound.
type OrderCommands interface {
	Submit(ctx context.Context, params SubmitOrderParams, idempotencyKey string) error
}

type orderUseCaseImpl struct {
	queue             JobQueue
	backpressureLimit int64
	clock             clock.Clock
	logger            *slog.Logger
}

func NewOrderCommands(queue JobQueue, backpressureLimit int64, clk clock.Clock, logger *slog.Logger) OrderCommands {
	return &orderUseCaseImpl{
		queue:             queue,
		backpressureLimit: backpressureLimit,
		clock:             clk,
		logger:            logger,
	}
}

func (u *orderUseCaseImpl) Submit(ctx context.Context, params SubmitOrderParams, idempotencyKey string) error {
	depth, err := u.queue.Len(ctx)
	if err != nil {
		return errs.Mark(err, ErrQueueOperationFailed)
	}
	if depth > u.backpressureLimit {
		u.logger.Warn("queue saturation", "reason", "backpressure limit exceeded", "depth", depth)
		return ErrQueueOverloaded
	}

	j, err := job.New(params.ItemID, params.Quantity, params.ActorID, idempotencyKey, u.clock.Now())
	if err != nil {
		return errs.Mark(err, ErrOrderValidation)
	}

	payload, err := j.Marshal()
	if err != nil {
		return errs.Mark(err, ErrOrderValidation)
	}

	if err := u.queue.Push(ctx, payload); err != nil {
		return errs.Mark(err, ErrQueueOperationFailed)
	}

	return nil
}
