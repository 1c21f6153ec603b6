package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"stockops/internal/infra"
	"stockops/internal/pkg/errs"
)

var (
	// ErrIdempotencyUnavailable is the fail-closed outcome: the store
	// left us uncertain whether the key is already executing, so the
	// request is rejected rather than risking a duplicate effect.
	ErrIdempotencyUnavailable = errs.New("idempotency store unavailable")
)

type LockOutcome int

const (
	// LockProceed means the caller owns the key and must execute the
	// operation, then Commit.
	LockProceed LockOutcome = iota
	// LockReplay means the operation already completed; the stored
	// response must be returned verbatim.
	LockReplay
	// LockConflict means the key was reused with a different payload.
	LockConflict
	// LockInProgress means another owner is still executing under this
	// key.
	LockInProgress
)

type LockResult struct {
	Outcome        LockOutcome
	ResponseStatus int32
	ResponseBody   json.RawMessage
}

// IdempotencyCoordinator guarantees at-most-one successful execution
// per client-supplied key, including takeover of keys orphaned by a
// crashed owner.
type IdempotencyCoordinator interface {
	Lock(ctx context.Context, key string, requestBody []byte) (*LockResult, error)
	Commit(ctx context.Context, key string, responseStatus int32, responseBody []byte) error
}

type idempotencyCoordinatorImpl struct {
	repo       IdempotencyRepository
	staleAfter time.Duration
	logger     *slog.Logger
}

func NewIdempotencyCoordinator(repo IdempotencyRepository, staleAfter time.Duration, logger *slog.Logger) IdempotencyCoordinator {
	return &idempotencyCoordinatorImpl{
		repo:       repo,
		staleAfter: staleAfter,
		logger:     logger,
	}
}

func (c *idempotencyCoordinatorImpl) Lock(ctx context.Context, key string, requestBody []byte) (*LockResult, error) {
	// Idempotency is opt-in per caller.
	if key == "" {
		return &LockResult{Outcome: LockProceed}, nil
	}

	fingerprint := Fingerprint(requestBody)

	err := c.repo.TryInsert(ctx, key, fingerprint)
	if err == nil {
		return &LockResult{Outcome: LockProceed}, nil
	}
	if !infra.IsKind(err, infra.KindDuplicateKey) {
		// Unknown insert failure leaves ownership uncertain.
		return nil, errs.Mark(err, ErrIdempotencyUnavailable)
	}

	existing, err := c.repo.Find(ctx, key)
	if err != nil {
		// The key exists but we cannot read it. Never allow duplicate
		// execution on uncertainty.
		return nil, errs.Mark(err, ErrIdempotencyUnavailable)
	}

	if existing.RequestHash != fingerprint {
		return &LockResult{Outcome: LockConflict}, nil
	}

	if existing.Status == IdempotencyStatusCompleted {
		return &LockResult{
			Outcome:        LockReplay,
			ResponseStatus: existing.ResponseStatus,
			ResponseBody:   existing.ResponseBody,
		}, nil
	}

	// Still processing: the previous owner may have crashed. Exactly
	// one caller wins the staleness-guarded takeover.
	claimed, claimErr := c.repo.ClaimStale(ctx, key, c.staleAfter)
	if claimErr == nil && claimed {
		c.logger.Warn("idempotency crash recovery: lock acquired", "key", key)
		return &LockResult{Outcome: LockProceed}, nil
	}

	return &LockResult{Outcome: LockInProgress}, nil
}

func (c *idempotencyCoordinatorImpl) Commit(ctx context.Context, key string, responseStatus int32, responseBody []byte) error {
	if key == "" {
		return nil
	}
	if err := c.repo.Commit(ctx, key, responseStatus, responseBody); err != nil {
		return errs.Wrap(err, "failed to commit idempotency key")
	}
	return nil
}

// Fingerprint computes the content hash used to detect key reuse with
// a different payload.
func Fingerprint(requestBody []byte) string {
	sum := sha256.Sum256(requestBody)
	return hex.EncodeToString(sum[:])
}
