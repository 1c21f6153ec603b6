package repository

import (
	"context"
	"time"

	"stockops/internal/infra"
	"stockops/internal/pkg/pgconv"
	"stockops/internal/usecase/commands"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IdempotencyRepository struct {
	db *pgxpool.Pool
}

func NewIdempotencyRepository(db *pgxpool.Pool) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

func (r *IdempotencyRepository) TryInsert(ctx context.Context, key, requestHash string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO idempotency_keys (key, request_hash, status)
		 VALUES ($1, $2, $3)`,
		key, requestHash, commands.IdempotencyStatusProcessing)
	if err != nil {
		if pgconv.IsUniqueViolation(err) {
			return infra.WrapRepoErr("idempotency key already exists", err, infra.KindDuplicateKey)
		}
		return infra.WrapRepoErr("failed to insert idempotency key", err)
	}
	return nil
}

func (r *IdempotencyRepository) Find(ctx context.Context, key string) (*commands.IdempotencyRecord, error) {
	var (
		rec commands.IdempotencyRecord
		// Nullable until the record is committed.
		responseStatus pgtype.Int4
		responseBody   []byte
	)
	err := r.db.QueryRow(ctx,
		`SELECT key, request_hash, status, response_status, response_body, created_at, updated_at
		 FROM idempotency_keys WHERE key = $1`, key).
		Scan(
			&rec.Key,
			&rec.RequestHash,
			&rec.Status,
			&responseStatus,
			&responseBody,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("idempotency key not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to get idempotency key", err)
	}

	rec.ResponseStatus = responseStatus.Int32
	rec.ResponseBody = responseBody
	return &rec, nil
}

// ClaimStale is the crash-recovery primitive: the staleness predicate
// inside a single UPDATE guarantees at most one caller wins the
// takeover, no matter how many race for it.
func (r *IdempotencyRepository) ClaimStale(ctx context.Context, key string, staleAfter time.Duration) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE idempotency_keys
		 SET updated_at = now()
		 WHERE key = $1
		   AND status = $2
		   AND updated_at < now() - ($3 * interval '1 second')`,
		key, commands.IdempotencyStatusProcessing, staleAfter.Seconds())
	if err != nil {
		return false, infra.WrapRepoErr("failed to claim stale idempotency key", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *IdempotencyRepository) Commit(ctx context.Context, key string, responseStatus int32, responseBody []byte) error {
	_, err := r.db.Exec(ctx,
		`UPDATE idempotency_keys
		 SET status = $2, response_status = $3, response_body = $4, updated_at = now()
		 WHERE key = $1`,
		key, commands.IdempotencyStatusCompleted, responseStatus, responseBody)
	if err != nil {
		return infra.WrapRepoErr("failed to commit idempotency key", err)
	}
	return nil
}
