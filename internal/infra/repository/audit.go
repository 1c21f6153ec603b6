package repository

import (
	"context"
	"encoding/json"

	"stockops/internal/infra"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditRepository struct {
	db *pgxpool.Pool
}

func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, action, actorID string, details map[string]any) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return infra.WrapRepoErr("failed to encode audit details", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO audit_logs (action, actor_id, details)
		 VALUES ($1, $2, $3)`,
		action, actorID, payload)
	if err != nil {
		return infra.WrapRepoErr("failed to append audit record", err)
	}
	return nil
}
