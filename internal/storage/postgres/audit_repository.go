package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/domain"
)

// AuditRepository appends to audit_logs. Rows are never updated.
type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Record(ctx context.Context, entry domain.AuditEntry) error {
	const stmt = `
INSERT INTO audit_logs (actor_id, action, entity, entity_id, before_json, after_json, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := conn(ctx, r.pool).Exec(ctx, stmt,
		entry.ActorID,
		entry.Action,
		entry.Entity,
		entry.EntityID,
		nullableJSON(entry.BeforeJSON),
		nullableJSON(entry.AfterJSON),
		entry.CreatedAt,
	)
	if err != nil {
		return wrapErr("record audit entry", err)
	}
	return nil
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
