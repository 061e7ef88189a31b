package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"lumiere/internal/model"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Log(ctx context.Context, entry model.AuditEntry) error {
	var details []byte
	if entry.Details != nil {
		var err error
		details, err = json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_entries (action, actor_id, resource, details, occurred_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.Action, entry.ActorID, entry.Resource, details, entry.OccurredAt)
	if err != nil {
		return fmt.Errorf("log audit entry: %w", err)
	}
	return nil
}

// RecentByActor returns the latest entries recorded for actorID, newest first.
func (r *AuditRepository) RecentByActor(ctx context.Context, actorID string, limit int) ([]model.AuditEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT action, actor_id, resource, details, occurred_at
		 FROM audit_entries
		 WHERE actor_id = $1
		 ORDER BY occurred_at DESC, id DESC
		 LIMIT $2`, actorID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.AuditEntry, 0, limit)
	for rows.Next() {
		var (
			e       model.AuditEntry
			details []byte
		)
		if err := rows.Scan(&e.Action, &e.ActorID, &e.Resource, &details, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if len(details) > 0 {
			var decoded map[string]any
			if err := json.Unmarshal(details, &decoded); err == nil {
				e.Details = decoded
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
