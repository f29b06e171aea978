package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/expertbridge/consult_platform/internal/model"
	"github.com/expertbridge/consult_platform/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditRepository struct {
	*base.Repository
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{Repository: base.NewRepository(pool)}
}

func (r *AuditRepository) Record(ctx context.Context, entry *model.AuditEntry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}

	query := `
		INSERT INTO audit_log (actor_id, event_type, description, metadata)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err = r.QueryRow(ctx, query, entry.ActorID, entry.EventType, entry.Description, metadata).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}

	return nil
}
