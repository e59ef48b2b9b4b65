package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/emailbuilder/emailbuilder/internal/database"
	"github.com/emailbuilder/emailbuilder/internal/model"
)

// AuditRepository handles audit log persistence
type AuditRepository struct {
	db *database.Postgres
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *database.Postgres) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts a new audit log entry
func (r *AuditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	metadataJSON, err := json.Marshal(log.Metadata)
	if err != nil || log.Metadata == nil {
		metadataJSON = []byte("{}")
	}

	query := `
		INSERT INTO template_audit_logs (id, actor, action, resource_type, resource_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, query,
		log.ID,
		log.Actor,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		metadataJSON,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// ListByResource returns the newest entries for a resource first
func (r *AuditRepository) ListByResource(ctx context.Context, resourceType, resourceID string, limit int) ([]model.AuditLog, error) {
	query := `
		SELECT id, actor, action, resource_type, resource_id, metadata, created_at
		FROM template_audit_logs
		WHERE resource_type = $1 AND resource_id = $2
		ORDER BY created_at DESC, id
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, resourceType, resourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []model.AuditLog
	for rows.Next() {
		var (
			entry    model.AuditLog
			metadata []byte
		)
		if err := rows.Scan(
			&entry.ID, &entry.Actor, &entry.Action,
			&entry.ResourceType, &entry.ResourceID, &metadata, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode audit metadata: %w", err)
			}
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}
