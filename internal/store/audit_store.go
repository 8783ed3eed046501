package store

import (
	"context"

	"github.com/google/uuid"

	"bankledger/internal/models"
)

type AuditStore struct {
	db DB
}

func NewAuditStore(db DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Log(ctx context.Context, tx Execer, actorID, action, entityType, entityID, data string) error {
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	if data == "" {
		data = "{}"
	}
	_, err = tx.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO audit_logs (id, actor_user_id, action, entity_type, entity_id, data)
		VALUES (?, ?, ?, ?, ?, ?)
	`), id.String(), nullableString(actorID), action, entityType, nullableString(entityID), data)
	return err
}

func (s *AuditStore) List(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	var rows []models.AuditLog
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT id, actor_user_id, action, entity_type, entity_id, data, created_at
		FROM audit_logs
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`), limit, offset)
	if err != nil {
		return nil, err
	}
	logs := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, map[string]any{
			"id":            row.ID,
			"actor_user_id": derefStringPtr(row.ActorUserID),
			"action":        row.Action,
			"entity_type":   row.EntityType,
			"entity_id":     derefStringPtr(row.EntityID),
			"data":          row.Data,
			"created_at":    row.CreatedAt,
		})
	}
	return logs, nil
}
