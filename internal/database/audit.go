package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type CreateAuditLogEventParams struct {
	ActorID   *uuid.UUID
	EventType string
	EventData []byte
}

func (db *Database) CreateAuditLogEvent(ctx context.Context, params CreateAuditLogEventParams) error {
	_, err := db.q(ctx).Exec(ctx, `INSERT INTO tbl_audit_log (id, actor_id, event_type, event_data, created_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), params.ActorID, params.EventType, params.EventData, time.Now())
	return err
}
