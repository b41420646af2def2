package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"skillbridge/internal/database"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeMembershipGrant       EventType = "membership.grant"
	EventTypeMembershipRevoke      EventType = "membership.revoke"
	EventTypeContractActivate      EventType = "contract.activate"
	EventTypeContractDeactivate    EventType = "contract.deactivate"
	EventTypeBranchConfirm         EventType = "branch.confirm"
	EventTypeBranchReject          EventType = "branch.reject"
	EventTypePartnershipPropose    EventType = "partnership.propose"
	EventTypePartnershipConfirm    EventType = "partnership.confirm"
	EventTypePartnershipReject     EventType = "partnership.reject"
	EventTypeProjectCoOwnerAdd     EventType = "project.co_owner_add"
	EventTypeProjectPartnershipSet EventType = "project.partnership_set"
	EventTypeBadgeAssign           EventType = "badge.assign"
)

type Auditor struct {
	logger *slog.Logger
	db     *database.Database
}

func NewAuditor(logger *slog.Logger, db *database.Database) Auditor {
	return Auditor{logger: logger, db: db}
}

type LogEventParam struct {
	ActorID uuid.UUID
	Type    EventType
	Data    map[string]any
}

func (a *Auditor) LogEvent(ctx context.Context, params LogEventParam) error {
	data, err := json.Marshal(params.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal audit log event data: %w", err)
	}

	var actorID *uuid.UUID
	if params.ActorID != uuid.Nil {
		actorID = &params.ActorID
	}

	if err := a.db.CreateAuditLogEvent(ctx, database.CreateAuditLogEventParams{
		ActorID:   actorID,
		EventType: string(params.Type),
		EventData: data,
	}); err != nil {
		return fmt.Errorf("failed to create audit log event: %w", err)
	}
	return nil
}
