package database

import (
	"context"
	"errors"
	"time"

	"skillbridge/internal/fault"
	"skillbridge/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (db *Database) GetBadge(ctx context.Context, id uuid.UUID) (model.Badge, error) {
	var b model.Badge
	err := db.q(ctx).QueryRow(ctx, `SELECT id, name, description, created_at FROM tbl_badge WHERE id = $1`, id).Scan(
		&b.ID, &b.Name, &b.Description, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return b, fault.NotFoundf("badge %s not found", id)
		}
		return b, err
	}
	return b, nil
}

type CreateBadgeAssignmentParams struct {
	BadgeID      uuid.UUID
	RecipientID  uuid.UUID
	AssignerID   uuid.UUID
	Organization model.OrgRef
	ProjectID    *uuid.UUID
}

func (db *Database) CreateBadgeAssignment(ctx context.Context, params CreateBadgeAssignmentParams) (model.BadgeAssignment, error) {
	a := model.BadgeAssignment{
		ID:           uuid.New(),
		BadgeID:      params.BadgeID,
		RecipientID:  params.RecipientID,
		AssignerID:   params.AssignerID,
		Organization: params.Organization,
		ProjectID:    params.ProjectID,
		AssignedAt:   time.Now(),
	}
	if _, err := db.q(ctx).Exec(ctx, `INSERT INTO tbl_badge_assignment (id, badge_id, recipient_id, assigner_id, organization_kind, organization_id, project_id, assigned_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.BadgeID, a.RecipientID, a.AssignerID, a.Organization.Kind, a.Organization.ID, a.ProjectID, a.AssignedAt); err != nil {
		return model.BadgeAssignment{}, err
	}
	return a, nil
}

func (db *Database) GetUser(ctx context.Context, id uuid.UUID) (model.User, error) {
	var u model.User
	err := db.q(ctx).QueryRow(ctx, `SELECT id, name, email, system_role, created_at FROM tbl_user WHERE id = $1`, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.SystemRole, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return u, fault.NotFoundf("user %s not found", id)
		}
		return u, err
	}
	return u, nil
}
