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

type CreateOrganizationParams struct {
	Kind                   model.OrgKind
	Name                   string
	Status                 model.OrgStatus
	ShareMembersWithBranch bool
}

func (db *Database) CreateOrganization(ctx context.Context, params CreateOrganizationParams) (model.Organization, error) {
	org := model.Organization{
		Ref:                    model.OrgRef{Kind: params.Kind, ID: uuid.New()},
		Name:                   params.Name,
		Status:                 params.Status,
		ShareMembersWithBranch: params.ShareMembersWithBranch,
		CreatedAt:              time.Now(),
		UpdatedAt:              time.Now(),
	}
	if _, err := db.q(ctx).Exec(ctx, `INSERT INTO tbl_organization (id, kind, name, status, share_members_with_branches, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		org.Ref.ID, org.Ref.Kind, org.Name, org.Status, org.ShareMembersWithBranch, org.CreatedAt, org.UpdatedAt); err != nil {
		return model.Organization{}, err
	}
	return org, nil
}

func (db *Database) GetOrganization(ctx context.Context, ref model.OrgRef) (model.Organization, error) {
	var (
		org      model.Organization
		parentID *uuid.UUID
	)
	err := db.q(ctx).QueryRow(ctx, `SELECT id, kind, name, status, parent_id, share_members_with_branches, created_at, updated_at FROM tbl_organization WHERE id = $1 AND kind = $2`,
		ref.ID, ref.Kind).Scan(
		&org.Ref.ID, &org.Ref.Kind, &org.Name, &org.Status, &parentID, &org.ShareMembersWithBranch, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return org, fault.NotFoundf("organization %s not found", ref)
		}
		return org, err
	}
	if parentID != nil {
		// A parent is always the same kind as its child.
		org.Parent = &model.OrgRef{Kind: org.Ref.Kind, ID: *parentID}
	}
	return org, nil
}

// SetOrganizationParent performs the one-time parent assignment of a
// confirmed branch request. It refuses to overwrite an existing parent so a
// re-applied confirmation cannot repoint the child.
func (db *Database) SetOrganizationParent(ctx context.Context, child model.OrgRef, parent model.OrgRef) error {
	tag, err := db.q(ctx).Exec(ctx, `UPDATE tbl_organization SET parent_id = $1, updated_at = now() WHERE id = $2 AND kind = $3 AND parent_id IS NULL`,
		parent.ID, child.ID, child.Kind)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var existing *uuid.UUID
		if err := db.q(ctx).QueryRow(ctx, `SELECT parent_id FROM tbl_organization WHERE id = $1 AND kind = $2`, child.ID, child.Kind).Scan(&existing); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fault.NotFoundf("organization %s not found", child)
			}
			return err
		}
		if existing != nil && *existing == parent.ID {
			// Already assigned to this parent, idempotent.
			return nil
		}
		return fault.Conflictf("organization %s already has a parent", child)
	}
	return nil
}

func (db *Database) SetOrganizationMemberSharing(ctx context.Context, ref model.OrgRef, share bool) error {
	tag, err := db.q(ctx).Exec(ctx, `UPDATE tbl_organization SET share_members_with_branches = $1, updated_at = now() WHERE id = $2 AND kind = $3`,
		share, ref.ID, ref.Kind)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFoundf("organization %s not found", ref)
	}
	return nil
}

// ListBranchChildren returns the confirmed branch children of parent.
func (db *Database) ListBranchChildren(ctx context.Context, parent model.OrgRef) ([]model.Organization, error) {
	rows, err := db.q(ctx).Query(ctx, `SELECT id, kind, name, status, parent_id, share_members_with_branches, created_at, updated_at FROM tbl_organization WHERE parent_id = $1 AND kind = $2`,
		parent.ID, parent.Kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var children []model.Organization
	for rows.Next() {
		var (
			org      model.Organization
			parentID *uuid.UUID
		)
		if err := rows.Scan(&org.Ref.ID, &org.Ref.Kind, &org.Name, &org.Status, &parentID, &org.ShareMembersWithBranch, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, err
		}
		if parentID != nil {
			org.Parent = &model.OrgRef{Kind: org.Ref.Kind, ID: *parentID}
		}
		children = append(children, org)
	}
	return children, rows.Err()
}
