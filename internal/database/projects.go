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

func (db *Database) GetProject(ctx context.Context, id uuid.UUID) (model.Project, error) {
	var p model.Project
	err := db.q(ctx).QueryRow(ctx, `SELECT id, owner_id, name, partnership_id, created_at, updated_at FROM tbl_project WHERE id = $1`, id).Scan(
		&p.ID, &p.OwnerID, &p.Name, &p.PartnershipID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return p, fault.NotFoundf("project %s not found", id)
		}
		return p, err
	}

	rows, err := db.q(ctx).Query(ctx, `SELECT school_class_id FROM tbl_project_school_class WHERE project_id = $1`, id)
	if err != nil {
		return p, err
	}
	p.SchoolClasses, err = collectIDs(rows)
	if err != nil {
		return p, err
	}

	rows, err = db.q(ctx).Query(ctx, `SELECT company_id FROM tbl_project_company WHERE project_id = $1`, id)
	if err != nil {
		return p, err
	}
	p.Companies, err = collectIDs(rows)
	return p, err
}

func collectIDs(rows pgx.Rows) ([]uuid.UUID, error) {
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListProjectOrganizations resolves the organizations a project is affiliated
// with: the schools owning its linked classes plus its linked companies.
func (db *Database) ListProjectOrganizations(ctx context.Context, projectID uuid.UUID) ([]model.OrgRef, error) {
	rows, err := db.q(ctx).Query(ctx, `SELECT DISTINCT c.school_id FROM tbl_project_school_class pc
		JOIN tbl_school_class c ON c.id = pc.school_class_id
		WHERE pc.project_id = $1 AND c.school_id IS NOT NULL`, projectID)
	if err != nil {
		return nil, err
	}
	schoolIDs, err := collectIDs(rows)
	if err != nil {
		return nil, err
	}

	rows, err = db.q(ctx).Query(ctx, `SELECT company_id FROM tbl_project_company WHERE project_id = $1`, projectID)
	if err != nil {
		return nil, err
	}
	companyIDs, err := collectIDs(rows)
	if err != nil {
		return nil, err
	}

	refs := make([]model.OrgRef, 0, len(schoolIDs)+len(companyIDs))
	for _, id := range schoolIDs {
		refs = append(refs, model.OrgRef{Kind: model.OrgKindSchool, ID: id})
	}
	for _, id := range companyIDs {
		refs = append(refs, model.OrgRef{Kind: model.OrgKindCompany, ID: id})
	}
	return refs, nil
}

type CreateProjectMemberParams struct {
	ProjectID uuid.UUID
	UserID    uuid.UUID
	Role      model.ProjectRole
}

func (db *Database) CreateProjectMember(ctx context.Context, params CreateProjectMemberParams) (model.ProjectMember, error) {
	m := model.ProjectMember{
		ID:        uuid.New(),
		ProjectID: params.ProjectID,
		UserID:    params.UserID,
		Role:      params.Role,
		CreatedAt: time.Now(),
	}
	if _, err := db.q(ctx).Exec(ctx, `INSERT INTO tbl_project_member (id, project_id, user_id, role, created_at) VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.ProjectID, m.UserID, m.Role, m.CreatedAt); err != nil {
		if IsUniqueViolation(err) {
			return model.ProjectMember{}, fault.Wrap(fault.KindConflict, err, "user already a member of project")
		}
		return model.ProjectMember{}, err
	}
	return m, nil
}

func (db *Database) GetProjectMember(ctx context.Context, projectID, userID uuid.UUID) (model.ProjectMember, error) {
	var m model.ProjectMember
	err := db.q(ctx).QueryRow(ctx, `SELECT id, project_id, user_id, role, created_at FROM tbl_project_member WHERE project_id = $1 AND user_id = $2`,
		projectID, userID).Scan(&m.ID, &m.ProjectID, &m.UserID, &m.Role, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return m, fault.NotFoundf("user %s is not a member of project %s", userID, projectID)
		}
		return m, err
	}
	return m, nil
}

func (db *Database) UpdateProjectMemberRole(ctx context.Context, id uuid.UUID, role model.ProjectRole) error {
	tag, err := db.q(ctx).Exec(ctx, `UPDATE tbl_project_member SET role = $1 WHERE id = $2`, role, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFoundf("project member %s not found", id)
	}
	return nil
}

func (db *Database) SetProjectPartnership(ctx context.Context, projectID, partnershipID uuid.UUID) error {
	tag, err := db.q(ctx).Exec(ctx, `UPDATE tbl_project SET partnership_id = $1, updated_at = now() WHERE id = $2`,
		partnershipID, projectID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFoundf("project %s not found", projectID)
	}
	return nil
}
