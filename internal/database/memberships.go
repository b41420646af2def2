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

const membershipColumns = `id, user_id, organization_kind, organization_id, role, status, created_at, updated_at`

func scanMembership(row pgx.Row) (model.Membership, error) {
	var m model.Membership
	err := row.Scan(&m.ID, &m.UserID, &m.Organization.Kind, &m.Organization.ID, &m.Role, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

type CreateMembershipParams struct {
	UserID       uuid.UUID
	Organization model.OrgRef
	Role         model.Role
	Status       model.MembershipStatus
}

func (db *Database) CreateMembership(ctx context.Context, params CreateMembershipParams) (model.Membership, error) {
	m := model.Membership{
		ID:           uuid.New(),
		UserID:       params.UserID,
		Organization: params.Organization,
		Role:         params.Role,
		Status:       params.Status,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if _, err := db.q(ctx).Exec(ctx, `INSERT INTO tbl_membership (id, user_id, organization_kind, organization_id, role, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.UserID, m.Organization.Kind, m.Organization.ID, m.Role, m.Status, m.CreatedAt, m.UpdatedAt); err != nil {
		if IsUniqueViolation(err) {
			return model.Membership{}, fault.Wrap(fault.KindConflict, err, "membership already exists")
		}
		return model.Membership{}, err
	}
	return m, nil
}

func (db *Database) GetMembershipByID(ctx context.Context, id uuid.UUID) (model.Membership, error) {
	m, err := scanMembership(db.q(ctx).QueryRow(ctx, `SELECT `+membershipColumns+` FROM tbl_membership WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return m, fault.NotFoundf("membership %s not found", id)
		}
		return m, err
	}
	return m, nil
}

func (db *Database) GetMembership(ctx context.Context, userID uuid.UUID, org model.OrgRef) (model.Membership, error) {
	m, err := scanMembership(db.q(ctx).QueryRow(ctx, `SELECT `+membershipColumns+` FROM tbl_membership WHERE user_id = $1 AND organization_kind = $2 AND organization_id = $3`,
		userID, org.Kind, org.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return m, fault.NotFoundf("membership of user %s in %s not found", userID, org)
		}
		return m, err
	}
	return m, nil
}

// GetSuperadmin returns the confirmed superadmin membership of org, or a
// NotFound fault when the organization has none.
func (db *Database) GetSuperadmin(ctx context.Context, org model.OrgRef) (model.Membership, error) {
	m, err := scanMembership(db.q(ctx).QueryRow(ctx, `SELECT `+membershipColumns+` FROM tbl_membership WHERE organization_kind = $1 AND organization_id = $2 AND role = 'superadmin' AND status = 'confirmed'`,
		org.Kind, org.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return m, fault.NotFoundf("organization %s has no superadmin", org)
		}
		return m, err
	}
	return m, nil
}

type UpdateMembershipParams struct {
	Role   *model.Role
	Status *model.MembershipStatus
}

func (db *Database) UpdateMembership(ctx context.Context, id uuid.UUID, params UpdateMembershipParams) error {
	m, err := db.GetMembershipByID(ctx, id)
	if err != nil {
		return err
	}
	role := m.Role
	if params.Role != nil {
		role = *params.Role
	}
	status := m.Status
	if params.Status != nil {
		status = *params.Status
	}

	if _, err := db.q(ctx).Exec(ctx, `UPDATE tbl_membership SET role = $1, status = $2, updated_at = now() WHERE id = $3`,
		role, status, id); err != nil {
		if IsUniqueViolation(err) {
			return fault.Wrap(fault.KindConflict, err, "organization already has a superadmin")
		}
		return err
	}
	return nil
}

func (db *Database) DeleteMembership(ctx context.Context, id uuid.UUID) error {
	tag, err := db.q(ctx).Exec(ctx, `DELETE FROM tbl_membership WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFoundf("membership %s not found", id)
	}
	return nil
}

func (db *Database) ListMembershipsByUser(ctx context.Context, userID uuid.UUID) ([]model.Membership, error) {
	rows, err := db.q(ctx).Query(ctx, `SELECT `+membershipColumns+` FROM tbl_membership WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMemberships(rows)
}

func (db *Database) ListMembershipsByOrganization(ctx context.Context, org model.OrgRef) ([]model.Membership, error) {
	rows, err := db.q(ctx).Query(ctx, `SELECT `+membershipColumns+` FROM tbl_membership WHERE organization_kind = $1 AND organization_id = $2`, org.Kind, org.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMemberships(rows)
}

func collectMemberships(rows pgx.Rows) ([]model.Membership, error) {
	var memberships []model.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

// UnassignTeacherFromSchoolClasses detaches a teacher from the school-owned
// classes of one school. Independent classes keep their teacher.
func (db *Database) UnassignTeacherFromSchoolClasses(ctx context.Context, teacherID uuid.UUID, schoolID uuid.UUID) error {
	_, err := db.q(ctx).Exec(ctx, `UPDATE tbl_school_class SET teacher_id = NULL WHERE teacher_id = $1 AND school_id = $2 AND NOT independent`,
		teacherID, schoolID)
	return err
}
