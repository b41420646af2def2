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

const partnershipColumns = `id, initiator_kind, initiator_id, name, type, status, share_members, share_projects, has_sponsorship, created_at, confirmed_at`

func scanPartnership(row pgx.Row) (model.Partnership, error) {
	var p model.Partnership
	err := row.Scan(&p.ID, &p.Initiator.Kind, &p.Initiator.ID, &p.Name, &p.Type, &p.Status,
		&p.ShareMembers, &p.ShareProjects, &p.HasSponsorship, &p.CreatedAt, &p.ConfirmedAt)
	return p, err
}

const partnershipMemberColumns = `id, partnership_id, participant_kind, participant_id, status, role, joined_at, confirmed_at`

func scanPartnershipMember(row pgx.Row) (model.PartnershipMember, error) {
	var m model.PartnershipMember
	err := row.Scan(&m.ID, &m.PartnershipID, &m.Participant.Kind, &m.Participant.ID,
		&m.Status, &m.Role, &m.JoinedAt, &m.ConfirmedAt)
	return m, err
}

func (db *Database) CreatePartnership(ctx context.Context, p model.Partnership) error {
	_, err := db.q(ctx).Exec(ctx, `INSERT INTO tbl_partnership (id, initiator_kind, initiator_id, name, type, status, share_members, share_projects, has_sponsorship, created_at, confirmed_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.Initiator.Kind, p.Initiator.ID, p.Name, p.Type, p.Status, p.ShareMembers, p.ShareProjects, p.HasSponsorship, p.CreatedAt, p.ConfirmedAt)
	return err
}

func (db *Database) CreatePartnershipMember(ctx context.Context, m model.PartnershipMember) error {
	if _, err := db.q(ctx).Exec(ctx, `INSERT INTO tbl_partnership_member (id, partnership_id, participant_kind, participant_id, status, role, joined_at, confirmed_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.PartnershipID, m.Participant.Kind, m.Participant.ID, m.Status, m.Role, m.JoinedAt, m.ConfirmedAt); err != nil {
		if IsUniqueViolation(err) {
			return fault.Wrap(fault.KindConflict, err, "participant already in partnership")
		}
		return err
	}
	return nil
}

func (db *Database) GetPartnership(ctx context.Context, id uuid.UUID) (model.Partnership, error) {
	p, err := scanPartnership(db.q(ctx).QueryRow(ctx, `SELECT `+partnershipColumns+` FROM tbl_partnership WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return p, fault.NotFoundf("partnership %s not found", id)
		}
		return p, err
	}
	return p, nil
}

// GetPartnershipForUpdate locks the partnership row for the duration of the
// surrounding transaction. Concurrent consensus checks serialize on this lock.
func (db *Database) GetPartnershipForUpdate(ctx context.Context, id uuid.UUID) (model.Partnership, error) {
	p, err := scanPartnership(db.q(ctx).QueryRow(ctx, `SELECT `+partnershipColumns+` FROM tbl_partnership WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return p, fault.NotFoundf("partnership %s not found", id)
		}
		return p, err
	}
	return p, nil
}

func (db *Database) GetPartnershipMember(ctx context.Context, id uuid.UUID) (model.PartnershipMember, error) {
	m, err := scanPartnershipMember(db.q(ctx).QueryRow(ctx, `SELECT `+partnershipMemberColumns+` FROM tbl_partnership_member WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return m, fault.NotFoundf("partnership member %s not found", id)
		}
		return m, err
	}
	return m, nil
}

func (db *Database) ListPartnershipMembers(ctx context.Context, partnershipID uuid.UUID) ([]model.PartnershipMember, error) {
	rows, err := db.q(ctx).Query(ctx, `SELECT `+partnershipMemberColumns+` FROM tbl_partnership_member WHERE partnership_id = $1 ORDER BY joined_at`, partnershipID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []model.PartnershipMember
	for rows.Next() {
		m, err := scanPartnershipMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (db *Database) UpdatePartnershipMemberStatus(ctx context.Context, id uuid.UUID, status model.PartnershipMemberStatus, confirmedAt *time.Time) error {
	tag, err := db.q(ctx).Exec(ctx, `UPDATE tbl_partnership_member SET status = $1, confirmed_at = $2 WHERE id = $3`,
		status, confirmedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFoundf("partnership member %s not found", id)
	}
	return nil
}

func (db *Database) UpdatePartnershipStatus(ctx context.Context, id uuid.UUID, status model.PartnershipStatus, confirmedAt *time.Time) error {
	tag, err := db.q(ctx).Exec(ctx, `UPDATE tbl_partnership SET status = $1, confirmed_at = $2 WHERE id = $3`,
		status, confirmedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFoundf("partnership %s not found", id)
	}
	return nil
}

// ListConfirmedPartnershipsFor returns every confirmed partnership in which
// org is itself a confirmed participant.
func (db *Database) ListConfirmedPartnershipsFor(ctx context.Context, org model.OrgRef) ([]model.Partnership, error) {
	rows, err := db.q(ctx).Query(ctx, `SELECT p.id, p.initiator_kind, p.initiator_id, p.name, p.type, p.status, p.share_members, p.share_projects, p.has_sponsorship, p.created_at, p.confirmed_at
		FROM tbl_partnership p
		JOIN tbl_partnership_member m ON m.partnership_id = p.id
		WHERE m.participant_kind = $1 AND m.participant_id = $2 AND m.status = 'confirmed' AND p.status = 'confirmed'`,
		org.Kind, org.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var partnerships []model.Partnership
	for rows.Next() {
		p, err := scanPartnership(rows)
		if err != nil {
			return nil, err
		}
		partnerships = append(partnerships, p)
	}
	return partnerships, rows.Err()
}
