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

const branchRequestColumns = `id, parent_kind, parent_id, child_kind, child_id, initiator_kind, initiator_id, status, created_at, confirmed_at`

func scanBranchRequest(row pgx.Row) (model.BranchRequest, error) {
	var r model.BranchRequest
	err := row.Scan(&r.ID, &r.Parent.Kind, &r.Parent.ID, &r.Child.Kind, &r.Child.ID,
		&r.Initiator.Kind, &r.Initiator.ID, &r.Status, &r.CreatedAt, &r.ConfirmedAt)
	return r, err
}

type CreateBranchRequestParams struct {
	Parent    model.OrgRef
	Child     model.OrgRef
	Initiator model.OrgRef
}

func (db *Database) CreateBranchRequest(ctx context.Context, params CreateBranchRequestParams) (model.BranchRequest, error) {
	r := model.BranchRequest{
		ID:        uuid.New(),
		Parent:    params.Parent,
		Child:     params.Child,
		Initiator: params.Initiator,
		Status:    model.BranchRequestStatusPending,
		CreatedAt: time.Now(),
	}
	if _, err := db.q(ctx).Exec(ctx, `INSERT INTO tbl_branch_request (id, parent_kind, parent_id, child_kind, child_id, initiator_kind, initiator_id, status, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.Parent.Kind, r.Parent.ID, r.Child.Kind, r.Child.ID, r.Initiator.Kind, r.Initiator.ID, r.Status, r.CreatedAt); err != nil {
		if IsUniqueViolation(err) {
			return model.BranchRequest{}, fault.Wrap(fault.KindConflict, err, "branch request already exists for this pair")
		}
		return model.BranchRequest{}, err
	}
	return r, nil
}

func (db *Database) GetBranchRequest(ctx context.Context, id uuid.UUID) (model.BranchRequest, error) {
	r, err := scanBranchRequest(db.q(ctx).QueryRow(ctx, `SELECT `+branchRequestColumns+` FROM tbl_branch_request WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r, fault.NotFoundf("branch request %s not found", id)
		}
		return r, err
	}
	return r, nil
}

func (db *Database) UpdateBranchRequestStatus(ctx context.Context, id uuid.UUID, status model.BranchRequestStatus, confirmedAt *time.Time) error {
	tag, err := db.q(ctx).Exec(ctx, `UPDATE tbl_branch_request SET status = $1, confirmed_at = $2 WHERE id = $3`,
		status, confirmedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFoundf("branch request %s not found", id)
	}
	return nil
}
