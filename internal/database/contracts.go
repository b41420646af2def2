package database

import (
	"context"
	"time"

	"skillbridge/internal/fault"
	"skillbridge/internal/model"

	"github.com/google/uuid"
)

type CreateContractParams struct {
	Owner     model.OrgRef
	Active    bool
	StartDate time.Time
	EndDate   *time.Time
}

func (db *Database) CreateContract(ctx context.Context, params CreateContractParams) (model.Contract, error) {
	c := model.Contract{
		ID:        uuid.New(),
		Owner:     params.Owner,
		Active:    params.Active,
		StartDate: params.StartDate,
		EndDate:   params.EndDate,
		CreatedAt: time.Now(),
	}
	if _, err := db.q(ctx).Exec(ctx, `INSERT INTO tbl_contract (id, owner_kind, owner_id, active, start_date, end_date, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Owner.Kind, c.Owner.ID, c.Active, c.StartDate, c.EndDate, c.CreatedAt); err != nil {
		if IsUniqueViolation(err) {
			return model.Contract{}, fault.Wrap(fault.KindConflict, err, "owner already has an active contract")
		}
		return model.Contract{}, err
	}
	return c, nil
}

func (db *Database) ListContractsByOwner(ctx context.Context, owner model.OrgRef) ([]model.Contract, error) {
	rows, err := db.q(ctx).Query(ctx, `SELECT id, owner_kind, owner_id, active, start_date, end_date, created_at FROM tbl_contract WHERE owner_kind = $1 AND owner_id = $2`,
		owner.Kind, owner.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contracts []model.Contract
	for rows.Next() {
		var c model.Contract
		if err := rows.Scan(&c.ID, &c.Owner.Kind, &c.Owner.ID, &c.Active, &c.StartDate, &c.EndDate, &c.CreatedAt); err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

func (db *Database) DeactivateContract(ctx context.Context, id uuid.UUID) error {
	tag, err := db.q(ctx).Exec(ctx, `UPDATE tbl_contract SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFoundf("contract %s not found", id)
	}
	return nil
}
