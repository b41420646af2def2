package contract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"skillbridge/internal/database"
	"skillbridge/internal/fault"
	"skillbridge/internal/model"

	"github.com/google/uuid"
)

type Store interface {
	GetSuperadmin(ctx context.Context, org model.OrgRef) (model.Membership, error)
	ListContractsByOwner(ctx context.Context, owner model.OrgRef) ([]model.Contract, error)
	CreateContract(ctx context.Context, params database.CreateContractParams) (model.Contract, error)
	DeactivateContract(ctx context.Context, id uuid.UUID) error
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Manager gates privileged operations behind a currently active contract.
type Manager struct {
	logger *slog.Logger
	store  Store
	now    func() time.Time
}

func NewManager(logger *slog.Logger, store Store) Manager {
	return Manager{logger: logger, store: store, now: time.Now}
}

// CurrentlyEntitled reports whether the owner holds a contract that is
// active, started, and not past its end date.
func (m *Manager) CurrentlyEntitled(ctx context.Context, owner model.OrgRef) (bool, error) {
	contracts, err := m.store.ListContractsByOwner(ctx, owner)
	if err != nil {
		return false, fmt.Errorf("failed to list contracts for %s: %w", owner, err)
	}

	now := m.now()
	for _, c := range contracts {
		if c.CurrentlyEntitled(now) {
			return true, nil
		}
	}
	return false, nil
}

type ActivateParam struct {
	Owner     model.OrgRef
	StartDate time.Time
	EndDate   *time.Time
}

// Activate creates an active contract for the owner. The owner must already
// have a superadmin, the dates must form a forward window, and an existing
// active unexpired contract wins over a second activation.
func (m *Manager) Activate(ctx context.Context, param ActivateParam) (model.Contract, error) {
	if param.EndDate != nil && !param.EndDate.After(param.StartDate) {
		return model.Contract{}, fault.Invalidf("contract end date must be after its start date")
	}
	now := m.now()
	if param.EndDate != nil && param.EndDate.Before(now) {
		return model.Contract{}, fault.Invalidf("contract is already expired")
	}

	if _, err := m.store.GetSuperadmin(ctx, param.Owner); err != nil {
		if errors.Is(err, fault.NotFound) {
			return model.Contract{}, fault.Invalidf("owner %s has no superadmin yet", param.Owner)
		}
		return model.Contract{}, err
	}

	// Fast-fail pre-check; the partial unique index on active contracts
	// catches the concurrent case.
	existing, err := m.store.ListContractsByOwner(ctx, param.Owner)
	if err != nil {
		return model.Contract{}, err
	}
	var expired []uuid.UUID
	for _, c := range existing {
		if !c.Active {
			continue
		}
		if c.EndDate == nil || c.EndDate.After(now) {
			return model.Contract{}, fault.Conflictf("owner %s already has an active contract", param.Owner)
		}
		// Active flag left on a date-expired contract; clear it so the
		// single-active index accepts the replacement.
		expired = append(expired, c.ID)
	}

	var contract model.Contract
	err = m.store.RunInTx(ctx, func(ctx context.Context) error {
		for _, id := range expired {
			if err := m.store.DeactivateContract(ctx, id); err != nil {
				return err
			}
		}
		contract, err = m.store.CreateContract(ctx, database.CreateContractParams{
			Owner:     param.Owner,
			Active:    true,
			StartDate: param.StartDate,
			EndDate:   param.EndDate,
		})
		return err
	})
	if err != nil {
		return model.Contract{}, err
	}

	m.logger.Info("Contract activated", "contract_id", contract.ID, "owner", param.Owner.String(), "start_date", param.StartDate)
	return contract, nil
}

// Deactivate turns an active contract off, freeing the owner's single active
// slot.
func (m *Manager) Deactivate(ctx context.Context, id uuid.UUID) error {
	return m.store.DeactivateContract(ctx, id)
}
