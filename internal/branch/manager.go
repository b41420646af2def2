package branch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"skillbridge/internal/database"
	"skillbridge/internal/fault"
	"skillbridge/internal/model"
	"skillbridge/internal/notifications"

	"github.com/google/uuid"
)

type Store interface {
	GetOrganization(ctx context.Context, ref model.OrgRef) (model.Organization, error)
	ListBranchChildren(ctx context.Context, parent model.OrgRef) ([]model.Organization, error)
	CreateBranchRequest(ctx context.Context, params database.CreateBranchRequestParams) (model.BranchRequest, error)
	GetBranchRequest(ctx context.Context, id uuid.UUID) (model.BranchRequest, error)
	UpdateBranchRequestStatus(ctx context.Context, id uuid.UUID, status model.BranchRequestStatus, confirmedAt *time.Time) error
	SetOrganizationParent(ctx context.Context, child, parent model.OrgRef) error
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Manager runs the branch request protocol. Branch depth is capped at one by
// construction: a request is refused when the child already has a parent or
// the parent is itself somebody's child, so a confirmed graph never needs
// cycle detection.
type Manager struct {
	logger   *slog.Logger
	store    Store
	notifier *notifications.Notifier
	now      func() time.Time
}

func NewManager(logger *slog.Logger, store Store, notifier *notifications.Notifier) Manager {
	return Manager{logger: logger, store: store, notifier: notifier, now: time.Now}
}

type RequestParam struct {
	Initiator model.OrgRef
	Parent    model.OrgRef
	Child     model.OrgRef
}

// Request validates the branch invariants and records a pending request. The
// first violated invariant is reported.
func (m *Manager) Request(ctx context.Context, param RequestParam) (model.BranchRequest, error) {
	if param.Parent.Equal(param.Child) {
		return model.BranchRequest{}, fault.Invalidf("an organization cannot branch to itself")
	}
	if param.Parent.Kind != param.Child.Kind {
		return model.BranchRequest{}, fault.Invalidf("parent and child must be the same organization kind")
	}
	if !param.Initiator.Equal(param.Parent) && !param.Initiator.Equal(param.Child) {
		return model.BranchRequest{}, fault.Invalidf("initiator must be the parent or the child")
	}

	parent, err := m.store.GetOrganization(ctx, param.Parent)
	if err != nil {
		return model.BranchRequest{}, err
	}
	if parent.Parent != nil {
		return model.BranchRequest{}, fault.Invalidf("parent organization is itself a branch")
	}

	child, err := m.store.GetOrganization(ctx, param.Child)
	if err != nil {
		return model.BranchRequest{}, err
	}
	if child.Parent != nil {
		return model.BranchRequest{}, fault.Invalidf("child organization already has a parent")
	}

	request, err := m.store.CreateBranchRequest(ctx, database.CreateBranchRequestParams{
		Parent:    param.Parent,
		Child:     param.Child,
		Initiator: param.Initiator,
	})
	if err != nil {
		return model.BranchRequest{}, err
	}

	m.logger.Info("Branch requested", "request_id", request.ID, "parent", param.Parent.String(), "child", param.Child.String())
	return request, nil
}

// Confirm transitions a pending request to confirmed and performs the
// one-time parent assignment in the same transaction. Confirming an already
// confirmed request is a no-op.
func (m *Manager) Confirm(ctx context.Context, requestID uuid.UUID) error {
	request, err := m.store.GetBranchRequest(ctx, requestID)
	if err != nil {
		return err
	}

	switch request.Status {
	case model.BranchRequestStatusConfirmed:
		return nil
	case model.BranchRequestStatusRejected:
		return fault.Invalidf("branch request %s was rejected", requestID)
	}

	confirmedAt := m.now()
	err = m.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := m.store.UpdateBranchRequestStatus(ctx, request.ID, model.BranchRequestStatusConfirmed, &confirmedAt); err != nil {
			return err
		}
		if err := m.store.SetOrganizationParent(ctx, request.Child, request.Parent); err != nil {
			return fmt.Errorf("failed to assign parent: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("Branch confirmed", "request_id", request.ID, "parent", request.Parent.String(), "child", request.Child.String())
	m.notifier.Emit(notifications.EventTypeBranchConfirmed, map[string]any{
		"request_id": request.ID,
		"parent":     request.Parent.String(),
		"child":      request.Child.String(),
	})
	return nil
}

// Reject transitions a pending request to rejected. No relationship is
// mutated; rejected is terminal.
func (m *Manager) Reject(ctx context.Context, requestID uuid.UUID) error {
	request, err := m.store.GetBranchRequest(ctx, requestID)
	if err != nil {
		return err
	}

	switch request.Status {
	case model.BranchRequestStatusRejected:
		return nil
	case model.BranchRequestStatusConfirmed:
		return fault.Invalidf("branch request %s is already confirmed", requestID)
	}

	if err := m.store.UpdateBranchRequestStatus(ctx, request.ID, model.BranchRequestStatusRejected, nil); err != nil {
		return err
	}

	m.logger.Info("Branch rejected", "request_id", request.ID, "parent", request.Parent.String(), "child", request.Child.String())
	return nil
}

// Children lists the confirmed branch children of an organization.
func (m *Manager) Children(ctx context.Context, parent model.OrgRef) ([]model.Organization, error) {
	return m.store.ListBranchChildren(ctx, parent)
}
