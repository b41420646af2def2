package badge

import (
	"context"
	"errors"
	"log/slog"

	"skillbridge/internal/database"
	"skillbridge/internal/fault"
	"skillbridge/internal/model"
	"skillbridge/internal/notifications"

	"github.com/google/uuid"
)

type Store interface {
	GetBadge(ctx context.Context, id uuid.UUID) (model.Badge, error)
	GetUser(ctx context.Context, id uuid.UUID) (model.User, error)
	GetMembership(ctx context.Context, userID uuid.UUID, org model.OrgRef) (model.Membership, error)
	GetProject(ctx context.Context, id uuid.UUID) (model.Project, error)
	ListProjectOrganizations(ctx context.Context, projectID uuid.UUID) ([]model.OrgRef, error)
	CreateBadgeAssignment(ctx context.Context, params database.CreateBadgeAssignmentParams) (model.BadgeAssignment, error)
}

// Entitlements is the contract gate consulted before any badge is issued.
type Entitlements interface {
	CurrentlyEntitled(ctx context.Context, owner model.OrgRef) (bool, error)
}

// Manager decides who may issue badges and records the issuances. The rule
// composes the membership role model and the contract gate: a confirmed
// intervenant-or-above membership in an entitled organization.
type Manager struct {
	logger       *slog.Logger
	store        Store
	entitlements Entitlements
	notifier     *notifications.Notifier
}

func NewManager(logger *slog.Logger, store Store, entitlements Entitlements, notifier *notifications.Notifier) Manager {
	return Manager{logger: logger, store: store, entitlements: entitlements, notifier: notifier}
}

// CanAssign reports whether the actor may issue badges inside the
// organization, with the refusal reason as a fault when not.
func (m *Manager) CanAssign(ctx context.Context, actorID uuid.UUID, org model.OrgRef) error {
	membership, err := m.store.GetMembership(ctx, actorID, org)
	if err != nil {
		if errors.Is(err, fault.NotFound) {
			return fault.Forbiddenf("actor is not a member of %s", org)
		}
		return err
	}
	if !membership.Confirmed() || !membership.Role.AtLeast(model.RoleIntervenant) {
		return fault.Forbiddenf("issuing badges requires a confirmed intervenant membership or above")
	}

	entitled, err := m.entitlements.CurrentlyEntitled(ctx, org)
	if err != nil {
		return err
	}
	if !entitled {
		return fault.Forbiddenf("organization %s has no active contract", org)
	}
	return nil
}

// CanAssignInProject applies CanAssign to every organization affiliated with
// the project; one passing organization suffices and is returned.
func (m *Manager) CanAssignInProject(ctx context.Context, actorID uuid.UUID, projectID uuid.UUID) (model.OrgRef, error) {
	orgs, err := m.store.ListProjectOrganizations(ctx, projectID)
	if err != nil {
		return model.OrgRef{}, err
	}

	var lastRefusal error
	for _, org := range orgs {
		err := m.CanAssign(ctx, actorID, org)
		if err == nil {
			return org, nil
		}
		if !errors.Is(err, fault.Forbidden) {
			return model.OrgRef{}, err
		}
		lastRefusal = err
	}
	if lastRefusal != nil {
		return model.OrgRef{}, lastRefusal
	}
	return model.OrgRef{}, fault.Forbiddenf("project has no affiliated organizations")
}

type AssignParam struct {
	ActorID      uuid.UUID
	BadgeID      uuid.UUID
	RecipientIDs []uuid.UUID
	Organization model.OrgRef
	ProjectID    *uuid.UUID
}

// RecipientResult is the outcome of one recipient's assignment. Assign never
// turns a partial failure into an all-or-nothing rollback.
type RecipientResult struct {
	RecipientID uuid.UUID
	Assignment  *model.BadgeAssignment
	Err         error
}

// Assign issues a badge to each recipient independently. The authorization
// context is checked once: the given organization directly, or every
// organization affiliated with the project when a project is given.
func (m *Manager) Assign(ctx context.Context, param AssignParam) ([]RecipientResult, error) {
	if _, err := m.store.GetBadge(ctx, param.BadgeID); err != nil {
		return nil, err
	}

	org := param.Organization
	if param.ProjectID != nil {
		if _, err := m.store.GetProject(ctx, *param.ProjectID); err != nil {
			return nil, err
		}
		passing, err := m.CanAssignInProject(ctx, param.ActorID, *param.ProjectID)
		if err != nil {
			return nil, err
		}
		org = passing
	} else {
		if err := m.CanAssign(ctx, param.ActorID, org); err != nil {
			return nil, err
		}
	}

	results := make([]RecipientResult, 0, len(param.RecipientIDs))
	for _, recipientID := range param.RecipientIDs {
		result := RecipientResult{RecipientID: recipientID}

		if _, err := m.store.GetUser(ctx, recipientID); err != nil {
			result.Err = err
			results = append(results, result)
			continue
		}

		assignment, err := m.store.CreateBadgeAssignment(ctx, database.CreateBadgeAssignmentParams{
			BadgeID:      param.BadgeID,
			RecipientID:  recipientID,
			AssignerID:   param.ActorID,
			Organization: org,
			ProjectID:    param.ProjectID,
		})
		if err != nil {
			result.Err = err
			results = append(results, result)
			continue
		}
		result.Assignment = &assignment
		results = append(results, result)

		m.notifier.Emit(notifications.EventTypeBadgeAssigned, map[string]any{
			"badge_id":     param.BadgeID,
			"recipient_id": recipientID,
			"organization": org.String(),
		})
	}

	m.logger.Info("Badge assignment processed", "badge_id", param.BadgeID, "organization", org.String(), "recipients", len(param.RecipientIDs))
	return results, nil
}
