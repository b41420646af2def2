package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"skillbridge/internal/database"
	"skillbridge/internal/fault"
	"skillbridge/internal/model"
	"skillbridge/internal/notifications"

	"github.com/google/uuid"
)

// Store is the slice of the database the membership rules need.
type Store interface {
	GetUser(ctx context.Context, id uuid.UUID) (model.User, error)
	GetMembership(ctx context.Context, userID uuid.UUID, org model.OrgRef) (model.Membership, error)
	GetMembershipByID(ctx context.Context, id uuid.UUID) (model.Membership, error)
	GetSuperadmin(ctx context.Context, org model.OrgRef) (model.Membership, error)
	CreateMembership(ctx context.Context, params database.CreateMembershipParams) (model.Membership, error)
	UpdateMembership(ctx context.Context, id uuid.UUID, params database.UpdateMembershipParams) error
	DeleteMembership(ctx context.Context, id uuid.UUID) error
	UnassignTeacherFromSchoolClasses(ctx context.Context, teacherID, schoolID uuid.UUID) error
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Manager struct {
	logger   *slog.Logger
	store    Store
	notifier *notifications.Notifier
}

func NewManager(logger *slog.Logger, store Store, notifier *notifications.Notifier) Manager {
	return Manager{logger: logger, store: store, notifier: notifier}
}

// BootstrapStatus decides the initial status of a new membership: everyone is
// auto-confirmed except a teacher joining an organization that already has a
// superadmin, who must wait for that superadmin's approval.
func BootstrapStatus(systemRole model.SystemRole, hasSuperadmin bool) model.MembershipStatus {
	if systemRole == model.SystemRoleTeacher && hasSuperadmin {
		return model.MembershipStatusPending
	}
	return model.MembershipStatusConfirmed
}

type JoinParam struct {
	UserID       uuid.UUID
	Organization model.OrgRef
	Role         model.Role
}

// Join creates a membership for a user joining an organization on their own
// initiative, applying the bootstrap confirmation rule.
func (m *Manager) Join(ctx context.Context, param JoinParam) (model.Membership, error) {
	if !param.Role.IsValid() {
		return model.Membership{}, fault.Invalidf("invalid role: %s", param.Role)
	}
	if param.Role == model.RoleSuperadmin {
		// Superadmin is granted, never self-assigned on join, except for the
		// bootstrap of an organization that has none.
		if _, err := m.store.GetSuperadmin(ctx, param.Organization); err == nil {
			return model.Membership{}, fault.Conflictf("organization %s already has a superadmin", param.Organization)
		} else if !errors.Is(err, fault.NotFound) {
			return model.Membership{}, fmt.Errorf("failed to look up superadmin of %s: %w", param.Organization, err)
		}
	}

	user, err := m.store.GetUser(ctx, param.UserID)
	if err != nil {
		return model.Membership{}, err
	}

	hasSuperadmin := true
	if _, err := m.store.GetSuperadmin(ctx, param.Organization); err != nil {
		if !errors.Is(err, fault.NotFound) {
			return model.Membership{}, fmt.Errorf("failed to look up superadmin of %s: %w", param.Organization, err)
		}
		hasSuperadmin = false
	}

	status := BootstrapStatus(user.SystemRole, hasSuperadmin)
	created, err := m.store.CreateMembership(ctx, database.CreateMembershipParams{
		UserID:       param.UserID,
		Organization: param.Organization,
		Role:         param.Role,
		Status:       status,
	})
	if err != nil {
		return model.Membership{}, err
	}

	m.logger.Info("Membership created", "membership_id", created.ID, "user_id", param.UserID, "organization", param.Organization.String(), "status", created.Status)

	if created.Confirmed() {
		m.notifier.Emit(notifications.EventTypeMembershipConfirmed, map[string]any{
			"membership_id": created.ID,
			"user_id":       created.UserID,
			"organization":  created.Organization.String(),
		})
	}
	return created, nil
}

type GrantRoleParam struct {
	ActorID      uuid.UUID
	Organization model.OrgRef
	TargetUserID uuid.UUID
	Role         model.Role
}

// GrantRole sets the role of the target user in the organization, creating
// the membership when it does not exist yet. Only an admin-or-above may
// grant, and only the current superadmin may grant superadmin.
func (m *Manager) GrantRole(ctx context.Context, param GrantRoleParam) (model.Membership, error) {
	if !param.Role.IsValid() {
		return model.Membership{}, fault.Invalidf("invalid role: %s", param.Role)
	}

	actor, err := m.store.GetMembership(ctx, param.ActorID, param.Organization)
	if err != nil {
		if errors.Is(err, fault.NotFound) {
			return model.Membership{}, fault.Forbiddenf("actor is not a member of %s", param.Organization)
		}
		return model.Membership{}, err
	}
	if !actor.Confirmed() || !actor.Role.AtLeast(model.RoleAdmin) {
		return model.Membership{}, fault.Forbiddenf("granting roles requires a confirmed admin membership")
	}

	if param.Role == model.RoleSuperadmin {
		if actor.Role != model.RoleSuperadmin {
			return model.Membership{}, fault.Forbiddenf("only the superadmin may grant superadmin")
		}
		current, err := m.store.GetSuperadmin(ctx, param.Organization)
		if err == nil && current.UserID != param.TargetUserID {
			return model.Membership{}, fault.Conflictf("organization %s already has a superadmin", param.Organization)
		}
		if err != nil && !errors.Is(err, fault.NotFound) {
			return model.Membership{}, err
		}
	}

	var granted model.Membership
	err = m.store.RunInTx(ctx, func(ctx context.Context) error {
		target, err := m.store.GetMembership(ctx, param.TargetUserID, param.Organization)
		if err != nil {
			if !errors.Is(err, fault.NotFound) {
				return err
			}
			granted, err = m.store.CreateMembership(ctx, database.CreateMembershipParams{
				UserID:       param.TargetUserID,
				Organization: param.Organization,
				Role:         param.Role,
				Status:       model.MembershipStatusConfirmed,
			})
			return err
		}

		if target.Role == model.RoleSuperadmin && actor.Role != model.RoleSuperadmin {
			return fault.Forbiddenf("only the superadmin may change the superadmin's role")
		}

		role := param.Role
		status := model.MembershipStatusConfirmed
		if err := m.store.UpdateMembership(ctx, target.ID, database.UpdateMembershipParams{
			Role:   &role,
			Status: &status,
		}); err != nil {
			return err
		}
		granted = target
		granted.Role = role
		granted.Status = status
		return nil
	})
	if err != nil {
		return model.Membership{}, err
	}

	m.logger.Info("Role granted", "membership_id", granted.ID, "organization", param.Organization.String(), "role", param.Role, "granted_by", param.ActorID)
	return granted, nil
}

type RevokeParam struct {
	ActorID      uuid.UUID
	MembershipID uuid.UUID
}

// Revoke removes a membership. A superadmin membership cannot be removed; the
// role has to be transferred first. Removing somebody else's membership
// requires an admin-or-above membership in the same organization, and a
// target of admin rank or above additionally requires the actor to outrank
// plain members. Revoking a teacher from a school detaches them from the
// school's own classes in the same transaction; independent classes are left
// alone.
func (m *Manager) Revoke(ctx context.Context, param RevokeParam) error {
	target, err := m.store.GetMembershipByID(ctx, param.MembershipID)
	if err != nil {
		return err
	}
	if target.Role == model.RoleSuperadmin {
		return fault.Forbiddenf("superadmin membership cannot be removed, transfer it first")
	}

	if target.UserID != param.ActorID {
		actor, err := m.store.GetMembership(ctx, param.ActorID, target.Organization)
		if err != nil {
			if errors.Is(err, fault.NotFound) {
				return fault.Forbiddenf("actor is not a member of %s", target.Organization)
			}
			return err
		}
		if !actor.Confirmed() || !actor.Role.AtLeast(model.RoleAdmin) {
			return fault.Forbiddenf("removing another membership requires a confirmed admin membership")
		}
	}

	user, err := m.store.GetUser(ctx, target.UserID)
	if err != nil {
		return err
	}

	err = m.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := m.store.DeleteMembership(ctx, target.ID); err != nil {
			return err
		}
		// The cascade and the removal commit or fail together.
		if user.SystemRole == model.SystemRoleTeacher && target.Organization.Kind == model.OrgKindSchool {
			if err := m.store.UnassignTeacherFromSchoolClasses(ctx, target.UserID, target.Organization.ID); err != nil {
				return fmt.Errorf("failed to unassign teacher from school classes: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("Membership revoked", "membership_id", target.ID, "user_id", target.UserID, "organization", target.Organization.String(), "revoked_by", param.ActorID)
	return nil
}

type ConfirmParam struct {
	ActorID      uuid.UUID
	MembershipID uuid.UUID
}

// Confirm approves a pending membership. Only an admin-or-above of the same
// organization may confirm.
func (m *Manager) Confirm(ctx context.Context, param ConfirmParam) error {
	target, err := m.store.GetMembershipByID(ctx, param.MembershipID)
	if err != nil {
		return err
	}
	if target.Confirmed() {
		return nil
	}

	actor, err := m.store.GetMembership(ctx, param.ActorID, target.Organization)
	if err != nil {
		if errors.Is(err, fault.NotFound) {
			return fault.Forbiddenf("actor is not a member of %s", target.Organization)
		}
		return err
	}
	if !actor.Confirmed() || !actor.Role.AtLeast(model.RoleAdmin) {
		return fault.Forbiddenf("confirming a membership requires a confirmed admin membership")
	}

	status := model.MembershipStatusConfirmed
	if err := m.store.UpdateMembership(ctx, target.ID, database.UpdateMembershipParams{Status: &status}); err != nil {
		return err
	}

	m.notifier.Emit(notifications.EventTypeMembershipConfirmed, map[string]any{
		"membership_id": target.ID,
		"user_id":       target.UserID,
		"organization":  target.Organization.String(),
	})
	return nil
}

type TransferSuperadminParam struct {
	ActorID      uuid.UUID
	Organization model.OrgRef
	NewHolderID  uuid.UUID
}

// TransferSuperadmin demotes the current superadmin to admin and promotes the
// new holder, atomically. Only the current superadmin may transfer.
func (m *Manager) TransferSuperadmin(ctx context.Context, param TransferSuperadminParam) error {
	current, err := m.store.GetSuperadmin(ctx, param.Organization)
	if err != nil {
		return err
	}
	if current.UserID != param.ActorID {
		return fault.Forbiddenf("only the current superadmin may transfer the role")
	}
	if current.UserID == param.NewHolderID {
		return nil
	}

	successor, err := m.store.GetMembership(ctx, param.NewHolderID, param.Organization)
	if err != nil {
		if errors.Is(err, fault.NotFound) {
			return fault.Invalidf("new holder is not a member of %s", param.Organization)
		}
		return err
	}
	if !successor.Confirmed() {
		return fault.Invalidf("new holder's membership is not confirmed")
	}

	err = m.store.RunInTx(ctx, func(ctx context.Context) error {
		// Demote first so the partial unique index never sees two confirmed
		// superadmins inside the transaction.
		admin := model.RoleAdmin
		if err := m.store.UpdateMembership(ctx, current.ID, database.UpdateMembershipParams{Role: &admin}); err != nil {
			return err
		}
		superadmin := model.RoleSuperadmin
		return m.store.UpdateMembership(ctx, successor.ID, database.UpdateMembershipParams{Role: &superadmin})
	})
	if err != nil {
		return err
	}

	m.logger.Info("Superadmin transferred", "organization", param.Organization.String(), "from", current.UserID, "to", param.NewHolderID)
	return nil
}
