package project

import (
	"context"
	"errors"
	"log/slog"

	"skillbridge/internal/database"
	"skillbridge/internal/fault"
	"skillbridge/internal/model"

	"github.com/google/uuid"
)

type Store interface {
	GetProject(ctx context.Context, id uuid.UUID) (model.Project, error)
	GetProjectMember(ctx context.Context, projectID, userID uuid.UUID) (model.ProjectMember, error)
	CreateProjectMember(ctx context.Context, params database.CreateProjectMemberParams) (model.ProjectMember, error)
	UpdateProjectMemberRole(ctx context.Context, id uuid.UUID, role model.ProjectRole) error
	SetProjectPartnership(ctx context.Context, projectID, partnershipID uuid.UUID) error
	ListProjectOrganizations(ctx context.Context, projectID uuid.UUID) ([]model.OrgRef, error)
	GetMembership(ctx context.Context, userID uuid.UUID, org model.OrgRef) (model.Membership, error)
	GetPartnership(ctx context.Context, id uuid.UUID) (model.Partnership, error)
	ListPartnershipMembers(ctx context.Context, partnershipID uuid.UUID) ([]model.PartnershipMember, error)
}

// Manager layers project-level role delegation on top of organizational
// roles.
type Manager struct {
	logger *slog.Logger
	store  Store
}

func NewManager(logger *slog.Logger, store Store) Manager {
	return Manager{logger: logger, store: store}
}

type AddMemberParam struct {
	ProjectID uuid.UUID
	UserID    uuid.UUID
	Role      model.ProjectRole
}

// AddMember creates a project membership. The project owner's own row is
// always normalized to co_owner, whatever role was requested; explicit roles
// for other users are kept as given.
func (m *Manager) AddMember(ctx context.Context, param AddMemberParam) (model.ProjectMember, error) {
	if !param.Role.IsValid() {
		return model.ProjectMember{}, fault.Invalidf("invalid project role: %s", param.Role)
	}

	project, err := m.store.GetProject(ctx, param.ProjectID)
	if err != nil {
		return model.ProjectMember{}, err
	}

	role := param.Role
	if param.UserID == project.OwnerID {
		role = model.ProjectRoleCoOwner
	}

	return m.store.CreateProjectMember(ctx, database.CreateProjectMemberParams{
		ProjectID: param.ProjectID,
		UserID:    param.UserID,
		Role:      role,
	})
}

type AddCoOwnerParam struct {
	ProjectID uuid.UUID
	UserID    uuid.UUID
	AddedByID uuid.UUID
}

// AddCoOwner promotes (or adds) a user as project co-owner. The grantor must
// be the owner or an existing co-owner, and the user must independently hold
// a confirmed referent-or-above role in an organization affiliated with the
// project. For a partner project, any confirmed partner organization counts.
func (m *Manager) AddCoOwner(ctx context.Context, param AddCoOwnerParam) (model.ProjectMember, error) {
	project, err := m.store.GetProject(ctx, param.ProjectID)
	if err != nil {
		return model.ProjectMember{}, err
	}

	if err := m.requireOwnerOrCoOwner(ctx, project, param.AddedByID); err != nil {
		return model.ProjectMember{}, err
	}

	eligible, err := m.holdsElevatedRole(ctx, project, param.UserID)
	if err != nil {
		return model.ProjectMember{}, err
	}
	if !eligible {
		return model.ProjectMember{}, fault.Invalidf("user must hold a confirmed referent role or above in an organization affiliated with the project")
	}

	existing, err := m.store.GetProjectMember(ctx, param.ProjectID, param.UserID)
	if err != nil {
		if !errors.Is(err, fault.NotFound) {
			return model.ProjectMember{}, err
		}
		member, err := m.store.CreateProjectMember(ctx, database.CreateProjectMemberParams{
			ProjectID: param.ProjectID,
			UserID:    param.UserID,
			Role:      model.ProjectRoleCoOwner,
		})
		if err != nil {
			return model.ProjectMember{}, err
		}
		m.logger.Info("Project co-owner added", "project_id", param.ProjectID, "user_id", param.UserID, "added_by", param.AddedByID)
		return member, nil
	}

	if err := m.store.UpdateProjectMemberRole(ctx, existing.ID, model.ProjectRoleCoOwner); err != nil {
		return model.ProjectMember{}, err
	}
	existing.Role = model.ProjectRoleCoOwner
	m.logger.Info("Project co-owner added", "project_id", param.ProjectID, "user_id", param.UserID, "added_by", param.AddedByID)
	return existing, nil
}

type AssignToPartnershipParam struct {
	ProjectID     uuid.UUID
	PartnershipID uuid.UUID
	ByID          uuid.UUID
}

// AssignToPartnership attaches a project to a confirmed partnership whose
// participants cover every organization the project is affiliated with.
func (m *Manager) AssignToPartnership(ctx context.Context, param AssignToPartnershipParam) error {
	project, err := m.store.GetProject(ctx, param.ProjectID)
	if err != nil {
		return err
	}

	if err := m.requireOwnerOrCoOwner(ctx, project, param.ByID); err != nil {
		return err
	}

	partnership, err := m.store.GetPartnership(ctx, param.PartnershipID)
	if err != nil {
		return err
	}
	if partnership.Status != model.PartnershipStatusConfirmed {
		return fault.Invalidf("partnership %s is not confirmed", param.PartnershipID)
	}

	members, err := m.store.ListPartnershipMembers(ctx, param.PartnershipID)
	if err != nil {
		return err
	}
	participants := make(map[model.OrgRef]bool, len(members))
	for _, member := range members {
		participants[member.Participant] = true
	}

	affiliated, err := m.store.ListProjectOrganizations(ctx, param.ProjectID)
	if err != nil {
		return err
	}
	for _, org := range affiliated {
		if !participants[org] {
			return fault.Invalidf("organization %s is affiliated with the project but not a partnership participant", org)
		}
	}

	if err := m.store.SetProjectPartnership(ctx, param.ProjectID, param.PartnershipID); err != nil {
		return err
	}

	m.logger.Info("Project assigned to partnership", "project_id", param.ProjectID, "partnership_id", param.PartnershipID, "by", param.ByID)
	return nil
}

func (m *Manager) requireOwnerOrCoOwner(ctx context.Context, project model.Project, userID uuid.UUID) error {
	if userID == project.OwnerID {
		return nil
	}
	member, err := m.store.GetProjectMember(ctx, project.ID, userID)
	if err != nil {
		if errors.Is(err, fault.NotFound) {
			return fault.Forbiddenf("only the project owner or a co-owner may do this")
		}
		return err
	}
	if member.Role != model.ProjectRoleCoOwner {
		return fault.Forbiddenf("only the project owner or a co-owner may do this")
	}
	return nil
}

// holdsElevatedRole reports whether the user holds a confirmed
// referent-or-above membership in any organization affiliated with the
// project, widened to all partner organizations for partner projects.
func (m *Manager) holdsElevatedRole(ctx context.Context, project model.Project, userID uuid.UUID) (bool, error) {
	orgs, err := m.store.ListProjectOrganizations(ctx, project.ID)
	if err != nil {
		return false, err
	}

	if project.PartnershipID != nil {
		members, err := m.store.ListPartnershipMembers(ctx, *project.PartnershipID)
		if err != nil {
			return false, err
		}
		for _, member := range members {
			if member.Status == model.PartnershipMemberStatusConfirmed {
				orgs = append(orgs, member.Participant)
			}
		}
	}

	for _, org := range orgs {
		membership, err := m.store.GetMembership(ctx, userID, org)
		if err != nil {
			if errors.Is(err, fault.NotFound) {
				continue
			}
			return false, err
		}
		if membership.Confirmed() && membership.Role.AtLeast(model.RoleReferent) {
			return true, nil
		}
	}
	return false, nil
}
