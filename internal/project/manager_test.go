package project_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"skillbridge/internal/database"
	"skillbridge/internal/fault"
	"skillbridge/internal/model"
	"skillbridge/internal/project"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	projects       map[uuid.UUID]model.Project
	projectOrgs    map[uuid.UUID][]model.OrgRef
	projectMembers map[uuid.UUID]model.ProjectMember
	memberships    map[uuid.UUID][]model.Membership
	partnerships   map[uuid.UUID]model.Partnership
	partMembers    map[uuid.UUID][]model.PartnershipMember
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects:       make(map[uuid.UUID]model.Project),
		projectOrgs:    make(map[uuid.UUID][]model.OrgRef),
		projectMembers: make(map[uuid.UUID]model.ProjectMember),
		memberships:    make(map[uuid.UUID][]model.Membership),
		partnerships:   make(map[uuid.UUID]model.Partnership),
		partMembers:    make(map[uuid.UUID][]model.PartnershipMember),
	}
}

func (s *fakeStore) addProject(ownerID uuid.UUID, orgs ...model.OrgRef) model.Project {
	p := model.Project{ID: uuid.New(), OwnerID: ownerID, Name: "project"}
	s.projects[p.ID] = p
	s.projectOrgs[p.ID] = orgs
	return p
}

func (s *fakeStore) addMembership(userID uuid.UUID, org model.OrgRef, role model.Role, status model.MembershipStatus) {
	s.memberships[userID] = append(s.memberships[userID], model.Membership{
		ID:           uuid.New(),
		UserID:       userID,
		Organization: org,
		Role:         role,
		Status:       status,
	})
}

func (s *fakeStore) addPartnership(status model.PartnershipStatus, participants ...model.OrgRef) model.Partnership {
	p := model.Partnership{ID: uuid.New(), Type: model.PartnershipTypeMultilateral, Status: status}
	s.partnerships[p.ID] = p
	for _, participant := range participants {
		s.partMembers[p.ID] = append(s.partMembers[p.ID], model.PartnershipMember{
			ID:            uuid.New(),
			PartnershipID: p.ID,
			Participant:   participant,
			Status:        model.PartnershipMemberStatusConfirmed,
			Role:          model.PartnershipRolePartner,
		})
	}
	return p
}

func (s *fakeStore) GetProject(_ context.Context, id uuid.UUID) (model.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return model.Project{}, fault.NotFoundf("project %s not found", id)
	}
	return p, nil
}

func (s *fakeStore) GetProjectMember(_ context.Context, projectID, userID uuid.UUID) (model.ProjectMember, error) {
	for _, m := range s.projectMembers {
		if m.ProjectID == projectID && m.UserID == userID {
			return m, nil
		}
	}
	return model.ProjectMember{}, fault.NotFoundf("user %s is not a member of project %s", userID, projectID)
}

func (s *fakeStore) CreateProjectMember(_ context.Context, params database.CreateProjectMemberParams) (model.ProjectMember, error) {
	for _, m := range s.projectMembers {
		if m.ProjectID == params.ProjectID && m.UserID == params.UserID {
			return model.ProjectMember{}, fault.Conflictf("user already a member of project")
		}
	}
	m := model.ProjectMember{
		ID:        uuid.New(),
		ProjectID: params.ProjectID,
		UserID:    params.UserID,
		Role:      params.Role,
		CreatedAt: time.Now(),
	}
	s.projectMembers[m.ID] = m
	return m, nil
}

func (s *fakeStore) UpdateProjectMemberRole(_ context.Context, id uuid.UUID, role model.ProjectRole) error {
	m, ok := s.projectMembers[id]
	if !ok {
		return fault.NotFoundf("project member %s not found", id)
	}
	m.Role = role
	s.projectMembers[id] = m
	return nil
}

func (s *fakeStore) SetProjectPartnership(_ context.Context, projectID, partnershipID uuid.UUID) error {
	p, ok := s.projects[projectID]
	if !ok {
		return fault.NotFoundf("project %s not found", projectID)
	}
	p.PartnershipID = &partnershipID
	s.projects[projectID] = p
	return nil
}

func (s *fakeStore) ListProjectOrganizations(_ context.Context, projectID uuid.UUID) ([]model.OrgRef, error) {
	return s.projectOrgs[projectID], nil
}

func (s *fakeStore) GetMembership(_ context.Context, userID uuid.UUID, org model.OrgRef) (model.Membership, error) {
	for _, m := range s.memberships[userID] {
		if m.Organization.Equal(org) {
			return m, nil
		}
	}
	return model.Membership{}, fault.NotFoundf("membership of user %s in %s not found", userID, org)
}

func (s *fakeStore) GetPartnership(_ context.Context, id uuid.UUID) (model.Partnership, error) {
	p, ok := s.partnerships[id]
	if !ok {
		return model.Partnership{}, fault.NotFoundf("partnership %s not found", id)
	}
	return p, nil
}

func (s *fakeStore) ListPartnershipMembers(_ context.Context, partnershipID uuid.UUID) ([]model.PartnershipMember, error) {
	return s.partMembers[partnershipID], nil
}

func newManager(store *fakeStore) project.Manager {
	return project.NewManager(slog.New(slog.NewTextHandler(io.Discard, nil)), store)
}

func schoolRef() model.OrgRef {
	return model.OrgRef{Kind: model.OrgKindSchool, ID: uuid.New()}
}

func companyRef() model.OrgRef {
	return model.OrgRef{Kind: model.OrgKindCompany, ID: uuid.New()}
}

func TestAddMember(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)

	owner := uuid.New()
	proj := store.addProject(owner)
	user := uuid.New()

	member, err := m.AddMember(context.Background(), project.AddMemberParam{
		ProjectID: proj.ID,
		UserID:    user,
		Role:      model.ProjectRoleMember,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ProjectRoleMember, member.Role)
}

func TestAddMember_OwnerAlwaysCoOwner(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)

	owner := uuid.New()
	proj := store.addProject(owner)

	member, err := m.AddMember(context.Background(), project.AddMemberParam{
		ProjectID: proj.ID,
		UserID:    owner,
		Role:      model.ProjectRoleMember,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ProjectRoleCoOwner, member.Role)
}

func TestAddMember_InvalidRole(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)
	proj := store.addProject(uuid.New())

	_, err := m.AddMember(context.Background(), project.AddMemberParam{
		ProjectID: proj.ID,
		UserID:    uuid.New(),
		Role:      model.ProjectRole("viewer"),
	})
	assert.True(t, errors.Is(err, fault.Invalid))
}

func TestAddCoOwner(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)

	owner := uuid.New()
	school := schoolRef()
	proj := store.addProject(owner, school)

	candidate := uuid.New()
	store.addMembership(candidate, school, model.RoleReferent, model.MembershipStatusConfirmed)

	member, err := m.AddCoOwner(context.Background(), project.AddCoOwnerParam{
		ProjectID: proj.ID,
		UserID:    candidate,
		AddedByID: owner,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ProjectRoleCoOwner, member.Role)
}

func TestAddCoOwner_PromotesExistingMember(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)

	owner := uuid.New()
	school := schoolRef()
	proj := store.addProject(owner, school)

	candidate := uuid.New()
	store.addMembership(candidate, school, model.RoleAdmin, model.MembershipStatusConfirmed)

	existing, err := m.AddMember(context.Background(), project.AddMemberParam{
		ProjectID: proj.ID,
		UserID:    candidate,
		Role:      model.ProjectRoleMember,
	})
	require.NoError(t, err)

	promoted, err := m.AddCoOwner(context.Background(), project.AddCoOwnerParam{
		ProjectID: proj.ID,
		UserID:    candidate,
		AddedByID: owner,
	})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, promoted.ID)
	assert.Equal(t, model.ProjectRoleCoOwner, promoted.Role)
}

func TestAddCoOwner_GrantorMustBeOwnerOrCoOwner(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)

	school := schoolRef()
	proj := store.addProject(uuid.New(), school)

	candidate := uuid.New()
	store.addMembership(candidate, school, model.RoleReferent, model.MembershipStatusConfirmed)

	_, err := m.AddCoOwner(context.Background(), project.AddCoOwnerParam{
		ProjectID: proj.ID,
		UserID:    candidate,
		AddedByID: uuid.New(),
	})
	assert.True(t, errors.Is(err, fault.Forbidden))
}

func TestAddCoOwner_RequiresElevatedRole(t *testing.T) {
	school := schoolRef()

	tests := []struct {
		name   string
		role   model.Role
		status model.MembershipStatus
		ok     bool
	}{
		{name: "referent_confirmed", role: model.RoleReferent, status: model.MembershipStatusConfirmed, ok: true},
		{name: "admin_confirmed", role: model.RoleAdmin, status: model.MembershipStatusConfirmed, ok: true},
		{name: "intervenant_confirmed", role: model.RoleIntervenant, status: model.MembershipStatusConfirmed, ok: false},
		{name: "referent_pending", role: model.RoleReferent, status: model.MembershipStatusPending, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			m := newManager(store)

			owner := uuid.New()
			proj := store.addProject(owner, school)
			candidate := uuid.New()
			store.addMembership(candidate, school, tt.role, tt.status)

			_, err := m.AddCoOwner(context.Background(), project.AddCoOwnerParam{
				ProjectID: proj.ID,
				UserID:    candidate,
				AddedByID: owner,
			})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, fault.Invalid))
			}
		})
	}
}

func TestAddCoOwner_PartnerOrganizationEligible(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)

	owner := uuid.New()
	school := schoolRef()
	company := companyRef()
	proj := store.addProject(owner, school)

	p := store.addPartnership(model.PartnershipStatusConfirmed, school, company)
	projRecord := store.projects[proj.ID]
	projRecord.PartnershipID = &p.ID
	store.projects[proj.ID] = projRecord

	// Referent at the partner company, not at the school itself.
	candidate := uuid.New()
	store.addMembership(candidate, company, model.RoleReferent, model.MembershipStatusConfirmed)

	member, err := m.AddCoOwner(context.Background(), project.AddCoOwnerParam{
		ProjectID: proj.ID,
		UserID:    candidate,
		AddedByID: owner,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ProjectRoleCoOwner, member.Role)
}

func TestAssignToPartnership(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)

	owner := uuid.New()
	school := schoolRef()
	company := companyRef()
	proj := store.addProject(owner, school, company)
	p := store.addPartnership(model.PartnershipStatusConfirmed, school, company)

	require.NoError(t, m.AssignToPartnership(context.Background(), project.AssignToPartnershipParam{
		ProjectID:     proj.ID,
		PartnershipID: p.ID,
		ByID:          owner,
	}))

	updated, err := store.GetProject(context.Background(), proj.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.PartnershipID)
	assert.Equal(t, p.ID, *updated.PartnershipID)
}

func TestAssignToPartnership_ParticipantsMustCoverAffiliations(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)

	owner := uuid.New()
	school := schoolRef()
	company := companyRef()
	proj := store.addProject(owner, school, company)

	// The partnership lacks the company the project is affiliated with.
	p := store.addPartnership(model.PartnershipStatusConfirmed, school)

	err := m.AssignToPartnership(context.Background(), project.AssignToPartnershipParam{
		ProjectID:     proj.ID,
		PartnershipID: p.ID,
		ByID:          owner,
	})
	assert.True(t, errors.Is(err, fault.Invalid))
}

func TestAssignToPartnership_RequiresConfirmedPartnership(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)

	owner := uuid.New()
	school := schoolRef()
	proj := store.addProject(owner, school)
	p := store.addPartnership(model.PartnershipStatusPending, school)

	err := m.AssignToPartnership(context.Background(), project.AssignToPartnershipParam{
		ProjectID:     proj.ID,
		PartnershipID: p.ID,
		ByID:          owner,
	})
	assert.True(t, errors.Is(err, fault.Invalid))
}
