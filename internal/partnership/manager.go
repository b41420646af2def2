package partnership

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"skillbridge/internal/fault"
	"skillbridge/internal/model"
	"skillbridge/internal/notifications"

	"github.com/google/uuid"
)

type Store interface {
	GetOrganization(ctx context.Context, ref model.OrgRef) (model.Organization, error)
	CreatePartnership(ctx context.Context, p model.Partnership) error
	CreatePartnershipMember(ctx context.Context, m model.PartnershipMember) error
	GetPartnershipForUpdate(ctx context.Context, id uuid.UUID) (model.Partnership, error)
	GetPartnershipMember(ctx context.Context, id uuid.UUID) (model.PartnershipMember, error)
	ListPartnershipMembers(ctx context.Context, partnershipID uuid.UUID) ([]model.PartnershipMember, error)
	UpdatePartnershipMemberStatus(ctx context.Context, id uuid.UUID, status model.PartnershipMemberStatus, confirmedAt *time.Time) error
	UpdatePartnershipStatus(ctx context.Context, id uuid.UUID, status model.PartnershipStatus, confirmedAt *time.Time) error
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Manager drives the partnership state machine. A partnership confirms the
// moment its last pending member confirms, and one decline rejects a still
// pending partnership outright; both transitions happen inside the same
// transaction as the member update so no reader ever sees full consensus next
// to a pending aggregate.
type Manager struct {
	logger   *slog.Logger
	store    Store
	notifier *notifications.Notifier
	now      func() time.Time
}

func NewManager(logger *slog.Logger, store Store, notifier *notifications.Notifier) Manager {
	return Manager{logger: logger, store: store, notifier: notifier, now: time.Now}
}

type Participant struct {
	Organization model.OrgRef
	Role         model.PartnershipRole
}

type ProposeParam struct {
	Initiator      model.OrgRef
	Participants   []Participant
	Type           model.PartnershipType
	Name           string
	ShareMembers   bool
	ShareProjects  bool
	HasSponsorship bool
}

// Propose creates a partnership with one member row per participant. The
// initiator must be among the participants and its member row starts
// confirmed; everyone else starts pending.
func (m *Manager) Propose(ctx context.Context, param ProposeParam) (model.Partnership, error) {
	if !param.Type.IsValid() {
		return model.Partnership{}, fault.Invalidf("invalid partnership type: %s", param.Type)
	}
	if param.Type == model.PartnershipTypeMultilateral && strings.TrimSpace(param.Name) == "" {
		return model.Partnership{}, fault.Invalidf("a multilateral partnership requires a name")
	}

	seen := make(map[model.OrgRef]bool, len(param.Participants))
	initiatorIncluded := false
	for _, p := range param.Participants {
		if seen[p.Organization] {
			return model.Partnership{}, fault.Invalidf("participant %s listed twice", p.Organization)
		}
		seen[p.Organization] = true
		if p.Organization.Equal(param.Initiator) {
			initiatorIncluded = true
		}
		if p.Role != "" && !p.Role.IsValid() {
			return model.Partnership{}, fault.Invalidf("invalid partnership role: %s", p.Role)
		}
	}
	if len(param.Participants) < 2 {
		return model.Partnership{}, fault.Invalidf("a partnership needs at least two distinct participants")
	}
	if !initiatorIncluded {
		return model.Partnership{}, fault.Invalidf("initiator must be a participant")
	}
	if param.Type == model.PartnershipTypeBilateral && len(param.Participants) != 2 {
		return model.Partnership{}, fault.Invalidf("a bilateral partnership has exactly two participants")
	}

	for _, p := range param.Participants {
		if _, err := m.store.GetOrganization(ctx, p.Organization); err != nil {
			return model.Partnership{}, err
		}
	}

	now := m.now()
	partnership := model.Partnership{
		ID:             uuid.New(),
		Initiator:      param.Initiator,
		Name:           strings.TrimSpace(param.Name),
		Type:           param.Type,
		Status:         model.PartnershipStatusPending,
		ShareMembers:   param.ShareMembers,
		ShareProjects:  param.ShareProjects,
		HasSponsorship: param.HasSponsorship,
		CreatedAt:      now,
	}

	err := m.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := m.store.CreatePartnership(ctx, partnership); err != nil {
			return err
		}
		for _, p := range param.Participants {
			role := p.Role
			if role == "" {
				role = model.PartnershipRolePartner
			}
			member := model.PartnershipMember{
				ID:            uuid.New(),
				PartnershipID: partnership.ID,
				Participant:   p.Organization,
				Status:        model.PartnershipMemberStatusPending,
				Role:          role,
				JoinedAt:      now,
			}
			if p.Organization.Equal(param.Initiator) {
				member.Status = model.PartnershipMemberStatusConfirmed
				confirmedAt := now
				member.ConfirmedAt = &confirmedAt
			}
			if err := m.store.CreatePartnershipMember(ctx, member); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.Partnership{}, err
	}

	m.logger.Info("Partnership proposed", "partnership_id", partnership.ID, "initiator", param.Initiator.String(), "type", partnership.Type, "participants", len(param.Participants))
	return partnership, nil
}

// ConfirmMember marks one member as confirmed and, when that completes the
// consensus, confirms the partnership itself in the same transaction.
func (m *Manager) ConfirmMember(ctx context.Context, memberID uuid.UUID) error {
	member, err := m.store.GetPartnershipMember(ctx, memberID)
	if err != nil {
		return err
	}

	now := m.now()
	confirmedAll := false
	err = m.store.RunInTx(ctx, func(ctx context.Context) error {
		// The row lock serializes concurrent confirmations of the same
		// partnership; member and consensus state are read only after it is
		// held, so two final confirmations cannot both miss each other.
		partnership, err := m.store.GetPartnershipForUpdate(ctx, member.PartnershipID)
		if err != nil {
			return err
		}

		current, err := m.store.GetPartnershipMember(ctx, memberID)
		if err != nil {
			return err
		}
		if current.Status == model.PartnershipMemberStatusConfirmed {
			return nil
		}
		if current.Status == model.PartnershipMemberStatusDeclined {
			return fault.Invalidf("member %s already declined", memberID)
		}
		if partnership.Status != model.PartnershipStatusPending {
			return fault.Invalidf("partnership %s is no longer pending", partnership.ID)
		}

		if err := m.store.UpdatePartnershipMemberStatus(ctx, memberID, model.PartnershipMemberStatusConfirmed, &now); err != nil {
			return err
		}

		members, err := m.store.ListPartnershipMembers(ctx, partnership.ID)
		if err != nil {
			return err
		}
		for _, other := range members {
			if other.ID != memberID && other.Status != model.PartnershipMemberStatusConfirmed {
				return nil
			}
		}

		confirmedAll = true
		return m.store.UpdatePartnershipStatus(ctx, partnership.ID, model.PartnershipStatusConfirmed, &now)
	})
	if err != nil {
		return err
	}

	if confirmedAll {
		m.logger.Info("Partnership confirmed", "partnership_id", member.PartnershipID)
		m.notifier.Emit(notifications.EventTypePartnershipConfirmed, map[string]any{
			"partnership_id": member.PartnershipID,
		})
	}
	return nil
}

// DeclineMember marks one member as declined. A still pending partnership is
// rejected by the first decline; a confirmed partnership is not affected.
func (m *Manager) DeclineMember(ctx context.Context, memberID uuid.UUID) error {
	member, err := m.store.GetPartnershipMember(ctx, memberID)
	if err != nil {
		return err
	}

	return m.store.RunInTx(ctx, func(ctx context.Context) error {
		// Same lock as ConfirmMember; a decline racing the final confirmation
		// sees either a pending or an already confirmed aggregate, never a
		// half-applied one.
		partnership, err := m.store.GetPartnershipForUpdate(ctx, member.PartnershipID)
		if err != nil {
			return err
		}

		current, err := m.store.GetPartnershipMember(ctx, memberID)
		if err != nil {
			return err
		}
		if current.Status == model.PartnershipMemberStatusDeclined {
			return nil
		}

		if err := m.store.UpdatePartnershipMemberStatus(ctx, memberID, model.PartnershipMemberStatusDeclined, nil); err != nil {
			return err
		}
		if partnership.Status == model.PartnershipStatusPending {
			if err := m.store.UpdatePartnershipStatus(ctx, partnership.ID, model.PartnershipStatusRejected, nil); err != nil {
				return err
			}
			m.logger.Info("Partnership rejected", "partnership_id", partnership.ID, "declined_by", member.Participant.String())
		}
		return nil
	})
}

// OtherPartners returns the confirmed participants of a partnership excluding
// the given organization.
func (m *Manager) OtherPartners(ctx context.Context, partnershipID uuid.UUID, org model.OrgRef) ([]model.PartnershipMember, error) {
	members, err := m.store.ListPartnershipMembers(ctx, partnershipID)
	if err != nil {
		return nil, err
	}

	var others []model.PartnershipMember
	for _, member := range members {
		if member.Status == model.PartnershipMemberStatusConfirmed && !member.Participant.Equal(org) {
			others = append(others, member)
		}
	}
	return others, nil
}

func (m *Manager) Sponsors(ctx context.Context, partnershipID uuid.UUID) ([]model.PartnershipMember, error) {
	return m.membersWithRole(ctx, partnershipID, model.PartnershipRoleSponsor)
}

func (m *Manager) Beneficiaries(ctx context.Context, partnershipID uuid.UUID) ([]model.PartnershipMember, error) {
	return m.membersWithRole(ctx, partnershipID, model.PartnershipRoleBeneficiary)
}

func (m *Manager) PartnersOnly(ctx context.Context, partnershipID uuid.UUID) ([]model.PartnershipMember, error) {
	return m.membersWithRole(ctx, partnershipID, model.PartnershipRolePartner)
}

func (m *Manager) membersWithRole(ctx context.Context, partnershipID uuid.UUID, role model.PartnershipRole) ([]model.PartnershipMember, error) {
	members, err := m.store.ListPartnershipMembers(ctx, partnershipID)
	if err != nil {
		return nil, err
	}

	var filtered []model.PartnershipMember
	for _, member := range members {
		if member.Role == role {
			filtered = append(filtered, member)
		}
	}
	return filtered, nil
}
