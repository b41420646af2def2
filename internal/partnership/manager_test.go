package partnership_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"skillbridge/internal/fault"
	"skillbridge/internal/model"
	"skillbridge/internal/notifications"
	"skillbridge/internal/partnership"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	organizations map[model.OrgRef]model.Organization
	partnerships  map[uuid.UUID]model.Partnership
	members       map[uuid.UUID]model.PartnershipMember
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		organizations: make(map[model.OrgRef]model.Organization),
		partnerships:  make(map[uuid.UUID]model.Partnership),
		members:       make(map[uuid.UUID]model.PartnershipMember),
	}
}

func (s *fakeStore) addOrganization(kind model.OrgKind) model.OrgRef {
	ref := model.OrgRef{Kind: kind, ID: uuid.New()}
	s.organizations[ref] = model.Organization{Ref: ref, Name: "org", Status: model.OrgStatusConfirmed}
	return ref
}

func (s *fakeStore) GetOrganization(_ context.Context, ref model.OrgRef) (model.Organization, error) {
	org, ok := s.organizations[ref]
	if !ok {
		return model.Organization{}, fault.NotFoundf("organization %s not found", ref)
	}
	return org, nil
}

func (s *fakeStore) CreatePartnership(_ context.Context, p model.Partnership) error {
	s.partnerships[p.ID] = p
	return nil
}

func (s *fakeStore) CreatePartnershipMember(_ context.Context, m model.PartnershipMember) error {
	for _, other := range s.members {
		if other.PartnershipID == m.PartnershipID && other.Participant.Equal(m.Participant) {
			return fault.Conflictf("participant already in partnership")
		}
	}
	s.members[m.ID] = m
	return nil
}

func (s *fakeStore) GetPartnership(_ context.Context, id uuid.UUID) (model.Partnership, error) {
	p, ok := s.partnerships[id]
	if !ok {
		return model.Partnership{}, fault.NotFoundf("partnership %s not found", id)
	}
	return p, nil
}

func (s *fakeStore) GetPartnershipForUpdate(ctx context.Context, id uuid.UUID) (model.Partnership, error) {
	return s.GetPartnership(ctx, id)
}

func (s *fakeStore) GetPartnershipMember(_ context.Context, id uuid.UUID) (model.PartnershipMember, error) {
	m, ok := s.members[id]
	if !ok {
		return model.PartnershipMember{}, fault.NotFoundf("partnership member %s not found", id)
	}
	return m, nil
}

func (s *fakeStore) ListPartnershipMembers(_ context.Context, partnershipID uuid.UUID) ([]model.PartnershipMember, error) {
	var members []model.PartnershipMember
	for _, m := range s.members {
		if m.PartnershipID == partnershipID {
			members = append(members, m)
		}
	}
	return members, nil
}

func (s *fakeStore) UpdatePartnershipMemberStatus(_ context.Context, id uuid.UUID, status model.PartnershipMemberStatus, confirmedAt *time.Time) error {
	m, ok := s.members[id]
	if !ok {
		return fault.NotFoundf("partnership member %s not found", id)
	}
	m.Status = status
	m.ConfirmedAt = confirmedAt
	s.members[id] = m
	return nil
}

func (s *fakeStore) UpdatePartnershipStatus(_ context.Context, id uuid.UUID, status model.PartnershipStatus, confirmedAt *time.Time) error {
	p, ok := s.partnerships[id]
	if !ok {
		return fault.NotFoundf("partnership %s not found", id)
	}
	p.Status = status
	p.ConfirmedAt = confirmedAt
	s.partnerships[id] = p
	return nil
}

func (s *fakeStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *fakeStore) memberOf(partnershipID uuid.UUID, participant model.OrgRef) model.PartnershipMember {
	for _, m := range s.members {
		if m.PartnershipID == partnershipID && m.Participant.Equal(participant) {
			return m
		}
	}
	return model.PartnershipMember{}
}

func newManager(store partnership.Store) partnership.Manager {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return partnership.NewManager(logger, store, notifications.NewNotifier(logger, notifications.LogSink{Logger: logger}))
}

func TestPropose_Bilateral(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)

	school := store.addOrganization(model.OrgKindSchool)
	company := store.addOrganization(model.OrgKindCompany)

	created, err := m.Propose(context.Background(), partnership.ProposeParam{
		Initiator: school,
		Participants: []partnership.Participant{
			{Organization: school},
			{Organization: company},
		},
		Type:         model.PartnershipTypeBilateral,
		ShareMembers: true,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PartnershipStatusPending, created.Status)

	// The initiator's member row starts confirmed, the other pending.
	assert.Equal(t, model.PartnershipMemberStatusConfirmed, store.memberOf(created.ID, school).Status)
	assert.Equal(t, model.PartnershipMemberStatusPending, store.memberOf(created.ID, company).Status)
}

func TestPropose_Validation(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)

	school := store.addOrganization(model.OrgKindSchool)
	companyA := store.addOrganization(model.OrgKindCompany)
	companyB := store.addOrganization(model.OrgKindCompany)

	tests := []struct {
		name  string
		param partnership.ProposeParam
	}{
		{
			name: "invalid_type",
			param: partnership.ProposeParam{
				Initiator:    school,
				Participants: []partnership.Participant{{Organization: school}, {Organization: companyA}},
				Type:         model.PartnershipType("federated"),
			},
		},
		{
			name: "multilateral_without_name",
			param: partnership.ProposeParam{
				Initiator:    school,
				Participants: []partnership.Participant{{Organization: school}, {Organization: companyA}, {Organization: companyB}},
				Type:         model.PartnershipTypeMultilateral,
			},
		},
		{
			name: "duplicate_participant",
			param: partnership.ProposeParam{
				Initiator:    school,
				Participants: []partnership.Participant{{Organization: school}, {Organization: school}},
				Type:         model.PartnershipTypeBilateral,
			},
		},
		{
			name: "single_participant",
			param: partnership.ProposeParam{
				Initiator:    school,
				Participants: []partnership.Participant{{Organization: school}},
				Type:         model.PartnershipTypeBilateral,
			},
		},
		{
			name: "initiator_not_participating",
			param: partnership.ProposeParam{
				Initiator:    school,
				Participants: []partnership.Participant{{Organization: companyA}, {Organization: companyB}},
				Type:         model.PartnershipTypeBilateral,
			},
		},
		{
			name: "bilateral_with_three",
			param: partnership.ProposeParam{
				Initiator:    school,
				Participants: []partnership.Participant{{Organization: school}, {Organization: companyA}, {Organization: companyB}},
				Type:         model.PartnershipTypeBilateral,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Propose(context.Background(), tt.param)
			assert.True(t, errors.Is(err, fault.Invalid))
		})
	}
}

func TestPropose_UnknownParticipant(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)

	school := store.addOrganization(model.OrgKindSchool)
	ghost := model.OrgRef{Kind: model.OrgKindCompany, ID: uuid.New()}

	_, err := m.Propose(context.Background(), partnership.ProposeParam{
		Initiator:    school,
		Participants: []partnership.Participant{{Organization: school}, {Organization: ghost}},
		Type:         model.PartnershipTypeBilateral,
	})
	assert.True(t, errors.Is(err, fault.NotFound))
}

func proposeThree(t *testing.T, store *fakeStore, m partnership.Manager) (model.Partnership, model.OrgRef, model.OrgRef, model.OrgRef) {
	t.Helper()
	school := store.addOrganization(model.OrgKindSchool)
	companyA := store.addOrganization(model.OrgKindCompany)
	companyB := store.addOrganization(model.OrgKindCompany)

	created, err := m.Propose(context.Background(), partnership.ProposeParam{
		Initiator: school,
		Name:      "regional network",
		Participants: []partnership.Participant{
			{Organization: school},
			{Organization: companyA},
			{Organization: companyB},
		},
		Type: model.PartnershipTypeMultilateral,
	})
	require.NoError(t, err)
	return created, school, companyA, companyB
}

func TestConfirmMember_ConsensusConfirmsPartnership(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)
	created, _, companyA, companyB := proposeThree(t, store, m)

	require.NoError(t, m.ConfirmMember(context.Background(), store.memberOf(created.ID, companyA).ID))

	p, err := store.GetPartnership(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PartnershipStatusPending, p.Status)

	require.NoError(t, m.ConfirmMember(context.Background(), store.memberOf(created.ID, companyB).ID))

	p, err = store.GetPartnership(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PartnershipStatusConfirmed, p.Status)
	assert.NotNil(t, p.ConfirmedAt)
}

func TestConfirmMember_Idempotent(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)
	created, school, _, _ := proposeThree(t, store, m)

	// The initiator's row is already confirmed.
	require.NoError(t, m.ConfirmMember(context.Background(), store.memberOf(created.ID, school).ID))

	p, err := store.GetPartnership(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PartnershipStatusPending, p.Status)
}

func TestConfirmMember_DeclinedCannotConfirm(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)
	created, _, companyA, _ := proposeThree(t, store, m)

	memberID := store.memberOf(created.ID, companyA).ID
	require.NoError(t, m.DeclineMember(context.Background(), memberID))

	err := m.ConfirmMember(context.Background(), memberID)
	assert.True(t, errors.Is(err, fault.Invalid))
}

func TestDeclineMember_RejectsPendingPartnership(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)
	created, _, companyA, _ := proposeThree(t, store, m)

	require.NoError(t, m.DeclineMember(context.Background(), store.memberOf(created.ID, companyA).ID))

	p, err := store.GetPartnership(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PartnershipStatusRejected, p.Status)

	// Idempotent.
	require.NoError(t, m.DeclineMember(context.Background(), store.memberOf(created.ID, companyA).ID))
}

func TestDeclineMember_ConfirmedPartnershipUnaffected(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)
	created, _, companyA, companyB := proposeThree(t, store, m)

	require.NoError(t, m.ConfirmMember(context.Background(), store.memberOf(created.ID, companyA).ID))
	require.NoError(t, m.ConfirmMember(context.Background(), store.memberOf(created.ID, companyB).ID))

	require.NoError(t, m.DeclineMember(context.Background(), store.memberOf(created.ID, companyA).ID))

	p, err := store.GetPartnership(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PartnershipStatusConfirmed, p.Status)
}

func TestSponsorshipRoles(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)

	company := store.addOrganization(model.OrgKindCompany)
	school := store.addOrganization(model.OrgKindSchool)

	created, err := m.Propose(context.Background(), partnership.ProposeParam{
		Initiator: company,
		Participants: []partnership.Participant{
			{Organization: company, Role: model.PartnershipRoleSponsor},
			{Organization: school, Role: model.PartnershipRoleBeneficiary},
		},
		Type:           model.PartnershipTypeBilateral,
		HasSponsorship: true,
	})
	require.NoError(t, err)

	sponsors, err := m.Sponsors(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, sponsors, 1)
	assert.True(t, sponsors[0].Participant.Equal(company))

	beneficiaries, err := m.Beneficiaries(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, beneficiaries, 1)
	assert.True(t, beneficiaries[0].Participant.Equal(school))

	partners, err := m.PartnersOnly(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Empty(t, partners)
}

// txStore models read-committed transactions: updates stay in a per-tx buffer
// until commit, reads outside the buffer see only committed state, and
// GetPartnershipForUpdate blocks on a per-partnership row lock held until the
// locking transaction commits.
type txStore struct {
	mu            sync.Mutex
	organizations map[model.OrgRef]model.Organization
	partnerships  map[uuid.UUID]model.Partnership
	members       map[uuid.UUID]model.PartnershipMember
	rowLocks      map[uuid.UUID]*sync.Mutex
}

type txBuffer struct {
	partnerships map[uuid.UUID]model.Partnership
	members      map[uuid.UUID]model.PartnershipMember
	held         []*sync.Mutex
}

type txBufferKey struct{}

func newTxStore() *txStore {
	return &txStore{
		organizations: make(map[model.OrgRef]model.Organization),
		partnerships:  make(map[uuid.UUID]model.Partnership),
		members:       make(map[uuid.UUID]model.PartnershipMember),
		rowLocks:      make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *txStore) buffer(ctx context.Context) *txBuffer {
	b, _ := ctx.Value(txBufferKey{}).(*txBuffer)
	return b
}

func (s *txStore) addOrganization(kind model.OrgKind) model.OrgRef {
	ref := model.OrgRef{Kind: kind, ID: uuid.New()}
	s.organizations[ref] = model.Organization{Ref: ref, Name: "org", Status: model.OrgStatusConfirmed}
	return ref
}

func (s *txStore) GetOrganization(_ context.Context, ref model.OrgRef) (model.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.organizations[ref]
	if !ok {
		return model.Organization{}, fault.NotFoundf("organization %s not found", ref)
	}
	return org, nil
}

func (s *txStore) CreatePartnership(_ context.Context, p model.Partnership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partnerships[p.ID] = p
	s.rowLocks[p.ID] = &sync.Mutex{}
	return nil
}

func (s *txStore) CreatePartnershipMember(_ context.Context, m model.PartnershipMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[m.ID] = m
	return nil
}

func (s *txStore) GetPartnershipForUpdate(ctx context.Context, id uuid.UUID) (model.Partnership, error) {
	s.mu.Lock()
	lock, ok := s.rowLocks[id]
	s.mu.Unlock()
	if !ok {
		return model.Partnership{}, fault.NotFoundf("partnership %s not found", id)
	}

	lock.Lock()
	if b := s.buffer(ctx); b != nil {
		b.held = append(b.held, lock)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partnerships[id], nil
}

func (s *txStore) GetPartnershipMember(ctx context.Context, id uuid.UUID) (model.PartnershipMember, error) {
	if b := s.buffer(ctx); b != nil {
		if m, ok := b.members[id]; ok {
			return m, nil
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return model.PartnershipMember{}, fault.NotFoundf("partnership member %s not found", id)
	}
	return m, nil
}

func (s *txStore) ListPartnershipMembers(ctx context.Context, partnershipID uuid.UUID) ([]model.PartnershipMember, error) {
	s.mu.Lock()
	var members []model.PartnershipMember
	for _, m := range s.members {
		if m.PartnershipID == partnershipID {
			members = append(members, m)
		}
	}
	s.mu.Unlock()

	if b := s.buffer(ctx); b != nil {
		for i, m := range members {
			if own, ok := b.members[m.ID]; ok {
				members[i] = own
			}
		}
	}
	return members, nil
}

func (s *txStore) UpdatePartnershipMemberStatus(ctx context.Context, id uuid.UUID, status model.PartnershipMemberStatus, confirmedAt *time.Time) error {
	m, err := s.GetPartnershipMember(ctx, id)
	if err != nil {
		return err
	}
	m.Status = status
	m.ConfirmedAt = confirmedAt
	if b := s.buffer(ctx); b != nil {
		b.members[id] = m
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[id] = m
	return nil
}

func (s *txStore) UpdatePartnershipStatus(ctx context.Context, id uuid.UUID, status model.PartnershipStatus, confirmedAt *time.Time) error {
	s.mu.Lock()
	p, ok := s.partnerships[id]
	s.mu.Unlock()
	if !ok {
		return fault.NotFoundf("partnership %s not found", id)
	}
	p.Status = status
	p.ConfirmedAt = confirmedAt
	if b := s.buffer(ctx); b != nil {
		b.partnerships[id] = p
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partnerships[id] = p
	return nil
}

func (s *txStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	b := &txBuffer{
		partnerships: make(map[uuid.UUID]model.Partnership),
		members:      make(map[uuid.UUID]model.PartnershipMember),
	}
	err := fn(context.WithValue(ctx, txBufferKey{}, b))
	if err == nil {
		s.mu.Lock()
		for id, m := range b.members {
			s.members[id] = m
		}
		for id, p := range b.partnerships {
			s.partnerships[id] = p
		}
		s.mu.Unlock()
	}
	for _, lock := range b.held {
		lock.Unlock()
	}
	return err
}

func (s *txStore) memberOf(partnershipID uuid.UUID, participant model.OrgRef) model.PartnershipMember {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.PartnershipID == partnershipID && m.Participant.Equal(participant) {
			return m
		}
	}
	return model.PartnershipMember{}
}

// The final two confirmations may land at the same time; whichever transaction
// commits second must see the other's member row as confirmed and promote the
// partnership.
func TestConfirmMember_ConcurrentFinalConfirmations(t *testing.T) {
	store := newTxStore()
	m := newManager(store)

	school := store.addOrganization(model.OrgKindSchool)
	companyA := store.addOrganization(model.OrgKindCompany)
	companyB := store.addOrganization(model.OrgKindCompany)

	created, err := m.Propose(context.Background(), partnership.ProposeParam{
		Initiator: school,
		Name:      "regional network",
		Participants: []partnership.Participant{
			{Organization: school},
			{Organization: companyA},
			{Organization: companyB},
		},
		Type: model.PartnershipTypeMultilateral,
	})
	require.NoError(t, err)

	memberA := store.memberOf(created.ID, companyA).ID
	memberB := store.memberOf(created.ID, companyB).ID

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = m.ConfirmMember(context.Background(), memberA)
	}()
	go func() {
		defer wg.Done()
		errs[1] = m.ConfirmMember(context.Background(), memberB)
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	store.mu.Lock()
	p := store.partnerships[created.ID]
	store.mu.Unlock()
	assert.Equal(t, model.PartnershipStatusConfirmed, p.Status)
	assert.NotNil(t, p.ConfirmedAt)
	assert.Equal(t, model.PartnershipMemberStatusConfirmed, store.memberOf(created.ID, companyA).Status)
	assert.Equal(t, model.PartnershipMemberStatusConfirmed, store.memberOf(created.ID, companyB).Status)
}

func TestOtherPartners_OnlyConfirmed(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)
	created, school, companyA, _ := proposeThree(t, store, m)

	require.NoError(t, m.ConfirmMember(context.Background(), store.memberOf(created.ID, companyA).ID))

	others, err := m.OtherPartners(context.Background(), created.ID, school)
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.True(t, others[0].Participant.Equal(companyA))
}
