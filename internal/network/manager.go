package network

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"skillbridge/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Store interface {
	ListMembershipsByUser(ctx context.Context, userID uuid.UUID) ([]model.Membership, error)
	GetOrganization(ctx context.Context, ref model.OrgRef) (model.Organization, error)
	ListBranchChildren(ctx context.Context, parent model.OrgRef) ([]model.Organization, error)
	ListConfirmedPartnershipsFor(ctx context.Context, org model.OrgRef) ([]model.Partnership, error)
	ListPartnershipMembers(ctx context.Context, partnershipID uuid.UUID) ([]model.PartnershipMember, error)
}

// Manager loads a person's relationship snapshot, resolves it, and caches the
// result. Cache problems degrade to recomputation, never to an error.
type Manager struct {
	logger *slog.Logger
	store  Store
	cache  *redis.Client
	ttl    time.Duration
}

func NewManager(logger *slog.Logger, store Store, cache *redis.Client, ttl time.Duration) Manager {
	return Manager{logger: logger, store: store, cache: cache, ttl: ttl}
}

func cacheKey(userID uuid.UUID) string {
	return "network:visible:" + userID.String()
}

// VisibleOrganizations returns the resolved visibility set for a person.
func (m *Manager) VisibleOrganizations(ctx context.Context, userID uuid.UUID) (VisibleSet, error) {
	if m.cache != nil {
		cached, err := m.cache.Get(ctx, cacheKey(userID)).Bytes()
		if err == nil {
			var set VisibleSet
			if err := json.Unmarshal(cached, &set); err == nil {
				return set, nil
			}
		} else if err != redis.Nil {
			m.logger.Warn("Network cache read failed", "user_id", userID, "error", err)
		}
	}

	snapshot, err := m.loadSnapshot(ctx, userID)
	if err != nil {
		return VisibleSet{}, fmt.Errorf("failed to load relationship snapshot for user %s: %w", userID, err)
	}
	set := Resolve(snapshot)

	if m.cache != nil {
		if data, err := json.Marshal(set); err == nil {
			if err := m.cache.Set(ctx, cacheKey(userID), data, m.ttl).Err(); err != nil {
				m.logger.Warn("Network cache write failed", "user_id", userID, "error", err)
			}
		}
	}
	return set, nil
}

// Invalidate drops the cached set for a person after a relationship change.
// Changes touching many people at once are covered by the cache TTL instead.
func (m *Manager) Invalidate(ctx context.Context, userID uuid.UUID) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Del(ctx, cacheKey(userID)).Err(); err != nil {
		m.logger.Warn("Network cache invalidation failed", "user_id", userID, "error", err)
	}
}

func (m *Manager) loadSnapshot(ctx context.Context, userID uuid.UUID) (Snapshot, error) {
	snapshot := Snapshot{
		Organizations: make(map[model.OrgRef]model.Organization),
		Children:      make(map[model.OrgRef][]model.OrgRef),
		Partners:      make(map[model.OrgRef][]model.OrgRef),
	}

	memberships, err := m.store.ListMembershipsByUser(ctx, userID)
	if err != nil {
		return snapshot, err
	}
	snapshot.Memberships = memberships

	for _, membership := range memberships {
		if !membership.Confirmed() {
			continue
		}
		ref := membership.Organization

		org, err := m.store.GetOrganization(ctx, ref)
		if err != nil {
			return snapshot, err
		}
		snapshot.Organizations[ref] = org

		if org.Parent == nil && org.ShareMembersWithBranch {
			children, err := m.store.ListBranchChildren(ctx, ref)
			if err != nil {
				return snapshot, err
			}
			for _, child := range children {
				snapshot.Children[ref] = append(snapshot.Children[ref], child.Ref)
			}
		}

		partnerships, err := m.store.ListConfirmedPartnershipsFor(ctx, ref)
		if err != nil {
			return snapshot, err
		}
		for _, p := range partnerships {
			if !p.ShareMembers {
				continue
			}
			members, err := m.store.ListPartnershipMembers(ctx, p.ID)
			if err != nil {
				return snapshot, err
			}
			for _, member := range members {
				if member.Status == model.PartnershipMemberStatusConfirmed && !member.Participant.Equal(ref) {
					snapshot.Partners[ref] = append(snapshot.Partners[ref], member.Participant)
				}
			}
		}
	}
	return snapshot, nil
}
