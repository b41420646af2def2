package network

import (
	"sort"

	"skillbridge/internal/model"

	"github.com/google/uuid"
)

// Snapshot is the slice of the relationship graph that visibility is computed
// from: one person's memberships, the organizations behind them, and the
// one-hop edges out of those organizations.
type Snapshot struct {
	Memberships   []model.Membership
	Organizations map[model.OrgRef]model.Organization
	// Children maps a parent organization to its confirmed branch children.
	Children map[model.OrgRef][]model.OrgRef
	// Partners maps an organization to the other confirmed participants of
	// its confirmed member-sharing partnerships.
	Partners map[model.OrgRef][]model.OrgRef
}

// VisibleSet is the deduplicated, sorted result of a visibility computation.
type VisibleSet struct {
	Schools   []uuid.UUID `json:"schools"`
	Companies []uuid.UUID `json:"companies"`
}

// Resolve computes the organizations whose members are visible to the person
// behind the snapshot. The walk is deliberately capped at one hop per
// relation kind and the two kinds do not compose: branch children of a
// partner and partners of a branch stay invisible.
func Resolve(snapshot Snapshot) VisibleSet {
	visible := make(map[model.OrgRef]bool)

	// Own confirmed memberships.
	var direct []model.OrgRef
	for _, membership := range snapshot.Memberships {
		if !membership.Confirmed() {
			continue
		}
		if !visible[membership.Organization] {
			visible[membership.Organization] = true
			direct = append(direct, membership.Organization)
		}
	}

	for _, ref := range direct {
		org, ok := snapshot.Organizations[ref]
		if !ok {
			continue
		}

		// Shared branches: only a parent (an organization without a parent of
		// its own) that opted in shares its children.
		if org.Parent == nil && org.ShareMembersWithBranch {
			for _, child := range snapshot.Children[ref] {
				visible[child] = true
			}
		}

		// Partnership member-sharing.
		for _, partner := range snapshot.Partners[ref] {
			visible[partner] = true
		}
	}

	var set VisibleSet
	for ref := range visible {
		switch ref.Kind {
		case model.OrgKindSchool:
			set.Schools = append(set.Schools, ref.ID)
		case model.OrgKindCompany:
			set.Companies = append(set.Companies, ref.ID)
		}
	}
	sortIDs(set.Schools)
	sortIDs(set.Companies)
	return set
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
}
