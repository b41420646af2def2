package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the ranked permission level of a membership. Each role implies
// everything below it.
type Role string

const (
	RoleMember      Role = "member"
	RoleIntervenant Role = "intervenant"
	RoleReferent    Role = "referent"
	RoleAdmin       Role = "admin"
	RoleSuperadmin  Role = "superadmin"
)

var roleRank = map[Role]int{
	RoleMember:      1,
	RoleIntervenant: 2,
	RoleReferent:    3,
	RoleAdmin:       4,
	RoleSuperadmin:  5,
}

func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r ranks at or above other.
func (r Role) AtLeast(other Role) bool {
	return roleRank[r] >= roleRank[other]
}

type MembershipStatus string

const (
	MembershipStatusPending   MembershipStatus = "pending"
	MembershipStatusConfirmed MembershipStatus = "confirmed"
)

// Membership ties a user to one organization with a role. A pending
// membership conveys no permissions and no visibility.
type Membership struct {
	ID           uuid.UUID        `json:"id"`
	UserID       uuid.UUID        `json:"user_id"`
	Organization OrgRef           `json:"organization"`
	Role         Role             `json:"role"`
	Status       MembershipStatus `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func (m Membership) Confirmed() bool {
	return m.Status == MembershipStatusConfirmed
}
