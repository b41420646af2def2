package model

import (
	"time"

	"github.com/google/uuid"
)

// ProjectRole is a per-project role, granted independently of any
// organizational role.
type ProjectRole string

const (
	ProjectRoleMember  ProjectRole = "member"
	ProjectRoleAdmin   ProjectRole = "admin"
	ProjectRoleCoOwner ProjectRole = "co_owner"
)

func (r ProjectRole) IsValid() bool {
	switch r {
	case ProjectRoleMember, ProjectRoleAdmin, ProjectRoleCoOwner:
		return true
	}
	return false
}

// Project is affiliated with organizations through its school classes and
// company links, and optionally attached to one partnership.
type Project struct {
	ID            uuid.UUID   `json:"id"`
	OwnerID       uuid.UUID   `json:"owner_id"`
	Name          string      `json:"name"`
	SchoolClasses []uuid.UUID `json:"school_classes"`
	Companies     []uuid.UUID `json:"companies"`
	PartnershipID *uuid.UUID  `json:"partnership_id,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type ProjectMember struct {
	ID        uuid.UUID   `json:"id"`
	ProjectID uuid.UUID   `json:"project_id"`
	UserID    uuid.UUID   `json:"user_id"`
	Role      ProjectRole `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}
