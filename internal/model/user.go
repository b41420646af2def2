package model

import (
	"time"

	"github.com/google/uuid"
)

// SystemRole is a user's platform-wide role, set at registration. It is
// orthogonal to the per-organization membership role.
type SystemRole string

const (
	SystemRoleStudent   SystemRole = "student"
	SystemRoleTeacher   SystemRole = "teacher"
	SystemRoleEmployee  SystemRole = "employee"
	SystemRoleVolunteer SystemRole = "volunteer"
	SystemRoleParent    SystemRole = "parent"
)

type User struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	SystemRole SystemRole `json:"system_role"`
	CreatedAt  time.Time  `json:"created_at"`
}
