package model

import (
	"time"

	"github.com/google/uuid"
)

type Badge struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// BadgeAssignment records one issuance, including the organization whose
// authority it was issued under.
type BadgeAssignment struct {
	ID           uuid.UUID  `json:"id"`
	BadgeID      uuid.UUID  `json:"badge_id"`
	RecipientID  uuid.UUID  `json:"recipient_id"`
	AssignerID   uuid.UUID  `json:"assigner_id"`
	Organization OrgRef     `json:"organization"`
	ProjectID    *uuid.UUID `json:"project_id,omitempty"`
	AssignedAt   time.Time  `json:"assigned_at"`
}
