package model

import (
	"time"

	"github.com/google/uuid"
)

type BranchRequestStatus string

const (
	BranchRequestStatusPending   BranchRequestStatus = "pending"
	BranchRequestStatusConfirmed BranchRequestStatus = "confirmed"
	BranchRequestStatusRejected  BranchRequestStatus = "rejected"
)

// BranchRequest proposes a parent-child relation between two organizations of
// the same kind. Only a confirmed request mutates the organizations.
type BranchRequest struct {
	ID          uuid.UUID           `json:"id"`
	Parent      OrgRef              `json:"parent"`
	Child       OrgRef              `json:"child"`
	Initiator   OrgRef              `json:"initiator"`
	Status      BranchRequestStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	ConfirmedAt *time.Time          `json:"confirmed_at,omitempty"`
}

type PartnershipType string

const (
	PartnershipTypeBilateral    PartnershipType = "bilateral"
	PartnershipTypeMultilateral PartnershipType = "multilateral"
)

func (t PartnershipType) IsValid() bool {
	switch t {
	case PartnershipTypeBilateral, PartnershipTypeMultilateral:
		return true
	}
	return false
}

type PartnershipStatus string

const (
	PartnershipStatusPending   PartnershipStatus = "pending"
	PartnershipStatusConfirmed PartnershipStatus = "confirmed"
	PartnershipStatusRejected  PartnershipStatus = "rejected"
)

// Partnership links organizations across kinds. It confirms only on the
// consensus of every member and carries the sharing flags that the network
// resolver reads.
type Partnership struct {
	ID             uuid.UUID         `json:"id"`
	Initiator      OrgRef            `json:"initiator"`
	Name           string            `json:"name"`
	Type           PartnershipType   `json:"type"`
	Status         PartnershipStatus `json:"status"`
	ShareMembers   bool              `json:"share_members"`
	ShareProjects  bool              `json:"share_projects"`
	HasSponsorship bool              `json:"has_sponsorship"`
	CreatedAt      time.Time         `json:"created_at"`
	ConfirmedAt    *time.Time        `json:"confirmed_at,omitempty"`
}

type PartnershipMemberStatus string

const (
	PartnershipMemberStatusPending   PartnershipMemberStatus = "pending"
	PartnershipMemberStatusConfirmed PartnershipMemberStatus = "confirmed"
	PartnershipMemberStatusDeclined  PartnershipMemberStatus = "declined"
)

// PartnershipRole distinguishes sponsors and beneficiaries inside a
// sponsoring partnership; plain partnerships use the partner role throughout.
type PartnershipRole string

const (
	PartnershipRolePartner     PartnershipRole = "partner"
	PartnershipRoleSponsor     PartnershipRole = "sponsor"
	PartnershipRoleBeneficiary PartnershipRole = "beneficiary"
)

func (r PartnershipRole) IsValid() bool {
	switch r {
	case PartnershipRolePartner, PartnershipRoleSponsor, PartnershipRoleBeneficiary:
		return true
	}
	return false
}

type PartnershipMember struct {
	ID            uuid.UUID               `json:"id"`
	PartnershipID uuid.UUID               `json:"partnership_id"`
	Participant   OrgRef                  `json:"participant"`
	Status        PartnershipMemberStatus `json:"status"`
	Role          PartnershipRole         `json:"role"`
	JoinedAt      time.Time               `json:"joined_at"`
	ConfirmedAt   *time.Time              `json:"confirmed_at,omitempty"`
}
