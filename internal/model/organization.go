package model

import (
	"time"

	"skillbridge/internal/fault"

	"github.com/google/uuid"
)

// OrgKind discriminates the three organization populations. Identifiers are
// only unique within a kind, so a bare uuid never names an organization.
type OrgKind string

const (
	OrgKindSchool             OrgKind = "school"
	OrgKindCompany            OrgKind = "company"
	OrgKindIndependentTeacher OrgKind = "independent_teacher"
)

func (k OrgKind) String() string {
	return string(k)
}

func (k OrgKind) IsValid() bool {
	switch k {
	case OrgKindSchool, OrgKindCompany, OrgKindIndependentTeacher:
		return true
	}
	return false
}

func ParseOrgKind(s string) (OrgKind, error) {
	kind := OrgKind(s)
	if !kind.IsValid() {
		return "", fault.Invalidf("invalid organization kind: %s", s)
	}
	return kind, nil
}

// OrgRef names one organization as a kind and id pair. The pair travels
// together everywhere; comparing or storing the id alone is a bug.
type OrgRef struct {
	Kind OrgKind   `json:"kind"`
	ID   uuid.UUID `json:"id"`
}

func (r OrgRef) Equal(other OrgRef) bool {
	return r.Kind == other.Kind && r.ID == other.ID
}

func (r OrgRef) String() string {
	return string(r.Kind) + "/" + r.ID.String()
}

type OrgStatus string

const (
	OrgStatusPending   OrgStatus = "pending"
	OrgStatusConfirmed OrgStatus = "confirmed"
)

type Organization struct {
	Ref    OrgRef    `json:"ref"`
	Name   string    `json:"name"`
	Status OrgStatus `json:"status"`
	// Parent is set once, by a confirmed branch request, and never repointed.
	Parent                 *OrgRef   `json:"parent,omitempty"`
	ShareMembersWithBranch bool      `json:"share_members_with_branch"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// Contract entitles its owner to privileged operations while active and
// inside its date window.
type Contract struct {
	ID        uuid.UUID  `json:"id"`
	Owner     OrgRef     `json:"owner"`
	Active    bool       `json:"active"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// CurrentlyEntitled reports whether the contract grants entitlement at the
// given instant. The active flag alone is not enough; a contract past its
// end date conveys nothing even when nobody flipped the flag off.
func (c Contract) CurrentlyEntitled(now time.Time) bool {
	if !c.Active {
		return false
	}
	if c.StartDate.After(now) {
		return false
	}
	return c.EndDate == nil || !c.EndDate.Before(now)
}
