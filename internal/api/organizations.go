package api

import (
	"skillbridge/internal/database"
	"skillbridge/internal/model"

	"github.com/gofiber/fiber/v2"
)

type createOrganizationRequest struct {
	Kind                   string `json:"kind" validate:"required,org_kind"`
	Name                   string `json:"name" validate:"required,min=1,max=255"`
	ShareMembersWithBranch bool   `json:"share_members_with_branch"`
}

func (h *Handler) CreateOrganization(c *fiber.Ctx) error {
	var req createOrganizationRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest(c, "invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return BadRequest(c, err.Error())
	}

	created, err := h.db.CreateOrganization(c.Context(), database.CreateOrganizationParams{
		Kind:                   model.OrgKind(req.Kind),
		Name:                   req.Name,
		Status:                 model.OrgStatusConfirmed,
		ShareMembersWithBranch: req.ShareMembersWithBranch,
	})
	if err != nil {
		return ErrorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) GetOrganization(c *fiber.Ctx) error {
	ref, err := orgRefFromParams(c)
	if err != nil {
		return BadRequest(c, "invalid organization reference")
	}

	org, err := h.db.GetOrganization(c.Context(), ref)
	if err != nil {
		return ErrorResponse(c, err)
	}
	return c.JSON(org)
}

type memberSharingRequest struct {
	ShareMembersWithBranch bool `json:"share_members_with_branch"`
}

// SetMemberSharing flips the branch member-sharing opt-in. Cached visibility
// sets of affected members age out through the cache TTL.
func (h *Handler) SetMemberSharing(c *fiber.Ctx) error {
	ref, err := orgRefFromParams(c)
	if err != nil {
		return BadRequest(c, "invalid organization reference")
	}

	var req memberSharingRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest(c, "invalid request body")
	}

	if err := h.db.SetOrganizationMemberSharing(c.Context(), ref, req.ShareMembersWithBranch); err != nil {
		return ErrorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) ListOrganizationMembers(c *fiber.Ctx) error {
	ref, err := orgRefFromParams(c)
	if err != nil {
		return BadRequest(c, "invalid organization reference")
	}

	members, err := h.db.ListMembershipsByOrganization(c.Context(), ref)
	if err != nil {
		return ErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"members": members})
}

func (h *Handler) ListOrganizationBranches(c *fiber.Ctx) error {
	ref, err := orgRefFromParams(c)
	if err != nil {
		return BadRequest(c, "invalid organization reference")
	}

	children, err := h.branches.Children(c.Context(), ref)
	if err != nil {
		return ErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"branches": children})
}
