package api

import (
	"skillbridge/internal/audit"
	"skillbridge/internal/membership"
	"skillbridge/internal/middleware"
	"skillbridge/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type joinOrganizationRequest struct {
	Role string `json:"role" validate:"required,org_role"`
}

func (h *Handler) JoinOrganization(c *fiber.Ctx) error {
	org, err := orgRefFromParams(c)
	if err != nil {
		return BadRequest(c, "invalid organization reference")
	}

	var req joinOrganizationRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest(c, "invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return BadRequest(c, err.Error())
	}

	created, err := h.memberships.Join(c.Context(), membership.JoinParam{
		UserID:       middleware.ActorID(c),
		Organization: org,
		Role:         model.Role(req.Role),
	})
	if err != nil {
		return ErrorResponse(c, err)
	}

	h.networks.Invalidate(c.Context(), created.UserID)
	return c.Status(fiber.StatusCreated).JSON(created)
}

type grantRoleRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Role   string `json:"role" validate:"required,org_role"`
}

func (h *Handler) GrantRole(c *fiber.Ctx) error {
	org, err := orgRefFromParams(c)
	if err != nil {
		return BadRequest(c, "invalid organization reference")
	}

	var req grantRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest(c, "invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return BadRequest(c, err.Error())
	}

	actorID := middleware.ActorID(c)
	granted, err := h.memberships.GrantRole(c.Context(), membership.GrantRoleParam{
		ActorID:      actorID,
		Organization: org,
		TargetUserID: uuid.MustParse(req.UserID),
		Role:         model.Role(req.Role),
	})
	if err != nil {
		return ErrorResponse(c, err)
	}

	h.networks.Invalidate(c.Context(), granted.UserID)
	if err := h.auditor.LogEvent(c.Context(), audit.LogEventParam{
		ActorID: actorID,
		Type:    audit.EventTypeMembershipGrant,
		Data: map[string]any{
			"membership_id": granted.ID,
			"organization":  org.String(),
			"role":          req.Role,
		},
	}); err != nil {
		h.logger.Error("Failed to write audit log", "error", err)
	}
	return c.JSON(granted)
}

func (h *Handler) RevokeMembership(c *fiber.Ctx) error {
	membershipID, err := uuidParam(c, "id")
	if err != nil {
		return BadRequest(c, "invalid membership id")
	}

	target, err := h.db.GetMembershipByID(c.Context(), membershipID)
	if err != nil {
		return ErrorResponse(c, err)
	}

	actorID := middleware.ActorID(c)
	if err := h.memberships.Revoke(c.Context(), membership.RevokeParam{
		ActorID:      actorID,
		MembershipID: membershipID,
	}); err != nil {
		return ErrorResponse(c, err)
	}

	h.networks.Invalidate(c.Context(), target.UserID)
	if err := h.auditor.LogEvent(c.Context(), audit.LogEventParam{
		ActorID: actorID,
		Type:    audit.EventTypeMembershipRevoke,
		Data:    map[string]any{"membership_id": membershipID},
	}); err != nil {
		h.logger.Error("Failed to write audit log", "error", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) ConfirmMembership(c *fiber.Ctx) error {
	membershipID, err := uuidParam(c, "id")
	if err != nil {
		return BadRequest(c, "invalid membership id")
	}

	target, err := h.db.GetMembershipByID(c.Context(), membershipID)
	if err != nil {
		return ErrorResponse(c, err)
	}

	if err := h.memberships.Confirm(c.Context(), membership.ConfirmParam{
		ActorID:      middleware.ActorID(c),
		MembershipID: membershipID,
	}); err != nil {
		return ErrorResponse(c, err)
	}

	h.networks.Invalidate(c.Context(), target.UserID)
	return c.SendStatus(fiber.StatusNoContent)
}

type transferSuperadminRequest struct {
	NewHolderID string `json:"new_holder_id" validate:"required,uuid"`
}

func (h *Handler) TransferSuperadmin(c *fiber.Ctx) error {
	org, err := orgRefFromParams(c)
	if err != nil {
		return BadRequest(c, "invalid organization reference")
	}

	var req transferSuperadminRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest(c, "invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return BadRequest(c, err.Error())
	}

	if err := h.memberships.TransferSuperadmin(c.Context(), membership.TransferSuperadminParam{
		ActorID:      middleware.ActorID(c),
		Organization: org,
		NewHolderID:  uuid.MustParse(req.NewHolderID),
	}); err != nil {
		return ErrorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
