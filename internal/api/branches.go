package api

import (
	"skillbridge/internal/audit"
	"skillbridge/internal/branch"
	"skillbridge/internal/middleware"
	"skillbridge/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type createBranchRequestRequest struct {
	ParentKind    string `json:"parent_kind" validate:"required,org_kind"`
	ParentID      string `json:"parent_id" validate:"required,uuid"`
	ChildKind     string `json:"child_kind" validate:"required,org_kind"`
	ChildID       string `json:"child_id" validate:"required,uuid"`
	InitiatorKind string `json:"initiator_kind" validate:"required,org_kind"`
	InitiatorID   string `json:"initiator_id" validate:"required,uuid"`
}

func (h *Handler) CreateBranchRequest(c *fiber.Ctx) error {
	var req createBranchRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest(c, "invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return BadRequest(c, err.Error())
	}

	created, err := h.branches.Request(c.Context(), branch.RequestParam{
		Parent:    model.OrgRef{Kind: model.OrgKind(req.ParentKind), ID: uuid.MustParse(req.ParentID)},
		Child:     model.OrgRef{Kind: model.OrgKind(req.ChildKind), ID: uuid.MustParse(req.ChildID)},
		Initiator: model.OrgRef{Kind: model.OrgKind(req.InitiatorKind), ID: uuid.MustParse(req.InitiatorID)},
	})
	if err != nil {
		return ErrorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) ConfirmBranchRequest(c *fiber.Ctx) error {
	requestID, err := uuidParam(c, "id")
	if err != nil {
		return BadRequest(c, "invalid branch request id")
	}

	if err := h.branches.Confirm(c.Context(), requestID); err != nil {
		return ErrorResponse(c, err)
	}

	if err := h.auditor.LogEvent(c.Context(), audit.LogEventParam{
		ActorID: middleware.ActorID(c),
		Type:    audit.EventTypeBranchConfirm,
		Data:    map[string]any{"request_id": requestID},
	}); err != nil {
		h.logger.Error("Failed to write audit log", "error", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) RejectBranchRequest(c *fiber.Ctx) error {
	requestID, err := uuidParam(c, "id")
	if err != nil {
		return BadRequest(c, "invalid branch request id")
	}

	if err := h.branches.Reject(c.Context(), requestID); err != nil {
		return ErrorResponse(c, err)
	}

	if err := h.auditor.LogEvent(c.Context(), audit.LogEventParam{
		ActorID: middleware.ActorID(c),
		Type:    audit.EventTypeBranchReject,
		Data:    map[string]any{"request_id": requestID},
	}); err != nil {
		h.logger.Error("Failed to write audit log", "error", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
