package api

import (
	"skillbridge/internal/audit"
	"skillbridge/internal/middleware"
	"skillbridge/internal/model"
	"skillbridge/internal/project"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type addProjectMemberRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Role   string `json:"role" validate:"required,project_role"`
}

func (h *Handler) AddProjectMember(c *fiber.Ctx) error {
	projectID, err := uuidParam(c, "id")
	if err != nil {
		return BadRequest(c, "invalid project id")
	}

	var req addProjectMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest(c, "invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return BadRequest(c, err.Error())
	}

	member, err := h.projects.AddMember(c.Context(), project.AddMemberParam{
		ProjectID: projectID,
		UserID:    uuid.MustParse(req.UserID),
		Role:      model.ProjectRole(req.Role),
	})
	if err != nil {
		return ErrorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(member)
}

type addProjectCoOwnerRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

func (h *Handler) AddProjectCoOwner(c *fiber.Ctx) error {
	projectID, err := uuidParam(c, "id")
	if err != nil {
		return BadRequest(c, "invalid project id")
	}

	var req addProjectCoOwnerRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest(c, "invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return BadRequest(c, err.Error())
	}

	actorID := middleware.ActorID(c)
	member, err := h.projects.AddCoOwner(c.Context(), project.AddCoOwnerParam{
		ProjectID: projectID,
		UserID:    uuid.MustParse(req.UserID),
		AddedByID: actorID,
	})
	if err != nil {
		return ErrorResponse(c, err)
	}

	if err := h.auditor.LogEvent(c.Context(), audit.LogEventParam{
		ActorID: actorID,
		Type:    audit.EventTypeProjectCoOwnerAdd,
		Data:    map[string]any{"project_id": projectID, "user_id": req.UserID},
	}); err != nil {
		h.logger.Error("Failed to write audit log", "error", err)
	}
	return c.Status(fiber.StatusCreated).JSON(member)
}

type assignProjectToPartnershipRequest struct {
	PartnershipID string `json:"partnership_id" validate:"required,uuid"`
}

func (h *Handler) AssignProjectToPartnership(c *fiber.Ctx) error {
	projectID, err := uuidParam(c, "id")
	if err != nil {
		return BadRequest(c, "invalid project id")
	}

	var req assignProjectToPartnershipRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest(c, "invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return BadRequest(c, err.Error())
	}

	actorID := middleware.ActorID(c)
	if err := h.projects.AssignToPartnership(c.Context(), project.AssignToPartnershipParam{
		ProjectID:     projectID,
		PartnershipID: uuid.MustParse(req.PartnershipID),
		ByID:          actorID,
	}); err != nil {
		return ErrorResponse(c, err)
	}

	if err := h.auditor.LogEvent(c.Context(), audit.LogEventParam{
		ActorID: actorID,
		Type:    audit.EventTypeProjectPartnershipSet,
		Data:    map[string]any{"project_id": projectID, "partnership_id": req.PartnershipID},
	}); err != nil {
		h.logger.Error("Failed to write audit log", "error", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
