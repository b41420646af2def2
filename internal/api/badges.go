package api

import (
	"skillbridge/internal/audit"
	"skillbridge/internal/badge"
	"skillbridge/internal/middleware"
	"skillbridge/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type assignBadgeRequest struct {
	BadgeID          string   `json:"badge_id" validate:"required,uuid"`
	RecipientIDs     []string `json:"recipient_ids" validate:"required,min=1,dive,uuid"`
	OrganizationID   string   `json:"organization_id" validate:"required_without=ProjectID,omitempty,uuid"`
	OrganizationType string   `json:"organization_type" validate:"required_with=OrganizationID,omitempty,org_kind"`
	ProjectID        string   `json:"project_id" validate:"omitempty,uuid"`
}

type recipientResponse struct {
	RecipientID  string `json:"recipient_id"`
	Success      bool   `json:"success"`
	AssignmentID string `json:"assignment_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

// AssignBadge evaluates the badge authorization per recipient and reports
// each outcome individually, never all-or-nothing.
func (h *Handler) AssignBadge(c *fiber.Ctx) error {
	var req assignBadgeRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest(c, "invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return BadRequest(c, err.Error())
	}

	recipientIDs := make([]uuid.UUID, 0, len(req.RecipientIDs))
	for _, id := range req.RecipientIDs {
		recipientIDs = append(recipientIDs, uuid.MustParse(id))
	}

	actorID := middleware.ActorID(c)
	param := badge.AssignParam{
		ActorID:      actorID,
		BadgeID:      uuid.MustParse(req.BadgeID),
		RecipientIDs: recipientIDs,
	}
	if req.ProjectID != "" {
		projectID := uuid.MustParse(req.ProjectID)
		param.ProjectID = &projectID
	} else {
		param.Organization = model.OrgRef{
			Kind: model.OrgKind(req.OrganizationType),
			ID:   uuid.MustParse(req.OrganizationID),
		}
	}

	results, err := h.badges.Assign(c.Context(), param)
	if err != nil {
		return ErrorResponse(c, err)
	}

	response := make([]recipientResponse, 0, len(results))
	for _, result := range results {
		r := recipientResponse{RecipientID: result.RecipientID.String(), Success: result.Err == nil}
		if result.Assignment != nil {
			r.AssignmentID = result.Assignment.ID.String()
		}
		if result.Err != nil {
			r.Error = result.Err.Error()
		}
		response = append(response, r)
	}

	if err := h.auditor.LogEvent(c.Context(), audit.LogEventParam{
		ActorID: actorID,
		Type:    audit.EventTypeBadgeAssign,
		Data: map[string]any{
			"badge_id":   req.BadgeID,
			"recipients": len(recipientIDs),
		},
	}); err != nil {
		h.logger.Error("Failed to write audit log", "error", err)
	}
	return c.JSON(fiber.Map{"results": response})
}
