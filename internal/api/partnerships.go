package api

import (
	"skillbridge/internal/audit"
	"skillbridge/internal/middleware"
	"skillbridge/internal/model"
	"skillbridge/internal/partnership"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type partnershipParticipantRequest struct {
	Kind string `json:"kind" validate:"required,org_kind"`
	ID   string `json:"id" validate:"required,uuid"`
	Role string `json:"role" validate:"partnership_role"`
}

type proposePartnershipRequest struct {
	InitiatorKind  string                          `json:"initiator_kind" validate:"required,org_kind"`
	InitiatorID    string                          `json:"initiator_id" validate:"required,uuid"`
	Type           string                          `json:"type" validate:"required,partnership_type"`
	Name           string                          `json:"name"`
	ShareMembers   bool                            `json:"share_members"`
	ShareProjects  bool                            `json:"share_projects"`
	HasSponsorship bool                            `json:"has_sponsorship"`
	Participants   []partnershipParticipantRequest `json:"participants" validate:"required,dive"`
}

func (h *Handler) ProposePartnership(c *fiber.Ctx) error {
	var req proposePartnershipRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest(c, "invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return BadRequest(c, err.Error())
	}

	participants := make([]partnership.Participant, 0, len(req.Participants))
	for _, p := range req.Participants {
		participants = append(participants, partnership.Participant{
			Organization: model.OrgRef{Kind: model.OrgKind(p.Kind), ID: uuid.MustParse(p.ID)},
			Role:         model.PartnershipRole(p.Role),
		})
	}

	created, err := h.partnerships.Propose(c.Context(), partnership.ProposeParam{
		Initiator:      model.OrgRef{Kind: model.OrgKind(req.InitiatorKind), ID: uuid.MustParse(req.InitiatorID)},
		Participants:   participants,
		Type:           model.PartnershipType(req.Type),
		Name:           req.Name,
		ShareMembers:   req.ShareMembers,
		ShareProjects:  req.ShareProjects,
		HasSponsorship: req.HasSponsorship,
	})
	if err != nil {
		return ErrorResponse(c, err)
	}

	if err := h.auditor.LogEvent(c.Context(), audit.LogEventParam{
		ActorID: middleware.ActorID(c),
		Type:    audit.EventTypePartnershipPropose,
		Data:    map[string]any{"partnership_id": created.ID},
	}); err != nil {
		h.logger.Error("Failed to write audit log", "error", err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) ConfirmPartnershipMember(c *fiber.Ctx) error {
	memberID, err := uuidParam(c, "id")
	if err != nil {
		return BadRequest(c, "invalid partnership member id")
	}

	if err := h.partnerships.ConfirmMember(c.Context(), memberID); err != nil {
		return ErrorResponse(c, err)
	}

	if err := h.auditor.LogEvent(c.Context(), audit.LogEventParam{
		ActorID: middleware.ActorID(c),
		Type:    audit.EventTypePartnershipConfirm,
		Data:    map[string]any{"member_id": memberID},
	}); err != nil {
		h.logger.Error("Failed to write audit log", "error", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) DeclinePartnershipMember(c *fiber.Ctx) error {
	memberID, err := uuidParam(c, "id")
	if err != nil {
		return BadRequest(c, "invalid partnership member id")
	}

	if err := h.partnerships.DeclineMember(c.Context(), memberID); err != nil {
		return ErrorResponse(c, err)
	}

	if err := h.auditor.LogEvent(c.Context(), audit.LogEventParam{
		ActorID: middleware.ActorID(c),
		Type:    audit.EventTypePartnershipReject,
		Data:    map[string]any{"member_id": memberID},
	}); err != nil {
		h.logger.Error("Failed to write audit log", "error", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) ListPartnershipMembers(c *fiber.Ctx) error {
	partnershipID, err := uuidParam(c, "id")
	if err != nil {
		return BadRequest(c, "invalid partnership id")
	}

	var members []model.PartnershipMember
	switch c.Query("role") {
	case "sponsor":
		members, err = h.partnerships.Sponsors(c.Context(), partnershipID)
	case "beneficiary":
		members, err = h.partnerships.Beneficiaries(c.Context(), partnershipID)
	case "partner":
		members, err = h.partnerships.PartnersOnly(c.Context(), partnershipID)
	default:
		members, err = h.partnerships.OtherPartners(c.Context(), partnershipID, model.OrgRef{})
	}
	if err != nil {
		return ErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"members": members})
}
