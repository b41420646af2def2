package api

import (
	"time"

	"skillbridge/internal/audit"
	"skillbridge/internal/contract"
	"skillbridge/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type activateContractRequest struct {
	StartDate time.Time  `json:"start_date" validate:"required"`
	EndDate   *time.Time `json:"end_date"`
}

func (h *Handler) ActivateContract(c *fiber.Ctx) error {
	owner, err := orgRefFromParams(c)
	if err != nil {
		return BadRequest(c, "invalid organization reference")
	}

	var req activateContractRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest(c, "invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return BadRequest(c, err.Error())
	}

	created, err := h.contracts.Activate(c.Context(), contract.ActivateParam{
		Owner:     owner,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		return ErrorResponse(c, err)
	}

	if err := h.auditor.LogEvent(c.Context(), audit.LogEventParam{
		ActorID: middleware.ActorID(c),
		Type:    audit.EventTypeContractActivate,
		Data: map[string]any{
			"contract_id": created.ID,
			"owner":       owner.String(),
		},
	}); err != nil {
		h.logger.Error("Failed to write audit log", "error", err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) DeactivateContract(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return BadRequest(c, "invalid contract id")
	}

	if err := h.contracts.Deactivate(c.Context(), id); err != nil {
		return ErrorResponse(c, err)
	}

	if err := h.auditor.LogEvent(c.Context(), audit.LogEventParam{
		ActorID: middleware.ActorID(c),
		Type:    audit.EventTypeContractDeactivate,
		Data: map[string]any{
			"contract_id": id,
		},
	}); err != nil {
		h.logger.Error("Failed to write audit log", "error", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) GetEntitlement(c *fiber.Ctx) error {
	owner, err := orgRefFromParams(c)
	if err != nil {
		return BadRequest(c, "invalid organization reference")
	}

	entitled, err := h.contracts.CurrentlyEntitled(c.Context(), owner)
	if err != nil {
		return ErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"entitled": entitled})
}
