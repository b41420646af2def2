package api

import (
	"skillbridge/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetNetwork lists the organizations whose members are visible to the actor.
func (h *Handler) GetNetwork(c *fiber.Ctx) error {
	set, err := h.networks.VisibleOrganizations(c.Context(), middleware.ActorID(c))
	if err != nil {
		return ErrorResponse(c, err)
	}
	return c.JSON(set)
}
