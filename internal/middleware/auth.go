package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const actorIDKey = "actorID"

// Actor extracts the authenticated actor from the X-Actor-ID header set by
// the upstream auth proxy. Requests without a valid actor are rejected.
func Actor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("X-Actor-ID")
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-Actor-ID header",
			})
		}
		actorID, err := uuid.Parse(header)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid X-Actor-ID header",
			})
		}
		c.Locals(actorIDKey, actorID)
		return c.Next()
	}
}

// ActorID returns the actor set by the Actor middleware.
func ActorID(c *fiber.Ctx) uuid.UUID {
	if id, ok := c.Locals(actorIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
