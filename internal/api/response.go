package api

import (
	"log/slog"

	"skillbridge/internal/fault"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse maps the core's fault kinds onto HTTP statuses. Anything
// without a kind is an internal error and is logged instead of leaked.
func ErrorResponse(c *fiber.Ctx, err error) error {
	var (
		code   int
		status string
	)
	switch fault.KindOf(err) {
	case fault.KindInvalid:
		code, status = fiber.StatusUnprocessableEntity, "invalid"
	case fault.KindForbidden:
		code, status = fiber.StatusForbidden, "forbidden"
	case fault.KindConflict:
		code, status = fiber.StatusConflict, "conflict"
	case fault.KindNotFound:
		code, status = fiber.StatusNotFound, "not_found"
	default:
		slog.Error("Unhandled error", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fiber.Map{"code": fiber.StatusInternalServerError, "status": "internal", "message": "internal server error"},
		})
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{"code": code, "status": status, "message": err.Error()},
	})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": fiber.Map{"code": fiber.StatusBadRequest, "status": "bad_request", "message": message},
	})
}
