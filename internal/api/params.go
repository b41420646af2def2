package api

import (
	"skillbridge/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func orgRefFromParams(c *fiber.Ctx) (model.OrgRef, error) {
	kind, err := model.ParseOrgKind(c.Params("kind"))
	if err != nil {
		return model.OrgRef{}, err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return model.OrgRef{}, err
	}
	return model.OrgRef{Kind: kind, ID: id}, nil
}

func uuidParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}
