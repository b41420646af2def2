package api

import (
	"log/slog"
	"time"

	"skillbridge/internal/audit"
	"skillbridge/internal/badge"
	"skillbridge/internal/branch"
	"skillbridge/internal/contract"
	"skillbridge/internal/database"
	"skillbridge/internal/membership"
	"skillbridge/internal/middleware"
	"skillbridge/internal/network"
	"skillbridge/internal/partnership"
	"skillbridge/internal/project"
	"skillbridge/internal/validator"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	logger       *slog.Logger
	db           *database.Database
	validator    *validator.Validator
	auditor      audit.Auditor
	memberships  membership.Manager
	contracts    contract.Manager
	branches     branch.Manager
	partnerships partnership.Manager
	networks     network.Manager
	projects     project.Manager
	badges       badge.Manager
}

type Handlers struct {
	Memberships  membership.Manager
	Contracts    contract.Manager
	Branches     branch.Manager
	Partnerships partnership.Manager
	Networks     network.Manager
	Projects     project.Manager
	Badges       badge.Manager
}

func NewHandler(logger *slog.Logger, db *database.Database, v *validator.Validator, auditor audit.Auditor, h Handlers) Handler {
	return Handler{
		logger:       logger,
		db:           db,
		validator:    v,
		auditor:      auditor,
		memberships:  h.Memberships,
		contracts:    h.Contracts,
		branches:     h.Branches,
		partnerships: h.Partnerships,
		networks:     h.Networks,
		projects:     h.Projects,
		badges:       h.Badges,
	}
}

func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.Health)

	authed := app.Group("/", middleware.Actor())

	authed.Post("/organizations", h.CreateOrganization)
	authed.Get("/organizations/:kind/:id", h.GetOrganization)
	authed.Patch("/organizations/:kind/:id/member-sharing", h.SetMemberSharing)
	authed.Get("/organizations/:kind/:id/members", h.ListOrganizationMembers)
	authed.Get("/organizations/:kind/:id/branches", h.ListOrganizationBranches)

	authed.Post("/organizations/:kind/:id/join", h.JoinOrganization)
	authed.Post("/organizations/:kind/:id/roles", h.GrantRole)
	authed.Post("/organizations/:kind/:id/superadmin/transfer", h.TransferSuperadmin)
	authed.Delete("/memberships/:id", h.RevokeMembership)
	authed.Post("/memberships/:id/confirm", h.ConfirmMembership)

	authed.Post("/organizations/:kind/:id/contracts", h.ActivateContract)
	authed.Get("/organizations/:kind/:id/entitlement", h.GetEntitlement)
	authed.Delete("/contracts/:id", h.DeactivateContract)

	authed.Post("/branch-requests", h.CreateBranchRequest)
	authed.Post("/branch-requests/:id/confirm", h.ConfirmBranchRequest)
	authed.Post("/branch-requests/:id/reject", h.RejectBranchRequest)

	authed.Post("/partnerships", h.ProposePartnership)
	authed.Post("/partnership-members/:id/confirm", h.ConfirmPartnershipMember)
	authed.Post("/partnership-members/:id/decline", h.DeclinePartnershipMember)
	authed.Get("/partnerships/:id/members", h.ListPartnershipMembers)

	authed.Get("/network", h.GetNetwork)

	authed.Post("/projects/:id/members", h.AddProjectMember)
	authed.Post("/projects/:id/co-owners", h.AddProjectCoOwner)
	authed.Post("/projects/:id/partnership", h.AssignProjectToPartnership)

	authed.Post("/badges/assign", h.AssignBadge)
}

func (h *Handler) Health(c *fiber.Ctx) error {
	if err := h.db.Ping(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  "database connection failed",
		})
	}
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
