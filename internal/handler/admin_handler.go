package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/ouk-labs/grouper-api/internal/dto"
	"github.com/ouk-labs/grouper-api/internal/service"
	"github.com/ouk-labs/grouper-api/internal/utils"
)

// AdminHandler exposes the administrator surface: forced moves, contact
// link maintenance and the audit trail.
type AdminHandler struct {
	assignments service.AssignmentService
	groups      service.GroupService
	audit       service.AuditService
	logger      zerolog.Logger
}

// NewAdminHandler constructs the admin handler.
func NewAdminHandler(assignments service.AssignmentService, groups service.GroupService, audit service.AuditService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		assignments: assignments,
		groups:      groups,
		audit:       audit,
		logger:      logger.With().Str("component", "admin_handler").Logger(),
	}
}

// MoveStudent relocates any student into the requested group.
func (h *AdminHandler) MoveStudent(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.MoveStudentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if payload.GroupID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "group_id is required")
	}

	response, err := h.assignments.MoveStudent(c.UserContext(), actorFromContext(c), studentID, payload.GroupID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "student moved", response)
}

// UpdateContactLink sets or clears a group's contact link.
func (h *AdminHandler) UpdateContactLink(c *fiber.Ctx) error {
	groupID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ContactLinkUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.groups.UpdateContactLink(c.UserContext(), groupID, payload, actorFromContext(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "contact link updated", response)
}

// AuditLog pages through the audit trail, newest first.
func (h *AdminHandler) AuditLog(c *fiber.Ctx) error {
	page := parseQueryInt(c, "page", 1)
	pageSize := parseQueryInt(c, "page_size", 20)
	if pageSize > 100 {
		pageSize = 100
	}

	response, err := h.audit.List(c.UserContext(), page, pageSize)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "audit log", response)
}
