package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/ouk-labs/grouper-api/internal/dto"
	"github.com/ouk-labs/grouper-api/internal/service"
	"github.com/ouk-labs/grouper-api/internal/utils"
)

// StudentHandler exposes registration with auto-assignment, placement
// lookups and the student-initiated group switch.
type StudentHandler struct {
	assignments service.AssignmentService
	students    service.StudentService
	auth        service.AuthService
	logger      zerolog.Logger
}

// NewStudentHandler constructs the student handler.
func NewStudentHandler(assignments service.AssignmentService, students service.StudentService, auth service.AuthService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		assignments: assignments,
		students:    students,
		auth:        auth,
		logger:      logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register creates a student and places them into a group in one step.
func (h *StudentHandler) Register(c *fiber.Ctx) error {
	var payload dto.RegisterStudentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.assignments.AutoAssign(c.UserContext(), payload, actorFromContext(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student registered and assigned", response)
}

// Lookup returns the full placement of a student, keyed by student number.
func (h *StudentHandler) Lookup(c *fiber.Ctx) error {
	number := strings.TrimSpace(c.Params("studentNumber"))
	if number == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "student number is required")
	}

	response, err := h.students.Lookup(c.UserContext(), number)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "placement", response)
}

// PublicLookup returns the reduced placement view available without a
// session, so a student can find their group right after registering.
func (h *StudentHandler) PublicLookup(c *fiber.Ctx) error {
	number := strings.TrimSpace(c.Params("studentNumber"))
	if number == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "student number is required")
	}

	response, err := h.students.PublicLookup(c.UserContext(), number)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "placement", response)
}

// SwitchGroup relocates the caller's linked student into the requested
// group, subject to the capacity and no-op rules.
func (h *StudentHandler) SwitchGroup(c *fiber.Ctx) error {
	actor := actorFromContext(c)
	if actor.ID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.SwitchGroupRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if payload.GroupID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "group_id is required")
	}

	profile, err := h.auth.Me(c.UserContext(), actor.ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	if profile.Student == nil {
		return utils.SendError(c, fiber.StatusNotFound, "no student profile linked to this account")
	}

	response, err := h.assignments.SwitchGroup(c.UserContext(), actor, profile.Student.ID, payload.GroupID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "group switched", response)
}
