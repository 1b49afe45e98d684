package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/ouk-labs/grouper-api/internal/dto"
	"github.com/ouk-labs/grouper-api/internal/service"
	"github.com/ouk-labs/grouper-api/internal/utils"
)

// GroupHandler exposes the roster read endpoints.
type GroupHandler struct {
	groups service.GroupService
	config dto.EngineConfigResponse
	logger zerolog.Logger
}

// NewGroupHandler constructs the group handler.
func NewGroupHandler(groups service.GroupService, config dto.EngineConfigResponse, logger zerolog.Logger) *GroupHandler {
	return &GroupHandler{
		groups: groups,
		config: config,
		logger: logger.With().Str("component", "group_handler").Logger(),
	}
}

// List returns every group with its members, oldest first.
func (h *GroupHandler) List(c *fiber.Ctx) error {
	response, err := h.groups.ListGroups(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "groups", response)
}

// Get returns one group by id.
func (h *GroupHandler) Get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.groups.GetGroup(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "group", response)
}

// SharedUnits returns the units every member of the group has in common.
func (h *GroupHandler) SharedUnits(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.groups.SharedUnits(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "shared units", response)
}

// Config exposes the engine's placement limits.
func (h *GroupHandler) Config(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "engine configuration", h.config)
}
