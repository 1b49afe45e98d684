package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/ouk-labs/grouper-api/internal/service"
	"github.com/ouk-labs/grouper-api/internal/utils"
)

// CatalogHandler exposes the course and unit reference data.
type CatalogHandler struct {
	catalog service.CatalogService
	logger  zerolog.Logger
}

// NewCatalogHandler constructs the catalog handler.
func NewCatalogHandler(catalog service.CatalogService, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		logger:  logger.With().Str("component", "catalog_handler").Logger(),
	}
}

// Courses lists every degree programme.
func (h *CatalogHandler) Courses(c *fiber.Ctx) error {
	response, err := h.catalog.Courses(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "courses", response)
}

// Units lists units, optionally scoped to one course via ?course_id.
func (h *CatalogHandler) Units(c *fiber.Ctx) error {
	var courseID *uint
	if raw := strings.TrimSpace(c.Query("course_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || parsed == 0 {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid course_id")
		}
		id := uint(parsed)
		courseID = &id
	}

	response, err := h.catalog.Units(c.UserContext(), courseID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "units", response)
}
