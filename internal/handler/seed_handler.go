package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/ouk-labs/grouper-api/internal/service"
	"github.com/ouk-labs/grouper-api/internal/utils"
)

// SeedHandler loads the canonical catalog on demand.
type SeedHandler struct {
	seeder service.SeedService
	logger zerolog.Logger
}

// NewSeedHandler constructs the seed handler.
func NewSeedHandler(seeder service.SeedService, logger zerolog.Logger) *SeedHandler {
	return &SeedHandler{
		seeder: seeder,
		logger: logger.With().Str("component", "seed_handler").Logger(),
	}
}

// SeedCatalog upserts the canonical courses and units. Guarded by the seed
// token header in addition to the admin role.
func (h *SeedHandler) SeedCatalog(c *fiber.Ctx) error {
	affected, err := h.seeder.SeedCatalog(c.UserContext(), c.Get("X-Seed-Token"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return utils.SendSuccess(c, "catalog seeded", fiber.Map{"affected": affected})
}
