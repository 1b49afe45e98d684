package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ouk-labs/grouper-api/internal/utils"
)

// HealthHandler answers liveness probes.
type HealthHandler struct {
	appName string
	env     string
}

// NewHealthHandler constructs the health handler.
func NewHealthHandler(appName, env string) *HealthHandler {
	return &HealthHandler{appName: appName, env: env}
}

// Check reports the service identity and that it is accepting traffic.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "ok", fiber.Map{
		"app":         h.appName,
		"environment": h.env,
	})
}
