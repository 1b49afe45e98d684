package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ouk-labs/grouper-api/internal/utils"
)

// RequireRole ensures the authenticated caller holds one of the allowed
// roles.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		normalized := strings.ToLower(strings.TrimSpace(role))
		if normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		role := ""
		if value := c.Locals("user_role"); value != nil {
			if str, ok := value.(string); ok {
				role = strings.ToLower(strings.TrimSpace(str))
			}
		}
		if _, ok := allowed[role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
