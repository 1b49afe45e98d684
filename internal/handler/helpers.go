package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ouk-labs/grouper-api/internal/service"
	"github.com/ouk-labs/grouper-api/internal/utils"
)

// actorFromContext builds the audit actor from the JWT locals set by the
// auth middleware. An unauthenticated request yields the zero actor.
func actorFromContext(c *fiber.Ctx) service.Actor {
	actor := service.Actor{}
	if value := c.Locals("user_id"); value != nil {
		if id, ok := value.(uint); ok {
			actor.ID = id
		}
	}
	if value := c.Locals("user_role"); value != nil {
		if role, ok := value.(string); ok {
			actor.Role = role
		}
	}
	return actor
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	raw := strings.TrimSpace(c.Params(name))
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid " + name)
	}
	return uint(parsed), nil
}

func parseQueryInt(c *fiber.Ctx, name string, fallback int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

// respondServiceError maps service sentinels onto HTTP statuses. Unknown
// errors become an opaque 500 so internals never leak.
func respondServiceError(c *fiber.Ctx, err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return utils.SendError(c, fiber.StatusBadRequest, validationMessage(validationErrs))
	}

	switch {
	case errors.Is(err, service.ErrStudentNotFound),
		errors.Is(err, service.ErrGroupNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrInvalidCourse),
		errors.Is(err, service.ErrSeedDisabled):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrGroupFull),
		errors.Is(err, service.ErrSameGroup),
		errors.Is(err, service.ErrUnassigned),
		errors.Is(err, service.ErrDuplicateStudent),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrRegistrationClosed):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidUnits),
		errors.Is(err, service.ErrEmailDomain),
		errors.Is(err, service.ErrInvalidStudentName):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotAdmin),
		errors.Is(err, service.ErrSeedUnauthorized):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}

func validationMessage(errs validator.ValidationErrors) string {
	fields := make([]string, 0, len(errs))
	for _, fieldErr := range errs {
		fields = append(fields, strings.ToLower(fieldErr.Field()))
	}
	return "validation failed on: " + strings.Join(fields, ", ")
}
