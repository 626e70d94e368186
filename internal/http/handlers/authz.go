package handlers

import (
	"gradedesk/internal/domain"
	applog "gradedesk/internal/log"
	"gradedesk/internal/services"

	"github.com/gofiber/fiber/v2"
)

// RequireUser resolves the sid cookie to a user and stashes it in Locals;
// unauthenticated requests get a 401 rather than a redirect since every
// surface here is JSON.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil {
			return fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// RequireAdmin additionally checks the ADMIN role.
func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil || u.Role != domain.RoleAdmin {
			applog.Security(c, "access.denied.admin", map[string]any{"sid": sid})
			return fail(c, fiber.StatusForbidden, "access denied", nil)
		}
		c.Locals("user", u)
		return c.Next()
	}
}
