package handlers

import (
	"time"

	"gradedesk/internal/log"
	"gradedesk/internal/services"
	"gradedesk/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false, // set true behind TLS
		})
	}
	return sid
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := ensureSID(c)

	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body", nil)
	}
	if _, ok := validate.Email(req.Email); !ok {
		log.Security(c, "auth.login.fail", map[string]any{"email": req.Email, "reason": "bad_format"})
		return fail(c, fiber.StatusUnauthorized, "invalid email or password", nil)
	}
	if !validate.Password(req.Password) {
		log.Security(c, "auth.login.fail", map[string]any{"email": req.Email, "reason": "bad_password_format"})
		return fail(c, fiber.StatusUnauthorized, "invalid email or password", nil)
	}

	u, err := h.Auth.Login(sid, req.Email, req.Password)
	if err != nil {
		log.Security(c, "auth.login.fail", map[string]any{"email": req.Email})
		return fail(c, fiber.StatusUnauthorized, "invalid email or password", nil)
	}

	log.Audit(c, "auth.login.success", map[string]any{"email": req.Email})
	return c.JSON(fiber.Map{"userId": u.ID, "name": u.Name, "role": u.Role})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := ensureSID(c)
	_ = h.Auth.Logout(sid)
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	return c.JSON(fiber.Map{"ok": true})
}
