package handlers

import (
	"errors"

	"gradedesk/internal/domain"
	applog "gradedesk/internal/log"
	"gradedesk/internal/services"
	"gradedesk/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type SessionHandler struct {
	Sessions *services.SessionService
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

type createSessionRequest struct {
	EventRef   string `json:"eventRef"`
	SellerName string `json:"sellerName"`
}

func (h *SessionHandler) Create(c *fiber.Ctx) error {
	u := currentUser(c)
	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return fail(c, fiber.StatusBadRequest, "malformed request body", nil)
	}
	s, err := h.Sessions.Open(u.ID, req.EventRef, req.SellerName)
	if err != nil {
		applog.Error(c, "session.create.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "could not create session", nil)
	}
	applog.Audit(c, "session.create", map[string]any{"session_id": s.ID, "seq": s.SeqNumber})
	return c.Status(fiber.StatusCreated).JSON(s)
}

func (h *SessionHandler) Detail(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid session id", nil)
	}
	view, err := h.Sessions.View(u.ID, id)
	if errors.Is(err, services.ErrSessionNotFound) {
		return fail(c, fiber.StatusNotFound, "session not found", nil)
	}
	if err != nil {
		applog.Error(c, "session.view.fail", err, map[string]any{"session_id": id})
		return fail(c, fiber.StatusInternalServerError, "could not load session", nil)
	}
	return c.JSON(view)
}

type addLineRequest struct {
	AssetID    string  `json:"assetId"`
	OfferPrice float64 `json:"offerPrice"`
	Note       string  `json:"note"`
}

func (h *SessionHandler) AddLine(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid session id", nil)
	}
	var req addLineRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body", nil)
	}
	if _, ok := validate.ID(req.AssetID); !ok {
		return fail(c, fiber.StatusBadRequest, "invalid assetId", nil)
	}
	line, err := h.Sessions.AddLine(u.ID, id, req.AssetID, req.OfferPrice, req.Note)
	var verr *services.ValidationError
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return fail(c, fiber.StatusNotFound, "session not found", nil)
	case errors.Is(err, services.ErrAlreadyProcessed):
		return fail(c, fiber.StatusConflict, "session already checked out", nil)
	case errors.As(err, &verr):
		return fail(c, fiber.StatusBadRequest, verr.Msg, nil)
	case err != nil:
		applog.Error(c, "session.line.add.fail", err, map[string]any{"session_id": id})
		return fail(c, fiber.StatusInternalServerError, "could not add line", nil)
	}
	applog.Audit(c, "session.line.add", map[string]any{
		"session_id": id, "asset_id": req.AssetID, "offer_price": req.OfferPrice,
	})
	return c.Status(fiber.StatusCreated).JSON(line)
}

func (h *SessionHandler) RemoveLine(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid session id", nil)
	}
	lineID, ok := validate.ID(c.Params("lineId"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid line id", nil)
	}
	err := h.Sessions.RemoveLine(u.ID, id, lineID)
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return fail(c, fiber.StatusNotFound, "session not found", nil)
	case errors.Is(err, services.ErrAlreadyProcessed):
		return fail(c, fiber.StatusConflict, "session already checked out", nil)
	case err != nil:
		return fail(c, fiber.StatusNotFound, "line not found", nil)
	}
	return c.JSON(fiber.Map{"ok": true})
}
