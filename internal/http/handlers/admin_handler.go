package handlers

import (
	"strconv"

	applog "gradedesk/internal/log"
	"gradedesk/internal/repos"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler exposes read-only back-office views over the audit trail.
type AdminHandler struct {
	Txns         *repos.TxnRepo
	HoldingsRepo *repos.HoldingRepo
	Outbox       *repos.OutboxRepo
}

// GET /api/v1/purchases — the current user's recent purchase transactions.
func (h *AdminHandler) Purchases(c *fiber.Ctx) error {
	u := currentUser(c)
	limit, _ := strconv.Atoi(c.Query("limit", "100"))
	txns, err := h.Txns.ListByUser(u.ID, limit)
	if err != nil {
		applog.Error(c, "purchases.list.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "could not load purchases", nil)
	}
	return c.JSON(fiber.Map{"purchases": txns, "count": len(txns)})
}

// GET /api/v1/holdings — the current user's active holdings.
func (h *AdminHandler) Holdings(c *fiber.Ctx) error {
	u := currentUser(c)
	holdings, err := h.HoldingsRepo.ListByUser(u.ID)
	if err != nil {
		applog.Error(c, "holdings.list.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "could not load holdings", nil)
	}
	return c.JSON(fiber.Map{"holdings": holdings, "count": len(holdings)})
}

// GET /api/v1/admin/outbox — dispatcher backlog depth. Admin-only: it spans
// every user's side effects.
func (h *AdminHandler) OutboxBacklog(c *fiber.Ctx) error {
	n, err := h.Outbox.PendingCount()
	if err != nil {
		applog.Error(c, "outbox.backlog.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "could not read outbox", nil)
	}
	return c.JSON(fiber.Map{"pending": n})
}
