package handlers

import (
	"errors"

	applog "gradedesk/internal/log"
	"gradedesk/internal/services"
	"gradedesk/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type UndoHandler struct {
	Undo *services.UndoService
}

func (h *UndoHandler) UndoPurchase(c *fiber.Ctx) error {
	u := currentUser(c)
	assetID, ok := validate.ID(c.Params("assetId"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid asset id", nil)
	}

	result, err := h.Undo.UndoPurchase(u.ID, assetID)
	switch {
	case errors.Is(err, services.ErrNothingToUndo):
		return fail(c, fiber.StatusNotFound, "no matching purchase to undo", nil)
	case err != nil:
		applog.Error(c, "undo.fail", err, map[string]any{"asset_id": assetID})
		return fail(c, fiber.StatusInternalServerError, "undo failed, nothing was removed", nil)
	}

	applog.Audit(c, "undo.purchase", map[string]any{
		"asset_id": assetID,
		"holdings": result.HoldingsGone,
		"txns":     result.TxnsGone,
		"price":    result.PurchasePrice,
	})
	return c.JSON(result)
}
