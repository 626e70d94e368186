package handlers

import (
	"errors"

	applog "gradedesk/internal/log"
	"gradedesk/internal/services"
	"gradedesk/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CheckoutHandler struct {
	Checkout *services.CheckoutService
}

// Finalize maps the checkout error taxonomy onto HTTP: state faults are
// 404/409, validation faults 400 with enough detail to self-correct, and
// anything that rolled the transaction back is a 500 carrying the
// correlation id.
func (h *CheckoutHandler) Finalize(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid session id", nil)
	}

	var req services.FinalizeRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body", nil)
	}
	method, ok := validate.PaymentMethod(req.PaymentMethod)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "paymentMethod must be one of cash, check, digital, trade", nil)
	}
	req.PaymentMethod = method
	if !validate.Amount(req.AmountPaid) {
		return fail(c, fiber.StatusBadRequest, "amountPaid must be >= 0", nil)
	}
	name, ok := validate.Name(req.BuyerName)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "buyerName must be 1-80 characters", nil)
	}
	req.BuyerName = name

	receipt, err := h.Checkout.Finalize(c.Context(), u.ID, id, req)
	var payErr *services.InsufficientPaymentError
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return fail(c, fiber.StatusNotFound, "session not found", nil)
	case errors.Is(err, services.ErrAlreadyProcessed):
		return fail(c, fiber.StatusConflict, "session already checked out", nil)
	case errors.Is(err, services.ErrEmptyCart):
		return fail(c, fiber.StatusBadRequest, "session cart is empty", nil)
	case errors.As(err, &payErr):
		return fail(c, fiber.StatusBadRequest, "insufficient payment", fiber.Map{
			"required": payErr.Required,
			"provided": payErr.Provided,
		})
	case errors.Is(err, services.ErrAssetNotFound):
		// Integrity fault: the transaction rolled back in full.
		applog.Error(c, "checkout.integrity", err, map[string]any{"session_id": id})
		return fail(c, fiber.StatusInternalServerError, "checkout failed, nothing was recorded", nil)
	case err != nil:
		applog.Error(c, "checkout.fail", err, map[string]any{"session_id": id})
		return fail(c, fiber.StatusInternalServerError, "checkout failed, nothing was recorded", nil)
	}

	applog.Audit(c, "checkout.finalize", map[string]any{
		"session_id": id,
		"seq":        receipt.SeqNumber,
		"total":      receipt.Total,
		"holdings":   receipt.HoldingsCreated,
	})
	return c.Status(fiber.StatusCreated).JSON(receipt)
}
