package handlers

import (
	"errors"

	applog "gradedesk/internal/log"
	"gradedesk/internal/services"
	"gradedesk/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type BulkHandler struct {
	Bulk    *services.BulkService
	Consign *services.ConsignService
}

type bulkUpdateRequest struct {
	AssetIDs []string `json:"assetIds"`
	services.BulkFields
}

func (h *BulkHandler) Update(c *fiber.Ctx) error {
	containerID, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid container id", nil)
	}
	var req bulkUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body", nil)
	}

	result, err := h.Bulk.BulkUpdate(containerID, req.AssetIDs, req.BulkFields)
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return fail(c, fiber.StatusBadRequest, verr.Msg, nil)
	case err != nil:
		applog.Error(c, "bulk.update.fail", err, map[string]any{"container_id": containerID})
		return fail(c, fiber.StatusInternalServerError, "bulk update failed", nil)
	}

	applog.Audit(c, "bulk.update", map[string]any{
		"container_id": containerID,
		"updated":      result.Updated,
		"total":        result.Total,
		"failed":       len(result.Errors),
	})
	return c.JSON(result)
}

type bulkDeleteRequest struct {
	AssetIDs []string `json:"assetIds"`
}

func (h *BulkHandler) Delete(c *fiber.Ctx) error {
	containerID, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid container id", nil)
	}
	var req bulkDeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body", nil)
	}

	result, err := h.Bulk.BulkDelete(containerID, req.AssetIDs)
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return fail(c, fiber.StatusBadRequest, verr.Msg, nil)
	case err != nil:
		applog.Error(c, "bulk.delete.fail", err, map[string]any{"container_id": containerID})
		return fail(c, fiber.StatusInternalServerError, "bulk delete failed", nil)
	}

	applog.Audit(c, "bulk.delete", map[string]any{
		"container_id": containerID,
		"deleted":      result.Deleted,
		"total":        result.Total,
		"failed":       len(result.Errors),
	})
	return c.JSON(result)
}

type addAssetsRequest struct {
	Assets  []services.AssetSpec   `json:"assets"`
	Pricing services.PricingParams `json:"pricing"`
}

func (h *BulkHandler) AddAssets(c *fiber.Ctx) error {
	containerID, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid container id", nil)
	}
	var req addAssetsRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body", nil)
	}
	if !validate.Percent(req.Pricing.SplitPercent) {
		return fail(c, fiber.StatusBadRequest, "splitPercent must be between 0 and 100", nil)
	}

	result, err := h.Consign.AddAssets(c.Context(), containerID, req.Assets, req.Pricing)
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return fail(c, fiber.StatusBadRequest, verr.Msg, nil)
	case err != nil:
		applog.Error(c, "consign.add.fail", err, map[string]any{"container_id": containerID})
		return fail(c, fiber.StatusInternalServerError, "could not add assets", nil)
	}

	applog.Audit(c, "consign.add", map[string]any{
		"container_id": containerID,
		"added":        len(result.Added),
		"price_groups": result.Groups,
	})
	return c.Status(fiber.StatusCreated).JSON(result)
}
