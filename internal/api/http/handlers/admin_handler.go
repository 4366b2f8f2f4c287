package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-canvas/internal/api/dto"
	"github.com/spec-kit/ticket-canvas/internal/tracker"
	apperrors "github.com/spec-kit/ticket-canvas/pkg/util/errorutil"
)

// AdminHandler exposes tracked operations to operators.
type AdminHandler struct {
	tracker *tracker.Tracker
}

// NewAdminHandler constructs handler.
func NewAdminHandler(t *tracker.Tracker) *AdminHandler {
	return &AdminHandler{tracker: t}
}

// ListOperations GET /admin/operations.
func (h *AdminHandler) ListOperations(c *fiber.Ctx) error {
	records := h.tracker.Snapshot()
	items := make([]dto.OperationResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, dto.NewOperationResponse(rec))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetOperation GET /admin/operations/:identity.
func (h *AdminHandler) GetOperation(c *fiber.Ctx) error {
	identity, err := identityParam(c)
	if err != nil {
		return err
	}
	rec, ok := h.tracker.Get(identity)
	if !ok {
		return apperrors.NewNotFound("operation", map[string]any{"identity": tracker.Key(identity)})
	}
	return c.JSON(fiber.Map{"data": dto.NewOperationResponse(rec)})
}

// ClearOperation DELETE /admin/operations/:identity.
func (h *AdminHandler) ClearOperation(c *fiber.Ctx) error {
	identity, err := identityParam(c)
	if err != nil {
		return err
	}
	if !h.tracker.Clear(identity) {
		return apperrors.NewNotFound("operation", map[string]any{"identity": tracker.Key(identity)})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func identityParam(c *fiber.Ctx) (string, error) {
	identity, err := url.PathUnescape(c.Params("identity"))
	if err != nil || tracker.Key(identity) == "" {
		return "", apperrors.NewValidationError("identity required", nil)
	}
	return identity, nil
}
