package handlers

import (
	"context"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-canvas/internal/api/dto"
	"github.com/spec-kit/ticket-canvas/internal/canvas"
	"github.com/spec-kit/ticket-canvas/internal/service"
)

// CanvasRenderer produces canvas views.
type CanvasRenderer interface {
	Initialize(ctx context.Context, cc service.CanvasContext) canvas.View
	Submit(ctx context.Context, sub service.Submission) canvas.View
}

// CanvasHandler serves the inbox app endpoints. Every answer is HTTP 200 with a
// renderable canvas; failures become the error view.
type CanvasHandler struct {
	canvas CanvasRenderer
	logger *zap.Logger
}

// NewCanvasHandler constructs handler.
func NewCanvasHandler(renderer CanvasRenderer, logger *zap.Logger) *CanvasHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CanvasHandler{canvas: renderer, logger: logger}
}

// Initialize POST /canvas/initialize.
func (h *CanvasHandler) Initialize(c *fiber.Ctx) error {
	return h.render(c, func(req dto.CanvasRequest) canvas.View {
		return h.canvas.Initialize(c.UserContext(), canvasContext(req))
	})
}

// Submit POST /canvas/submit.
func (h *CanvasHandler) Submit(c *fiber.Ctx) error {
	return h.render(c, func(req dto.CanvasRequest) canvas.View {
		return h.canvas.Submit(c.UserContext(), service.Submission{
			ActionID: req.ComponentID,
			Inputs:   req.Inputs(),
			Context:  canvasContext(req),
		})
	})
}

func (h *CanvasHandler) render(c *fiber.Ctx, fn func(dto.CanvasRequest) canvas.View) (err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("canvas handler panicked",
				zap.String("path", c.Path()),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			err = c.Status(fiber.StatusOK).JSON(canvas.ErrorView("", canvas.ActionRefresh).Response)
		}
	}()

	var req dto.CanvasRequest
	if len(c.Body()) > 0 {
		if perr := c.BodyParser(&req); perr != nil {
			h.logger.Warn("invalid canvas payload", zap.String("path", c.Path()), zap.Error(perr))
			return c.Status(fiber.StatusOK).JSON(canvas.ErrorView("The request could not be read.", canvas.ActionRefresh).Response)
		}
	}
	view := fn(req)
	return c.Status(fiber.StatusOK).JSON(view.Response)
}

func canvasContext(req dto.CanvasRequest) service.CanvasContext {
	return service.CanvasContext{
		ConversationID: req.ConversationID(),
		ContactEmail:   req.ContactEmail(),
		AdminID:        req.AdminID(),
	}
}
