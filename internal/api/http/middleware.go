package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-canvas/internal/observability"
	apperrors "github.com/spec-kit/ticket-canvas/pkg/util/errorutil"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Body-Signature"

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// errorHandlingMiddleware turns returned errors and panics into the JSON error
// envelope. Canvas handlers never return errors, so only the signature check, the
// admin and health routes and routing failures reach it.
func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.String("path", c.Path()),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err == nil {
				return
			}
			writeError(c, logger, metrics, toDomainError(err))
			err = nil
		}()
		return c.Next()
	}
}

func writeError(c *fiber.Ctx, logger *zap.Logger, metrics *observability.Metrics, domainErr *apperrors.DomainError) {
	metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
	fields := []zap.Field{
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.String("code", domainErr.Code),
	}
	if domainErr.HTTPStatus >= 500 {
		logger.Error("request failed", append(fields, zap.Error(domainErr))...)
	} else {
		logger.Debug("request rejected", append(fields, zap.String("reason", domainErr.Message))...)
	}
	_ = c.Status(domainErr.HTTPStatus).JSON(errorEnvelope{Error: errorBody{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Details: domainErr.Details,
	}})
}

// toDomainError also maps fiber's routing errors (404, 405) to their own status.
func toDomainError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		switch fiberErr.Code {
		case fiber.StatusNotFound:
			return apperrors.ToDomainError(apperrors.NewNotFound("route", nil))
		case fiber.StatusUnauthorized:
			return apperrors.ToDomainError(apperrors.NewUnauthorized(fiberErr.Message))
		case fiber.StatusForbidden:
			return apperrors.ToDomainError(apperrors.NewForbidden(fiberErr.Message))
		}
		if fiberErr.Code < 500 {
			return apperrors.NewDomainError(apperrors.CodeValidation, fiberErr.Message, fiberErr.Code, nil)
		}
	}
	return apperrors.ToDomainError(err)
}

// canvasSignatureMiddleware rejects bodies whose signature does not match secret.
// An empty secret disables verification.
func canvasSignatureMiddleware(secret string, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}
		got, err := hex.DecodeString(strings.TrimSpace(c.Get(SignatureHeader)))
		if err != nil || len(got) == 0 {
			logger.Warn("canvas request without valid signature", zap.String("path", c.Path()))
			return apperrors.NewUnauthorized("missing or malformed body signature")
		}
		if !hmac.Equal(got, SignBody(secret, c.Body())) {
			logger.Warn("canvas signature mismatch", zap.String("path", c.Path()))
			return apperrors.NewUnauthorized("body signature mismatch")
		}
		return c.Next()
	}
}

// SignBody computes the HMAC-SHA256 of body.
func SignBody(secret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}
