package serverutils

import (
	"errors"

	"doc-chat-be/pkg/apperrors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts domain errors bubbling out of controllers
// into consistent HTTP responses.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		status := fiber.StatusInternalServerError
		switch {
		case errors.Is(err, apperrors.ErrUnsupportedFormat):
			status = fiber.StatusUnsupportedMediaType
		case errors.Is(err, apperrors.ErrRetrieval):
			status = fiber.StatusConflict
		case errors.Is(err, apperrors.ErrProviderUnavailable):
			status = fiber.StatusServiceUnavailable
		case errors.Is(err, apperrors.ErrChunking), errors.Is(err, apperrors.ErrConfiguration):
			status = fiber.StatusInternalServerError
		}

		return ctx.Status(status).JSON(ErrorResponse(err.Error()))
	}
}
