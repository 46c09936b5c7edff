package serverutils

import (
	"errors"

	"contactiq-be/pkg/pipeline"

	"github.com/gofiber/fiber/v2"
)

type apiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func SuccessResponse(ctx *fiber.Ctx, status int, data interface{}) error {
	return ctx.Status(status).JSON(apiResponse{
		Success: true,
		Data:    data,
	})
}

func ErrorResponse(ctx *fiber.Ctx, status int, message string) error {
	return ctx.Status(status).JSON(apiResponse{
		Success: false,
		Message: message,
	})
}

// ErrorHandlerMiddleware maps domain errors onto HTTP statuses. Permanent
// input errors become 400s; everything unexpected is a generic 500 so
// internal detail never reaches the caller.
func ErrorHandlerMiddleware(ctx *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return ErrorResponse(ctx, fiberErr.Code, fiberErr.Message)
	}

	switch {
	case errors.Is(err, pipeline.ErrEmptyQuery):
		return ErrorResponse(ctx, fiber.StatusBadRequest, "query text must not be empty")
	case errors.Is(err, pipeline.ErrInvalidMode):
		return ErrorResponse(ctx, fiber.StatusBadRequest, "mode must be 'customer' or 'banker'")
	default:
		return ErrorResponse(ctx, fiber.StatusInternalServerError, "internal server error")
	}
}
