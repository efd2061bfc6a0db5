package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into the JSON
// error envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		code, body := mapError(err)
		return ctx.Status(code).JSON(body)
	}
}

// ErrorHandler is the same mapping as a fiber.Config.ErrorHandler, for
// errors raised outside the middleware chain.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	code, body := mapError(err)
	return ctx.Status(code).JSON(body)
}

func mapError(err error) (int, Response) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, ErrorResponse(appErr.Code, appErr.Message)
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		resp := ErrorResponse(fiber.StatusBadRequest, verr.Error())
		resp.Data = verr.Fields
		return fiber.StatusBadRequest, resp
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, ErrorResponse(fiberErr.Code, fiberErr.Message)
	}

	return fiber.StatusInternalServerError, ErrorResponse(fiber.StatusInternalServerError, err.Error())
}
