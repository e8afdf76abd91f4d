package serverutils

import (
	"errors"

	"chartnotes-be/pkg/rag/synthesis"
	"chartnotes-be/pkg/vectorstore"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts errors escaping a handler into the
// standard response envelope. Budget overruns map to 413 and unknown
// patient namespaces to 404; everything else is a 500.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status := fiber.StatusInternalServerError
		message := err.Error()

		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
		case errors.Is(err, synthesis.ErrBudgetExceeded):
			status = fiber.StatusRequestEntityTooLarge
		case errors.Is(err, vectorstore.ErrNamespaceNotFound):
			status = fiber.StatusNotFound
		}

		return ctx.Status(status).JSON(ErrorResponse(status, message))
	}
}
