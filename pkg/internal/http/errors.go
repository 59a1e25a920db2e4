package http

import (
	"errors"
	"fmt"

	"git.solsynth.dev/hypernet/conduit/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

type ErrorResponse struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// stackLocalKey holds the stack captured where a handler panicked.
const stackLocalKey = "panic_stack"

func IsProduction() bool {
	return viper.GetString("environment") == "production"
}

// notFoundHandler is reached only when no route took the request.
func notFoundHandler(c *fiber.Ctx) error {
	return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Not Found - %s", c.OriginalURL()))
}

// TranslateError is the only place mapping errors onto http status codes.
func TranslateError(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, services.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrConstraint),
		errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, gorm.ErrForeignKeyViolated):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	status := TranslateError(err)
	production := IsProduction()

	resp := ErrorResponse{Message: err.Error()}
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("An error occurred when handling request...")
		if production {
			resp.Message = "internal server error"
		}
	} else {
		log.Debug().Err(err).Int("status", status).Str("path", c.Path()).Msg("Request was rejected.")
	}
	if stack, ok := c.Locals(stackLocalKey).(string); ok && !production {
		resp.Stack = stack
	}

	return c.Status(status).JSON(resp)
}
