package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/varlor/calculations/internal/logging"
	"github.com/varlor/calculations/internal/models"
	"github.com/varlor/calculations/internal/utils"
)

// ErrorHandler returns a custom fiber error handler rendering the shared
// error envelope.
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			message = e.Message
		}

		logger.Error("Request error",
			"path", c.Path(),
			"method", c.Method(),
			"status", code,
			"error", err,
		)

		return c.Status(code).JSON(models.ErrorResponse{
			Error:     "internal_error",
			Details:   message,
			Timestamp: utils.NowISOTimestamp(),
		})
	}
}
