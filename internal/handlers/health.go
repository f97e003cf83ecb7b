package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/varlor/calculations/internal/models"
	"github.com/varlor/calculations/internal/utils"
)

// Health handles health check requests
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   h.version,
	})
}

// NotFound handles 404 errors
func (h *Handler) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
		Error:     "not_found",
		Details:   "route not found: " + c.Path(),
		Timestamp: utils.NowISOTimestamp(),
	})
}
