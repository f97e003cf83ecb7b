package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gopkg.in/yaml.v3"

	"github.com/varlor/calculations/internal/models"
	"github.com/varlor/calculations/internal/services"
	"github.com/varlor/calculations/internal/utils"
)

// Preprocess handles one analysis request: it negotiates the body and
// response formats, delegates to the analysis service and renders either
// the success payload or the error envelope.
func (h *Handler) Preprocess(c *fiber.Ctx) error {
	responseFormat := services.ResponseFormatFromAccept(c.Get(fiber.HeaderAccept))

	contentType := c.Get(fiber.HeaderContentType)
	if contentType == "" {
		return h.renderError(c, responseFormat, fiber.StatusBadRequest,
			"invalid_request", "the Content-Type header is required")
	}

	bodyFormat, err := services.DetectFormat(services.NormalizeMime(contentType))
	if err != nil {
		return h.renderError(c, responseFormat, fiber.StatusUnprocessableEntity,
			"unprocessable_entity", err.Error())
	}

	body := c.Body()
	if len(body) == 0 {
		return h.renderError(c, responseFormat, fiber.StatusBadRequest,
			"invalid_request", "the request body is empty")
	}

	response, err := h.analysisService.Run(body, bodyFormat)
	if err != nil {
		status, code := statusForError(err)
		return h.renderError(c, responseFormat, status, code, err.Error())
	}

	return h.render(c, responseFormat, fiber.StatusOK, response)
}

func statusForError(err error) (int, string) {
	switch services.KindOf(err) {
	case services.KindBadRequest:
		return fiber.StatusBadRequest, "invalid_request"
	case services.KindValidation:
		return fiber.StatusUnprocessableEntity, "unprocessable_entity"
	default:
		return fiber.StatusInternalServerError, "internal_error"
	}
}

func (h *Handler) renderError(c *fiber.Ctx, format services.BodyFormat, status int, code, details string) error {
	return h.render(c, format, status, models.ErrorResponse{
		Error:     code,
		Details:   details,
		Timestamp: utils.NowISOTimestamp(),
	})
}

// render serializes payload in the negotiated response format
func (h *Handler) render(c *fiber.Ctx, format services.BodyFormat, status int, payload interface{}) error {
	if format == services.FormatYAML {
		serialized, err := yaml.Marshal(payload)
		if err != nil {
			h.logger.Error("Failed to encode YAML response", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
				Error:     "internal_error",
				Details:   "failed to encode the response",
				Timestamp: utils.NowISOTimestamp(),
			})
		}
		c.Set(fiber.HeaderContentType, services.MimeYAML)
		return c.Status(status).Send(serialized)
	}
	return c.Status(status).JSON(payload)
}
