package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/l33tdawg/cfp-directory-plugins/internal/dto"
	"github.com/l33tdawg/cfp-directory-plugins/internal/utils"
	"github.com/l33tdawg/cfp-directory-plugins/internal/webhook"
)

// WebhookHandler exposes webhook endpoint management and test delivery.
type WebhookHandler struct {
	registry  webhook.Registry
	validator webhook.URLValidator
	sender    *webhook.Sender
	logger    zerolog.Logger
}

func NewWebhookHandler(registry webhook.Registry, validator webhook.URLValidator, sender *webhook.Sender, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		registry:  registry,
		validator: validator,
		sender:    sender,
		logger:    logger.With().Str("component", "webhook_handler").Logger(),
	}
}

// Register wires webhook routes.
func (h *WebhookHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/test", h.test)
}

func (h *WebhookHandler) list(c *fiber.Ctx) error {
	endpoints, err := h.registry.List(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list webhook endpoints")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list webhook endpoints")
	}

	responses := make([]dto.WebhookEndpointResponse, 0, len(endpoints))
	for _, endpoint := range endpoints {
		responses = append(responses, dto.NewWebhookEndpointResponse(endpoint))
	}
	return utils.SendSuccess(c, "", responses)
}

func (h *WebhookHandler) create(c *fiber.Ctx) error {
	return h.save(c, "")
}

func (h *WebhookHandler) update(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid endpoint id")
	}
	return h.save(c, id)
}

func (h *WebhookHandler) save(c *fiber.Ctx, id string) error {
	var payload dto.WebhookEndpointRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := validate.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	// Validated here for fast feedback; validated again before every send.
	if err := h.validator.Validate(c.Context(), payload.URL); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "webhook url rejected", map[string]string{
			"reason": err.Error(),
		})
	}

	saved, err := h.registry.Save(c.Context(), webhook.Endpoint{
		ID:     id,
		URL:    payload.URL,
		Secret: payload.Secret,
		Events: payload.Events,
		Active: payload.Active,
	})
	if err != nil {
		if errors.Is(err, webhook.ErrEndpointNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "endpoint not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to save webhook endpoint")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to save webhook endpoint")
	}

	status := fiber.StatusOK
	if id == "" {
		status = fiber.StatusCreated
	}
	return utils.SendSuccessWithStatus(c, status, "webhook endpoint saved", dto.NewWebhookEndpointResponse(saved))
}

func (h *WebhookHandler) delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.registry.Delete(c.Context(), id); err != nil {
		if errors.Is(err, webhook.ErrEndpointNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "endpoint not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to delete webhook endpoint")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete webhook endpoint")
	}
	return utils.SendSuccess(c, "webhook endpoint deleted", nil)
}

func (h *WebhookHandler) test(c *fiber.Ctx) error {
	id := c.Params("id")
	endpoint, err := h.registry.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, webhook.ErrEndpointNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "endpoint not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load webhook endpoint")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load webhook endpoint")
	}

	if err := h.sender.Send(c.Context(), endpoint, "test.ping", map[string]string{"message": "test delivery"}); err != nil {
		return utils.Fail(c, fiber.StatusBadGateway, "test delivery failed", map[string]string{
			"reason": err.Error(),
		})
	}
	return utils.SendSuccess(c, "test delivery sent", nil)
}
