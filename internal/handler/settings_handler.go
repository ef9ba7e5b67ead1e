package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/l33tdawg/cfp-directory-plugins/internal/dto"
	"github.com/l33tdawg/cfp-directory-plugins/internal/service"
	"github.com/l33tdawg/cfp-directory-plugins/internal/utils"
)

// SettingsHandler exposes the review settings admin endpoints.
type SettingsHandler struct {
	settings service.SettingsService
	logger   zerolog.Logger
}

func NewSettingsHandler(settings service.SettingsService, logger zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{
		settings: settings,
		logger:   logger.With().Str("component", "settings_handler").Logger(),
	}
}

// Register wires settings routes.
func (h *SettingsHandler) Register(router fiber.Router) {
	router.Get("", h.get)
	router.Put("", h.update)
	router.Delete("/api-key", h.deleteAPIKey)
}

func (h *SettingsHandler) get(c *fiber.Ctx) error {
	settings, err := h.settings.Get(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load settings")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load settings")
	}

	hasKey, err := h.settings.HasAPIKey(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to check api key")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load settings")
	}

	return utils.SendSuccess(c, "", dto.SettingsResponse{
		ReviewSettings: settings,
		HasAPIKey:      hasKey,
	})
}

func (h *SettingsHandler) update(c *fiber.Ctx) error {
	var payload dto.UpdateSettingsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := validate.Struct(payload.ReviewSettings); err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid settings")
		}
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to save settings")
	}

	if err := h.settings.Save(c.Context(), payload.ReviewSettings); err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to save settings")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to save settings")
	}

	// The key is write-only: it is stored when provided and otherwise left
	// alone, and the response never carries it back.
	if payload.APIKey != "" {
		if err := h.settings.SetAPIKey(c.Context(), payload.APIKey); err != nil {
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to store api key")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to save settings")
		}
	}

	hasKey, err := h.settings.HasAPIKey(c.Context())
	if err != nil {
		hasKey = payload.APIKey != ""
	}

	return utils.SendSuccess(c, "settings saved", dto.SettingsResponse{
		ReviewSettings: payload.ReviewSettings,
		HasAPIKey:      hasKey,
	})
}

func (h *SettingsHandler) deleteAPIKey(c *fiber.Ctx) error {
	if err := h.settings.DeleteAPIKey(c.Context()); err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to delete api key")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete api key")
	}
	return utils.SendSuccess(c, "api key removed", nil)
}
