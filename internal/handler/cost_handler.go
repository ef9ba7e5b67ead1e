package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/l33tdawg/cfp-directory-plugins/internal/dto"
	"github.com/l33tdawg/cfp-directory-plugins/internal/service"
	"github.com/l33tdawg/cfp-directory-plugins/internal/utils"
)

// CostHandler exposes spend reporting and reset endpoints.
type CostHandler struct {
	costs    service.CostTracker
	settings service.SettingsService
	logger   zerolog.Logger
}

func NewCostHandler(costs service.CostTracker, settings service.SettingsService, logger zerolog.Logger) *CostHandler {
	return &CostHandler{
		costs:    costs,
		settings: settings,
		logger:   logger.With().Str("component", "cost_handler").Logger(),
	}
}

// Register wires cost routes.
func (h *CostHandler) Register(router fiber.Router) {
	router.Get("", h.stats)
	router.Post("/reset", h.reset)
}

func (h *CostHandler) stats(c *fiber.Ctx) error {
	stats, err := h.costs.Stats(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load cost stats")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load cost stats")
	}

	response := dto.CostStatsResponse{CostStats: stats}
	if settings, err := h.settings.Get(c.Context()); err == nil && settings.BudgetLimitUSD > 0 {
		response.BudgetLimitUSD = settings.BudgetLimitUSD
		response.BudgetUsed = stats.TotalCostUSD / settings.BudgetLimitUSD
	}

	return utils.SendSuccess(c, "", response)
}

func (h *CostHandler) reset(c *fiber.Ctx) error {
	if err := h.costs.Reset(c.Context()); err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to reset cost stats")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to reset cost stats")
	}
	return utils.SendSuccess(c, "cost stats reset", nil)
}
