package handlers

import (
	"context"

	"dealflow/internal/dto"
	"dealflow/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	defaultSendLimit = 50
	maxSendLimit     = 500
)

type Dispatcher interface {
	Dispatch(ctx context.Context, limit int) (service.DispatchOutcome, error)
}

type StatsCollector interface {
	Collect(ctx context.Context) (*service.Stats, error)
}

type AdminHandler struct {
	dispatcher Dispatcher
	stats      StatsCollector
	logger     *zap.Logger
}

func NewAdminHandler(dispatcher Dispatcher, stats StatsCollector, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		dispatcher: dispatcher,
		stats:      stats,
		logger:     logger,
	}
}

// SendQueued godoc
// @Summary Drain the notification queue
// @Description Sends up to limit queued notifications through the configured transport
// @Tags admin
// @Produce json
// @Security Bearer
// @Param limit query int false "Batch size (1..500, default 50)"
// @Success 200 {object} dto.SendQueuedResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /admin/send-queued [post]
func (h *AdminHandler) SendQueued(c *fiber.Ctx) error {
	limit := clampLimit(c.QueryInt("limit", defaultSendLimit))

	outcome, err := h.dispatcher.Dispatch(c.UserContext(), limit)
	if err != nil {
		h.logger.Error("Send queued failed", zap.Int("limit", limit), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "dispatch failed",
		})
	}

	return c.JSON(dto.SendQueuedResponse{
		OK:        true,
		Sent:      outcome.Sent,
		Attempted: outcome.Attempted,
		Failed:    outcome.Failed,
	})
}

// Stats godoc
// @Summary Registry and queue counters
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} service.Stats
// @Failure 401 {object} dto.ErrorResponse
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.stats.Collect(c.UserContext())
	if err != nil {
		h.logger.Error("Failed to collect stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "stats unavailable",
		})
	}
	return c.JSON(stats)
}

func clampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > maxSendLimit {
		return maxSendLimit
	}
	return limit
}
