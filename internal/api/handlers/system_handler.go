package handlers

import (
	"time"

	"dealflow/internal/dto"
	"dealflow/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type SystemHandler struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewSystemHandler(logger *zap.Logger) *SystemHandler {
	return &SystemHandler{
		logger: logger,
		now:    time.Now,
	}
}

// Health godoc
// @Summary Liveness probe
// @Tags system
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func (h *SystemHandler) Health(c *fiber.Ctx) error {
	return c.JSON(dto.HealthResponse{
		OK:   true,
		Time: h.now().UTC().Format(time.RFC3339),
	})
}

// InboundSMS godoc
// @Summary Inbound SMS callback
// @Tags webhooks
// @Accept x-www-form-urlencoded
// @Produce json
// @Success 200 {object} dto.OKResponse
// @Router /webhooks/sms [post]
func (h *SystemHandler) InboundSMS(c *fiber.Ctx) error {
	var req dto.SMSWebhookRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warn("Unreadable SMS webhook body", zap.Error(err))
	}

	h.logger.Info("Inbound SMS",
		zap.String("from", req.From),
		zap.String("to", req.To),
		zap.String("body", logger.TruncateForLog(req.Body, 200)),
	)
	return c.JSON(dto.OKResponse{OK: true})
}
