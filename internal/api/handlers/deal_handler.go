package handlers

import (
	"context"
	"errors"

	"dealflow/internal/dto"
	"dealflow/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type DealIngester interface {
	Ingest(ctx context.Context, req service.IngestRequest) (*service.IngestResult, error)
}

type DealHandler struct {
	ingestService DealIngester
	logger        *zap.Logger
}

func NewDealHandler(ingestService DealIngester, logger *zap.Logger) *DealHandler {
	return &DealHandler{
		ingestService: ingestService,
		logger:        logger,
	}
}

// Ingest godoc
// @Summary Ingest a deal listing
// @Description Upserts the deal, scores it, matches it against buyers and queues notifications
// @Tags deals
// @Accept json
// @Produce json
// @Param request body dto.DealIngestRequest true "Deal listing"
// @Success 200 {object} dto.DealIngestResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /webhooks/deal-ingest [post]
func (h *DealHandler) Ingest(c *fiber.Ctx) error {
	var req dto.DealIngestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.ingestService.Ingest(c.UserContext(), service.IngestRequest{
		Category:    req.Category,
		Source:      req.Source,
		SourceURL:   req.SourceURL,
		SourceUID:   req.SourceUID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Currency:    req.Currency,
		Country:     req.Country,
		Region:      req.Region,
		City:        req.City,
		PostalCode:  req.PostalCode,
		PostedAt:    req.PostedAt,
		Images:      req.Images,
		Raw:         req.Raw,
	})
	if err != nil {
		if service.IsValidation(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		var upsertErr *service.UpsertError
		if errors.As(err, &upsertErr) {
			h.logger.Error("Deal upsert failed", zap.String("stage", upsertErr.Stage), zap.Error(upsertErr.Err))
		} else {
			h.logger.Error("Deal ingest failed", zap.Error(err))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "upsert failed",
		})
	}

	return c.JSON(dto.DealIngestResponse{
		OK:              true,
		DealID:          result.DealID.String(),
		AIScore:         result.AIScore,
		MatchedNotified: result.MatchedNotified,
		EmailsSentNow:   result.EmailsSentNow,
	})
}
