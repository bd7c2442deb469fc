package handlers

import (
	"context"

	"dealflow/internal/dto"
	"dealflow/internal/models"
	"dealflow/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Registrar interface {
	RegisterBuyer(ctx context.Context, in service.BuyerInput) (*models.Buyer, error)
	RegisterSeller(ctx context.Context, in service.SellerInput) (*models.Seller, error)
}

type RegistryHandler struct {
	registryService Registrar
	logger          *zap.Logger
}

func NewRegistryHandler(registryService Registrar, logger *zap.Logger) *RegistryHandler {
	return &RegistryHandler{
		registryService: registryService,
		logger:          logger,
	}
}

// RegisterBuyer godoc
// @Summary Register a buyer
// @Tags registry
// @Accept json
// @Produce json
// @Param request body dto.BuyerRequest true "Buyer profile"
// @Success 200 {object} dto.BuyerResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /webhooks/buyer [post]
func (h *RegistryHandler) RegisterBuyer(c *fiber.Ctx) error {
	var req dto.BuyerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	buyer, err := h.registryService.RegisterBuyer(c.UserContext(), service.BuyerInput{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Countries:  req.Countries,
		Regions:    req.Regions,
		Categories: req.Categories,
		BudgetMin:  req.BudgetMin,
		BudgetMax:  req.BudgetMax,
		Notes:      req.Notes,
	})
	if err != nil {
		return h.registrationError(c, err, "Buyer registration failed")
	}

	return c.JSON(dto.BuyerResponse{OK: true, BuyerID: buyer.ID.String()})
}

// RegisterSeller godoc
// @Summary Register a seller listing
// @Tags registry
// @Accept json
// @Produce json
// @Param request body dto.SellerRequest true "Seller listing"
// @Success 200 {object} dto.SellerResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /webhooks/seller [post]
func (h *RegistryHandler) RegisterSeller(c *fiber.Ctx) error {
	var req dto.SellerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	seller, err := h.registryService.RegisterSeller(c.UserContext(), service.SellerInput{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Country:     req.Country,
		Region:      req.Region,
		City:        req.City,
		AssetType:   req.AssetType,
		Price:       req.Price,
		Currency:    req.Currency,
		Description: req.Description,
		Images:      req.Images,
		SourceURL:   req.SourceURL,
	})
	if err != nil {
		return h.registrationError(c, err, "Seller registration failed")
	}

	return c.JSON(dto.SellerResponse{OK: true, SellerID: seller.ID.String()})
}

func (h *RegistryHandler) registrationError(c *fiber.Ctx, err error, msg string) error {
	if service.IsValidation(err) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	h.logger.Error(msg, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": msg,
	})
}
