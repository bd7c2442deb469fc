package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dealflow/internal/mailer"
	"dealflow/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BuyerInput struct {
	Name       string
	Email      string
	Phone      string
	Countries  []string
	Regions    []string
	Categories []string
	BudgetMin  *float64
	BudgetMax  *float64
	Notes      string
}

type SellerInput struct {
	Name        string
	Email       string
	Phone       string
	Country     string
	Region      string
	City        string
	AssetType   string
	Price       *float64
	Currency    string
	Description string
	Images      []string
	SourceURL   string
}

// RegistryService stores buyer and seller self-registrations.
type RegistryService struct {
	buyers  BuyerStore
	sellers SellerStore
	logger  *zap.Logger
}

func NewRegistryService(buyers BuyerStore, sellers SellerStore, logger *zap.Logger) *RegistryService {
	return &RegistryService{
		buyers:  buyers,
		sellers: sellers,
		logger:  logger,
	}
}

func (s *RegistryService) RegisterBuyer(ctx context.Context, in BuyerInput) (*models.Buyer, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" {
		return nil, ErrMissingContact
	}
	if err := mailer.ValidAddress(email); err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidEmail, email, err)
	}

	categories := cleanList(in.Categories)
	for i, c := range categories {
		categories[i] = strings.ToLower(c)
	}

	buyer := &models.Buyer{
		ID:         uuid.New(),
		Name:       name,
		Email:      email,
		Phone:      strings.TrimSpace(in.Phone),
		Countries:  cleanList(in.Countries),
		Regions:    cleanList(in.Regions),
		Categories: categories,
		BudgetMin:  in.BudgetMin,
		BudgetMax:  in.BudgetMax,
		Notes:      sanitizeUTF8(strings.TrimSpace(in.Notes)),
		Status:     models.BuyerStatusActive,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.buyers.Create(ctx, buyer); err != nil {
		return nil, fmt.Errorf("failed to register buyer: %w", err)
	}

	s.logger.Info("Buyer registered", zap.String("buyer_id", buyer.ID.String()), zap.Strings("categories", buyer.Categories))
	return buyer, nil
}

func (s *RegistryService) RegisterSeller(ctx context.Context, in SellerInput) (*models.Seller, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" {
		return nil, ErrMissingContact
	}
	if err := mailer.ValidAddress(email); err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidEmail, email, err)
	}

	seller := &models.Seller{
		ID:          uuid.New(),
		Name:        name,
		Email:       email,
		Phone:       strings.TrimSpace(in.Phone),
		Country:     strings.TrimSpace(in.Country),
		Region:      strings.TrimSpace(in.Region),
		City:        strings.TrimSpace(in.City),
		AssetType:   strings.TrimSpace(in.AssetType),
		Price:       in.Price,
		Currency:    strings.ToUpper(strings.TrimSpace(in.Currency)),
		Description: sanitizeUTF8(strings.TrimSpace(in.Description)),
		Images:      cleanList(in.Images),
		SourceURL:   strings.TrimSpace(in.SourceURL),
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.sellers.Create(ctx, seller); err != nil {
		return nil, fmt.Errorf("failed to register seller: %w", err)
	}

	s.logger.Info("Seller registered", zap.String("seller_id", seller.ID.String()), zap.String("asset_type", seller.AssetType))
	return seller, nil
}

// cleanList trims entries and drops blanks; it never returns nil.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
