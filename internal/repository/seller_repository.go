package repository

import (
	"context"
	"fmt"

	"dealflow/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type SellerRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewSellerRepository(db *pgxpool.Pool, logger *zap.Logger) *SellerRepository {
	return &SellerRepository{
		db:     db,
		logger: logger,
	}
}

func (r *SellerRepository) Create(ctx context.Context, seller *models.Seller) error {
	images, err := marshalList(seller.Images)
	if err != nil {
		return err
	}

	query := squirrel.Insert("sellers").
		Columns("id", "name", "email", "phone", "country", "region", "city", "asset_type", "price", "currency", "description", "images", "source_url", "created_at").
		Values(seller.ID, seller.Name, seller.Email, seller.Phone, seller.Country, seller.Region, seller.City, seller.AssetType,
			seller.Price, seller.Currency, seller.Description, images, seller.SourceURL, seller.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert seller: %w", err)
	}
	return nil
}
