package repository

import (
	"context"
	"fmt"

	"dealflow/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type BuyerRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewBuyerRepository(db *pgxpool.Pool, logger *zap.Logger) *BuyerRepository {
	return &BuyerRepository{
		db:     db,
		logger: logger,
	}
}

func (r *BuyerRepository) Create(ctx context.Context, buyer *models.Buyer) error {
	countries, err := marshalList(buyer.Countries)
	if err != nil {
		return err
	}
	regions, err := marshalList(buyer.Regions)
	if err != nil {
		return err
	}
	categories, err := marshalList(buyer.Categories)
	if err != nil {
		return err
	}

	query := squirrel.Insert("buyers").
		Columns("id", "name", "email", "phone", "countries", "regions", "categories", "budget_min", "budget_max", "notes", "status", "created_at").
		Values(buyer.ID, buyer.Name, buyer.Email, buyer.Phone, countries, regions, categories, buyer.BudgetMin, buyer.BudgetMax, buyer.Notes, string(buyer.Status), buyer.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert buyer: %w", err)
	}
	return nil
}

// ListActive returns every active buyer, oldest first.
func (r *BuyerRepository) ListActive(ctx context.Context) ([]*models.Buyer, error) {
	query := squirrel.Select("id", "name", "email", "phone", "countries", "regions", "categories", "budget_min", "budget_max", "notes", "status", "created_at").
		From("buyers").
		Where(squirrel.Eq{"status": string(models.BuyerStatusActive)}).
		OrderBy("created_at ASC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list active buyers: %w", err)
	}
	defer rows.Close()

	var buyers []*models.Buyer
	for rows.Next() {
		var (
			b                              models.Buyer
			status                         string
			countries, regions, categories []byte
		)
		if err := rows.Scan(
			&b.ID, &b.Name, &b.Email, &b.Phone, &countries, &regions, &categories, &b.BudgetMin, &b.BudgetMax, &b.Notes, &status, &b.CreatedAt,
		); err != nil {
			return nil, err
		}
		b.Status = models.BuyerStatus(status)
		b.Countries = unmarshalList(countries)
		b.Regions = unmarshalList(regions)
		b.Categories = unmarshalList(categories)
		buyers = append(buyers, &b)
	}

	return buyers, rows.Err()
}

func (r *BuyerRepository) Count(ctx context.Context) (int64, error) {
	return count(ctx, r.db, squirrel.Select("COUNT(*)").From("buyers"))
}

func (r *BuyerRepository) CountActive(ctx context.Context) (int64, error) {
	return count(ctx, r.db, squirrel.Select("COUNT(*)").From("buyers").
		Where(squirrel.Eq{"status": string(models.BuyerStatusActive)}))
}
