package repository

import (
	"context"
	"fmt"

	"dealflow/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// SourceRepository reads the feed sources configured in deal_sources.
type SourceRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewSourceRepository(db *pgxpool.Pool, logger *zap.Logger) *SourceRepository {
	return &SourceRepository{
		db:     db,
		logger: logger,
	}
}

func (r *SourceRepository) ListEnabled(ctx context.Context) ([]models.DealSource, error) {
	query := squirrel.Select("source", "category", "url", "country", "region").
		From("deal_sources").
		Where(squirrel.Eq{"enabled": true}).
		OrderBy("id ASC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list deal sources: %w", err)
	}
	defer rows.Close()

	var sources []models.DealSource
	for rows.Next() {
		var s models.DealSource
		if err := rows.Scan(&s.Source, &s.Category, &s.URL, &s.Country, &s.Region); err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}

	return sources, rows.Err()
}

// Create inserts s unless a source with the same url exists. It reports whether
// a row was written.
func (r *SourceRepository) Create(ctx context.Context, s models.DealSource) (bool, error) {
	query := squirrel.Insert("deal_sources").
		Columns("source", "category", "url", "country", "region").
		Values(s.Source, s.Category, s.URL, s.Country, s.Region).
		Suffix("ON CONFLICT (url) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return false, err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("create deal source: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
