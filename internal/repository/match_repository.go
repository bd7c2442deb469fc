package repository

import (
	"context"
	"fmt"

	"dealflow/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type MatchRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewMatchRepository(db *pgxpool.Pool, logger *zap.Logger) *MatchRepository {
	return &MatchRepository{
		db:     db,
		logger: logger,
	}
}

func buildMatchUpsert(m *models.Match) (string, []any, error) {
	breakdown, err := marshalObject(m.Breakdown)
	if err != nil {
		return "", nil, err
	}

	return squirrel.Insert("matches").
		Columns("id", "deal_id", "buyer_id", "match_score", "breakdown").
		Values(m.ID, m.DealID, m.BuyerID, m.MatchScore, breakdown).
		Suffix(`ON CONFLICT (deal_id, buyer_id) DO UPDATE SET
	match_score = EXCLUDED.match_score,
	breakdown = EXCLUDED.breakdown,
	updated_at = NOW()`).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
}

// Upsert replaces the stored score for an existing (deal, buyer) pair.
func (r *MatchRepository) Upsert(ctx context.Context, m *models.Match) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	sql, args, err := buildMatchUpsert(m)
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert match: %w", err)
	}
	return nil
}

func (r *MatchRepository) Count(ctx context.Context) (int64, error) {
	return count(ctx, r.db, squirrel.Select("COUNT(*)").From("matches"))
}
