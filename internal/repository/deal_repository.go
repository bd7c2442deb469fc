package repository

import (
	"context"
	"errors"
	"fmt"

	"dealflow/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ErrScoreWrite marks an UpsertScored failure that happened after the upsert.
var ErrScoreWrite = errors.New("write deal score")

type DealRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewDealRepository(db *pgxpool.Pool, logger *zap.Logger) *DealRepository {
	return &DealRepository{
		db:     db,
		logger: logger,
	}
}

// dealUpsertSuffix overwrites every mutable column in place when (source, source_uid)
// already exists. The score columns are written by the score update in the same transaction.
const dealUpsertSuffix = `ON CONFLICT (source, source_uid) DO UPDATE SET
	category = EXCLUDED.category,
	source_url = EXCLUDED.source_url,
	title = EXCLUDED.title,
	description = EXCLUDED.description,
	price = EXCLUDED.price,
	currency = EXCLUDED.currency,
	country = EXCLUDED.country,
	region = EXCLUDED.region,
	city = EXCLUDED.city,
	postal_code = EXCLUDED.postal_code,
	posted_at = EXCLUDED.posted_at,
	images = EXCLUDED.images,
	raw = EXCLUDED.raw,
	updated_at = NOW()
RETURNING id`

func buildDealUpsert(deal *models.Deal) (string, []any, error) {
	images, err := marshalList(deal.Images)
	if err != nil {
		return "", nil, err
	}
	raw, err := marshalObject(deal.Raw)
	if err != nil {
		return "", nil, err
	}

	return squirrel.Insert("deals").
		Columns("id", "category", "source", "source_url", "source_uid", "title", "description", "price", "currency",
			"country", "region", "city", "postal_code", "posted_at", "images", "raw").
		Values(deal.ID, string(deal.Category), deal.Source, deal.SourceURL, deal.SourceUID, deal.Title, deal.Description,
			deal.Price, deal.Currency, deal.Country, deal.Region, deal.City, deal.PostalCode, deal.PostedAt, images, raw).
		Suffix(dealUpsertSuffix).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
}

// ScoreFunc scores a deal whose ID is already set to the stored row's id.
type ScoreFunc func(ctx context.Context, deal *models.Deal) (score float64, reason string)

// UpsertScored stores the deal and its score in one transaction. deal.ID is set
// to the stored row's id, which is the existing id on conflict, before score
// runs. ErrScoreWrite wraps a failure after the upsert; the row is then left as
// it was before the call.
func (r *DealRepository) UpsertScored(ctx context.Context, deal *models.Deal, score ScoreFunc) error {
	if deal.ID == uuid.Nil {
		deal.ID = uuid.New()
	}

	sql, args, err := buildDealUpsert(deal)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin deal upsert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id uuid.UUID
	if err := tx.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return fmt.Errorf("upsert deal: %w", err)
	}
	deal.ID = id

	deal.AIScore, deal.AIReason = score(ctx, deal)

	sql, args, err = buildScoreUpdate(id, deal.AIScore, deal.AIReason)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrScoreWrite, err)
	}
	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrScoreWrite, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: deal %s not found", ErrScoreWrite, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrScoreWrite, err)
	}
	return nil
}

func buildScoreUpdate(id uuid.UUID, score float64, reason string) (string, []any, error) {
	return squirrel.Update("deals").
		Set("ai_score", score).
		Set("ai_reason", reason).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
}

func (r *DealRepository) Count(ctx context.Context) (int64, error) {
	return count(ctx, r.db, squirrel.Select("COUNT(*)").From("deals"))
}

// count runs a SELECT COUNT(*) builder.
func count(ctx context.Context, db *pgxpool.Pool, query squirrel.SelectBuilder) (int64, error) {
	sql, args, err := query.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return 0, err
	}

	var n int64
	if err := db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
