package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dealflow/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// AuditRepository writes audit records to the audit_log table.
type AuditRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAuditRepository(db *pgxpool.Pool, logger *zap.Logger) *AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

func (r *AuditRepository) Write(ctx context.Context, rec *models.AuditRecord) error {
	prepareAudit(rec)

	matched, err := json.Marshal(rec.Matched)
	if err != nil {
		return fmt.Errorf("marshal audit matches: %w", err)
	}

	query := squirrel.Insert("audit_log").
		Columns("id", "event", "deal_id", "ai_score", "ai_reason", "matched", "created_at").
		Values(rec.ID, rec.Event, rec.DealID, rec.AIScore, rec.AIReason, matched, rec.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

func prepareAudit(rec *models.AuditRecord) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Matched == nil {
		rec.Matched = []models.AuditMatch{}
	}
}
