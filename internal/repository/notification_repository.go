package repository

import (
	"context"
	"fmt"
	"time"

	"dealflow/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type NotificationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewNotificationRepository(db *pgxpool.Pool, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Enqueue stores n with status queued.
func (r *NotificationRepository) Enqueue(ctx context.Context, n *models.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	n.Status = models.NotificationStatusQueued

	query := squirrel.Insert("notifications").
		Columns("id", "kind", "recipient", "subject", "body", "status", "deal_id", "buyer_id", "provider", "created_at").
		Values(n.ID, string(n.Kind), n.Recipient, n.Subject, n.Body, string(n.Status), n.DealID, n.BuyerID, n.Provider, n.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

// ListQueued returns up to limit queued notifications, oldest first.
func (r *NotificationRepository) ListQueued(ctx context.Context, limit int) ([]*models.Notification, error) {
	query := squirrel.Select("id", "kind", "recipient", "subject", "body", "status", "deal_id", "buyer_id", "provider", "attempts", "last_error", "created_at", "sent_at").
		From("notifications").
		Where(squirrel.Eq{"status": string(models.NotificationStatusQueued)}).
		OrderBy("created_at ASC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list queued notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		var (
			n            models.Notification
			kind, status string
		)
		if err := rows.Scan(
			&n.ID, &kind, &n.Recipient, &n.Subject, &n.Body, &status, &n.DealID, &n.BuyerID, &n.Provider, &n.Attempts, &n.LastError, &n.CreatedAt, &n.SentAt,
		); err != nil {
			return nil, err
		}
		n.Kind = models.NotificationKind(kind)
		n.Status = models.NotificationStatus(status)
		out = append(out, &n)
	}

	return out, rows.Err()
}

// MarkSent flips a queued row to sent. A row that is already sent is left untouched,
// which keeps the status transition one-way.
func (r *NotificationRepository) MarkSent(ctx context.Context, id uuid.UUID, provider string, sentAt time.Time) error {
	query := squirrel.Update("notifications").
		Set("status", string(models.NotificationStatusSent)).
		Set("provider", provider).
		Set("sent_at", sentAt).
		Set("attempts", squirrel.Expr("attempts + 1")).
		Set("last_error", "").
		Where(squirrel.Eq{"id": id, "status": string(models.NotificationStatusQueued)}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}
	return nil
}

// RecordFailure keeps the row queued and notes the failed attempt.
func (r *NotificationRepository) RecordFailure(ctx context.Context, id uuid.UUID, cause string) error {
	query := squirrel.Update("notifications").
		Set("attempts", squirrel.Expr("attempts + 1")).
		Set("last_error", cause).
		Where(squirrel.Eq{"id": id, "status": string(models.NotificationStatusQueued)}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("record notification failure: %w", err)
	}
	return nil
}

func (r *NotificationRepository) CountByStatus(ctx context.Context, status models.NotificationStatus) (int64, error) {
	return count(ctx, r.db, squirrel.Select("COUNT(*)").From("notifications").
		Where(squirrel.Eq{"status": string(status)}))
}
