package service

import (
	"context"
	"time"

	"dealflow/internal/models"
	"dealflow/internal/repository"

	"github.com/google/uuid"
)

// The services depend on these narrow views of the repositories.

type DealStore interface {
	UpsertScored(ctx context.Context, deal *models.Deal, score repository.ScoreFunc) error
}

type BuyerStore interface {
	Create(ctx context.Context, buyer *models.Buyer) error
	ListActive(ctx context.Context) ([]*models.Buyer, error)
}

type SellerStore interface {
	Create(ctx context.Context, seller *models.Seller) error
}

type MatchStore interface {
	Upsert(ctx context.Context, m *models.Match) error
}

type NotificationStore interface {
	Enqueue(ctx context.Context, n *models.Notification) error
	ListQueued(ctx context.Context, limit int) ([]*models.Notification, error)
	MarkSent(ctx context.Context, id uuid.UUID, provider string, sentAt time.Time) error
	RecordFailure(ctx context.Context, id uuid.UUID, cause string) error
}

type AuditSink interface {
	Write(ctx context.Context, rec *models.AuditRecord) error
}

var (
	_ DealStore         = (*repository.DealRepository)(nil)
	_ BuyerStore        = (*repository.BuyerRepository)(nil)
	_ SellerStore       = (*repository.SellerRepository)(nil)
	_ MatchStore        = (*repository.MatchRepository)(nil)
	_ NotificationStore = (*repository.NotificationRepository)(nil)
	_ AuditSink         = (*repository.AuditRepository)(nil)
	_ AuditSink         = (*repository.MongoAuditRepository)(nil)
)
