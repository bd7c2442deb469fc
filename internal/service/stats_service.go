package service

import (
	"context"
	"fmt"

	"dealflow/internal/models"
)

type Stats struct {
	BuyersCount         int64 `json:"buyers_count"`
	ActiveBuyersCount   int64 `json:"active_buyers_count"`
	DealsCount          int64 `json:"deals_count"`
	MatchesCount        int64 `json:"matches_count"`
	QueuedNotifications int64 `json:"queued_notifications"`
	SentNotifications   int64 `json:"sent_notifications"`
}

type Counter interface {
	Count(ctx context.Context) (int64, error)
}

type BuyerCounter interface {
	Counter
	CountActive(ctx context.Context) (int64, error)
}

type NotificationCounter interface {
	CountByStatus(ctx context.Context, status models.NotificationStatus) (int64, error)
}

type StatsService struct {
	buyers        BuyerCounter
	deals         Counter
	matches       Counter
	notifications NotificationCounter
}

func NewStatsService(buyers BuyerCounter, deals, matches Counter, notifications NotificationCounter) *StatsService {
	return &StatsService{
		buyers:        buyers,
		deals:         deals,
		matches:       matches,
		notifications: notifications,
	}
}

func (s *StatsService) Collect(ctx context.Context) (*Stats, error) {
	var (
		st  Stats
		err error
	)

	if st.BuyersCount, err = s.buyers.Count(ctx); err != nil {
		return nil, fmt.Errorf("count buyers: %w", err)
	}
	if st.ActiveBuyersCount, err = s.buyers.CountActive(ctx); err != nil {
		return nil, fmt.Errorf("count active buyers: %w", err)
	}
	if st.DealsCount, err = s.deals.Count(ctx); err != nil {
		return nil, fmt.Errorf("count deals: %w", err)
	}
	if st.MatchesCount, err = s.matches.Count(ctx); err != nil {
		return nil, fmt.Errorf("count matches: %w", err)
	}
	if st.QueuedNotifications, err = s.notifications.CountByStatus(ctx, models.NotificationStatusQueued); err != nil {
		return nil, fmt.Errorf("count queued notifications: %w", err)
	}
	if st.SentNotifications, err = s.notifications.CountByStatus(ctx, models.NotificationStatusSent); err != nil {
		return nil, fmt.Errorf("count sent notifications: %w", err)
	}

	return &st, nil
}
