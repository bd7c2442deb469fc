package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dealflow/internal/mailer"
	"dealflow/internal/metrics"
	"dealflow/internal/models"
	"dealflow/pkg/logger"

	"go.uber.org/zap"
)

// DispatchOutcome summarises one dispatch batch.
type DispatchOutcome struct {
	Attempted int `json:"attempted"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
}

// NotificationService owns the outbound queue and drains it through a transport.
type NotificationService struct {
	store     NotificationStore
	transport mailer.Transport
	logger    *zap.Logger
	now       func() time.Time
}

// NewNotificationService accepts a nil transport; Dispatch then sends nothing.
func NewNotificationService(store NotificationStore, transport mailer.Transport, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		store:     store,
		transport: transport,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *NotificationService) Enqueue(ctx context.Context, n *models.Notification) error {
	if err := s.store.Enqueue(ctx, n); err != nil {
		return err
	}
	metrics.NotificationsEnqueued.WithLabelValues(string(n.Kind)).Inc()
	return nil
}

// Dispatch sends up to limit queued notifications, oldest first, over a single
// transport session. A message whose send fails stays queued.
func (s *NotificationService) Dispatch(ctx context.Context, limit int) (DispatchOutcome, error) {
	var outcome DispatchOutcome
	if s.transport == nil || limit <= 0 {
		return outcome, nil
	}

	queued, err := s.store.ListQueued(ctx, limit)
	if err != nil {
		return outcome, fmt.Errorf("list queued notifications: %w", err)
	}
	if len(queued) == 0 {
		return outcome, nil
	}

	session, err := s.transport.Open(ctx)
	if err != nil {
		return outcome, fmt.Errorf("open %s session: %w", s.transport.Provider(), err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			s.logger.Warn("Failed to close transport session", zap.Error(cerr))
		}
	}()

	provider := s.transport.Provider()
	for _, n := range queued {
		outcome.Attempted++

		if err := session.Send(ctx, n.Recipient, n.Subject, n.Body); err != nil {
			outcome.Failed++
			metrics.NotificationsDispatched.WithLabelValues("failed").Inc()
			s.logger.Warn("Failed to send notification",
				zap.String("notification_id", n.ID.String()),
				zap.String("recipient", n.Recipient),
				zap.Error(err),
			)
			if rerr := s.store.RecordFailure(ctx, n.ID, logger.TruncateForLog(err.Error(), 500)); rerr != nil {
				s.logger.Error("Failed to record send failure", zap.String("notification_id", n.ID.String()), zap.Error(rerr))
			}
			continue
		}

		outcome.Sent++
		metrics.NotificationsDispatched.WithLabelValues("sent").Inc()
		if err := s.store.MarkSent(ctx, n.ID, provider, s.now()); err != nil {
			// Delivered but still queued: the next batch will send it again.
			s.logger.Error("Failed to mark notification sent", zap.String("notification_id", n.ID.String()), zap.Error(err))
		}
	}

	s.logger.Info("Dispatch batch finished",
		zap.Int("attempted", outcome.Attempted),
		zap.Int("sent", outcome.Sent),
		zap.Int("failed", outcome.Failed),
	)
	return outcome, nil
}

func adminNotification(deal *models.Deal, adminEmail string) *models.Notification {
	dealID := deal.ID
	return &models.Notification{
		Kind:      models.NotificationKindAdmin,
		Recipient: adminEmail,
		Subject:   fmt.Sprintf("New %s deal: %s (score %.2f)", deal.Category, dealTitle(deal), deal.AIScore),
		Body:      dealSummary(deal, fmt.Sprintf("AI score: %.2f\nReason: %s", deal.AIScore, deal.AIReason)),
		DealID:    &dealID,
	}
}

func buyerNotification(deal *models.Deal, buyer *models.Buyer, matchScore float64) *models.Notification {
	dealID := deal.ID
	buyerID := buyer.ID
	greeting := "Hello"
	if name := strings.TrimSpace(buyer.Name); name != "" {
		greeting = "Hello " + name
	}
	return &models.Notification{
		Kind:      models.NotificationKindBuyer,
		Recipient: buyer.Email,
		Subject:   fmt.Sprintf("Deal match: %s", dealTitle(deal)),
		Body: greeting + ",\n\nA new deal matches your profile.\n\n" +
			dealSummary(deal, fmt.Sprintf("Match score: %.2f", matchScore)),
		DealID:  &dealID,
		BuyerID: &buyerID,
	}
}

func dealTitle(deal *models.Deal) string {
	if t := strings.TrimSpace(deal.Title); t != "" {
		return logger.TruncateForLog(t, 80)
	}
	return "untitled"
}

func dealSummary(deal *models.Deal, footer string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", dealTitle(deal))
	fmt.Fprintf(&b, "Category: %s\n", deal.Category)
	if deal.Price != nil {
		fmt.Fprintf(&b, "Price: %.2f %s\n", *deal.Price, deal.Currency)
	}
	if loc := joinLocation(deal); loc != "" {
		fmt.Fprintf(&b, "Location: %s\n", loc)
	}
	if deal.SourceURL != "" {
		fmt.Fprintf(&b, "Link: %s\n", deal.SourceURL)
	}
	b.WriteString(footer)
	b.WriteString("\n")
	return b.String()
}

func joinLocation(deal *models.Deal) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{deal.City, deal.Region, deal.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
