package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"dealflow/internal/models"

	"go.uber.org/zap"
)

func enqueueAll(t *testing.T, svc *NotificationService, recipients ...string) {
	t.Helper()
	for _, r := range recipients {
		if err := svc.Enqueue(context.Background(), &models.Notification{
			Kind:      models.NotificationKindBuyer,
			Recipient: r,
			Subject:   "subject " + r,
			Body:      "body",
		}); err != nil {
			t.Fatalf("enqueue %s: %v", r, err)
		}
	}
}

func TestDispatchWithoutTransport(t *testing.T) {
	store := newFakeNotifications()
	svc := NewNotificationService(store, nil, zap.NewNop())
	enqueueAll(t, svc, "a@example.org")

	outcome, err := svc.Dispatch(context.Background(), 50)
	if err != nil {
		t.Fatalf("dispatch without transport must not fail: %v", err)
	}
	if outcome != (DispatchOutcome{}) {
		t.Fatalf("expected zero outcome, got %+v", outcome)
	}
	if store.rows[0].Status != models.NotificationStatusQueued || store.rows[0].Attempts != 0 {
		t.Fatalf("row must be untouched: %+v", store.rows[0])
	}
}

func TestDispatchNeverResendsSentRows(t *testing.T) {
	store := newFakeNotifications()
	transport := newFakeTransport()
	svc := NewNotificationService(store, transport, zap.NewNop())
	enqueueAll(t, svc, "a@example.org", "b@example.org")

	first, err := svc.Dispatch(context.Background(), 50)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if first.Sent != 2 || first.Attempted != 2 {
		t.Fatalf("unexpected first outcome: %+v", first)
	}

	second, err := svc.Dispatch(context.Background(), 50)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if second != (DispatchOutcome{}) {
		t.Fatalf("sent rows must not be dispatched again, got %+v", second)
	}
	if len(transport.sent) != 2 {
		t.Fatalf("expected 2 messages on the wire, got %d", len(transport.sent))
	}
	for _, n := range store.rows {
		if n.Status != models.NotificationStatusSent || n.Provider != "fake" || n.SentAt == nil {
			t.Fatalf("row not marked sent: %+v", n)
		}
	}
}

func TestDispatchKeepsFailedRowsQueued(t *testing.T) {
	store := newFakeNotifications()
	transport := newFakeTransport()
	transport.failFor["bad@example.org"] = errors.New("mailbox unavailable")
	svc := NewNotificationService(store, transport, zap.NewNop())
	enqueueAll(t, svc, "a@example.org", "bad@example.org", "c@example.org")

	outcome, err := svc.Dispatch(context.Background(), 50)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if outcome != (DispatchOutcome{Attempted: 3, Sent: 2, Failed: 1}) {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if transport.opens != 1 || transport.closed != 1 {
		t.Fatalf("expected a single session reused for the batch, opens=%d closed=%d", transport.opens, transport.closed)
	}

	failed := store.rows[1]
	if failed.Status != models.NotificationStatusQueued || failed.Attempts != 1 || !strings.Contains(failed.LastError, "mailbox unavailable") {
		t.Fatalf("failed row must stay queued with the error noted: %+v", failed)
	}

	// Replay picks up only the failed row.
	delete(transport.failFor, "bad@example.org")
	replay, err := svc.Dispatch(context.Background(), 50)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if replay.Sent != 1 || transport.sent[len(transport.sent)-1].to != "bad@example.org" {
		t.Fatalf("unexpected replay: %+v", replay)
	}
}

func TestDispatchRespectsLimitAndOrder(t *testing.T) {
	store := newFakeNotifications()
	transport := newFakeTransport()
	svc := NewNotificationService(store, transport, zap.NewNop())
	enqueueAll(t, svc, "1@example.org", "2@example.org", "3@example.org")

	outcome, err := svc.Dispatch(context.Background(), 2)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if outcome.Sent != 2 {
		t.Fatalf("expected 2 sent, got %+v", outcome)
	}
	if transport.sent[0].to != "1@example.org" || transport.sent[1].to != "2@example.org" {
		t.Fatalf("expected oldest first, got %+v", transport.sent)
	}

	if outcome, _ := svc.Dispatch(context.Background(), 0); outcome != (DispatchOutcome{}) {
		t.Fatalf("zero limit must be a no-op, got %+v", outcome)
	}
}

func TestDispatchSessionAndListFailures(t *testing.T) {
	store := newFakeNotifications()
	transport := newFakeTransport()
	transport.openErr = errors.New("connection refused")
	svc := NewNotificationService(store, transport, zap.NewNop())
	enqueueAll(t, svc, "a@example.org")

	if _, err := svc.Dispatch(context.Background(), 10); err == nil {
		t.Fatalf("expected error when the session cannot be opened")
	}
	if store.rows[0].Status != models.NotificationStatusQueued {
		t.Fatalf("row must remain queued")
	}

	store.listErr = errStorage
	if _, err := svc.Dispatch(context.Background(), 10); !errors.Is(err, errStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestDispatchCountsSentWhenMarkFails(t *testing.T) {
	store := newFakeNotifications()
	transport := newFakeTransport()
	svc := NewNotificationService(store, transport, zap.NewNop())
	enqueueAll(t, svc, "a@example.org")
	store.markErr = errStorage

	outcome, err := svc.Dispatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if outcome.Sent != 1 || store.rows[0].Status != models.NotificationStatusQueued {
		t.Fatalf("delivered message stays queued when it cannot be marked: %+v", outcome)
	}
}

func TestNotificationBodies(t *testing.T) {
	price := 1200.0
	deal := &models.Deal{
		Category:  models.CategoryEquipment,
		Title:     "Forklift",
		Price:     &price,
		Currency:  "USD",
		City:      "Austin",
		Country:   "US",
		SourceURL: "https://example.org/f",
		AIScore:   0.72,
		AIReason:  "discount",
	}

	admin := adminNotification(deal, "ops@example.org")
	if admin.Kind != models.NotificationKindAdmin || !strings.Contains(admin.Subject, "0.72") {
		t.Fatalf("unexpected admin notification: %+v", admin)
	}
	if !strings.Contains(admin.Body, "Location: Austin, US") || !strings.Contains(admin.Body, "Reason: discount") {
		t.Fatalf("unexpected admin body: %s", admin.Body)
	}

	b := &models.Buyer{Name: "Dana", Email: "dana@example.org"}
	msg := buyerNotification(deal, b, 0.81)
	if msg.Recipient != b.Email || msg.BuyerID == nil || !strings.HasPrefix(msg.Body, "Hello Dana") {
		t.Fatalf("unexpected buyer notification: %+v", msg)
	}
	if !strings.Contains(msg.Body, "Match score: 0.81") {
		t.Fatalf("missing match score: %s", msg.Body)
	}
}
