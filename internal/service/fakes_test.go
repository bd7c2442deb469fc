package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"dealflow/internal/events"
	"dealflow/internal/mailer"
	"dealflow/internal/models"
	"dealflow/internal/repository"
	"dealflow/internal/scoring"

	"github.com/google/uuid"
)

var errStorage = errors.New("storage unavailable")

type fakeDeals struct {
	mu        sync.Mutex
	rows      map[string]*models.Deal
	upsertErr error
	scoreErr  error
	upserts   int
}

func newFakeDeals() *fakeDeals {
	return &fakeDeals{rows: make(map[string]*models.Deal)}
}

// UpsertScored applies the upsert and the score together or not at all.
func (f *fakeDeals) UpsertScored(ctx context.Context, deal *models.Deal, score repository.ScoreFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.upsertErr != nil {
		return f.upsertErr
	}

	key := deal.Source + "|" + deal.SourceUID
	if existing, ok := f.rows[key]; ok {
		deal.ID = existing.ID
	}
	deal.AIScore, deal.AIReason = score(ctx, deal)
	if f.scoreErr != nil {
		return fmt.Errorf("%w: %v", repository.ErrScoreWrite, f.scoreErr)
	}

	cp := *deal
	f.rows[key] = &cp
	return nil
}

type fakeBuyers struct {
	list    []*models.Buyer
	listErr error
	created []*models.Buyer
}

func (f *fakeBuyers) Create(_ context.Context, b *models.Buyer) error {
	f.created = append(f.created, b)
	return nil
}

func (f *fakeBuyers) ListActive(context.Context) ([]*models.Buyer, error) {
	return f.list, f.listErr
}

type fakeSellers struct {
	created []*models.Seller
	err     error
}

func (f *fakeSellers) Create(_ context.Context, s *models.Seller) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, s)
	return nil
}

type fakeMatches struct {
	rows    map[[2]uuid.UUID]models.Match
	failFor map[uuid.UUID]error
}

func newFakeMatches() *fakeMatches {
	return &fakeMatches{rows: make(map[[2]uuid.UUID]models.Match), failFor: make(map[uuid.UUID]error)}
}

func (f *fakeMatches) Upsert(_ context.Context, m *models.Match) error {
	if err := f.failFor[m.BuyerID]; err != nil {
		return err
	}
	f.rows[[2]uuid.UUID{m.DealID, m.BuyerID}] = *m
	return nil
}

type fakeNotifications struct {
	mu         sync.Mutex
	rows       []*models.Notification
	enqueueErr map[string]error
	listErr    error
	markErr    error
}

func newFakeNotifications() *fakeNotifications {
	return &fakeNotifications{enqueueErr: make(map[string]error)}
}

func (f *fakeNotifications) Enqueue(_ context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enqueueErr[n.Recipient]; err != nil {
		return err
	}
	cp := *n
	cp.ID = uuid.New()
	cp.Status = models.NotificationStatusQueued
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeNotifications) ListQueued(_ context.Context, limit int) ([]*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.Notification
	for _, n := range f.rows {
		if n.Status != models.NotificationStatusQueued {
			continue
		}
		cp := *n
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeNotifications) MarkSent(_ context.Context, id uuid.UUID, provider string, sentAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	for _, n := range f.rows {
		if n.ID == id && n.Status == models.NotificationStatusQueued {
			n.Status = models.NotificationStatusSent
			n.Provider = provider
			n.SentAt = &sentAt
			n.Attempts++
		}
	}
	return nil
}

func (f *fakeNotifications) RecordFailure(_ context.Context, id uuid.UUID, cause string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.rows {
		if n.ID == id && n.Status == models.NotificationStatusQueued {
			n.Attempts++
			n.LastError = cause
		}
	}
	return nil
}

func (f *fakeNotifications) byKind(kind models.NotificationKind) []*models.Notification {
	var out []*models.Notification
	for _, n := range f.rows {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

type fakeAudit struct {
	records []*models.AuditRecord
	err     error
}

func (f *fakeAudit) Write(_ context.Context, rec *models.AuditRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

type fakePublisher struct {
	published []events.DealIngested
	err       error
}

func (f *fakePublisher) PublishDealIngested(_ context.Context, evt events.DealIngested) error {
	f.published = append(f.published, evt)
	return f.err
}

func (f *fakePublisher) Close() {}

type fakeScorer struct {
	result scoring.Result
	calls  int
}

func (f *fakeScorer) Score(context.Context, *models.Deal) scoring.Result {
	f.calls++
	return f.result
}

// fakeMatcher returns a fixed score per buyer email.
type fakeMatcher map[string]float64

func (f fakeMatcher) Match(_ *models.Deal, buyer *models.Buyer) (float64, models.MatchBreakdown) {
	return f[buyer.Email], models.MatchBreakdown{}
}

type sentMessage struct {
	to, subject string
}

type fakeTransport struct {
	mu      sync.Mutex
	opens   int
	openErr error
	failFor map[string]error
	sent    []sentMessage
	closed  int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{failFor: make(map[string]error)}
}

func (f *fakeTransport) Provider() string { return "fake" }

func (f *fakeTransport) Open(context.Context) (mailer.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opens++
	return &fakeSession{t: f}, nil
}

type fakeSession struct {
	t *fakeTransport
}

func (s *fakeSession) Send(_ context.Context, to, subject, _ string) error {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	if err := s.t.failFor[to]; err != nil {
		return err
	}
	s.t.sent = append(s.t.sent, sentMessage{to: to, subject: subject})
	return nil
}

func (s *fakeSession) Close() error {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	s.t.closed++
	return nil
}
