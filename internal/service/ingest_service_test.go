package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"dealflow/internal/mailer"
	"dealflow/internal/matching"
	"dealflow/internal/models"
	"dealflow/internal/repository"
	"dealflow/internal/scoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type ingestHarness struct {
	deals         *fakeDeals
	buyers        *fakeBuyers
	matches       *fakeMatches
	notifications *fakeNotifications
	audit         *fakeAudit
	publisher     *fakePublisher
	scorer        *fakeScorer
	transport     *fakeTransport
	logs          *observer.ObservedLogs
	svc           *IngestService
}

type harnessOption func(*ingestHarness)

func withTransport() harnessOption {
	return func(h *ingestHarness) { h.transport = newFakeTransport() }
}

func newIngestHarness(aiScore float64, matcher Matcher, buyers []*models.Buyer, opts ...harnessOption) *ingestHarness {
	core, logs := observer.New(zapcore.DebugLevel)
	h := &ingestHarness{
		deals:         newFakeDeals(),
		buyers:        &fakeBuyers{list: buyers},
		matches:       newFakeMatches(),
		notifications: newFakeNotifications(),
		audit:         &fakeAudit{},
		publisher:     &fakePublisher{},
		scorer:        &fakeScorer{result: scoring.Result{Score: aiScore, Reason: "stub", Strategy: "stub"}},
		logs:          logs,
	}
	for _, opt := range opts {
		opt(h)
	}

	var transport mailer.Transport
	if h.transport != nil {
		transport = h.transport
	}

	log := zap.New(core)
	h.svc = NewIngestService(
		h.deals,
		h.buyers,
		h.matches,
		h.scorer,
		matcher,
		nil,
		NewNotificationService(h.notifications, transport, log),
		h.audit,
		h.publisher,
		IngestSettings{Threshold: 0.65, AdminEmail: "ops@example.org", DispatchLimit: 20},
		log,
	)
	return h
}

func buyer(email string) *models.Buyer {
	return &models.Buyer{ID: uuid.New(), Name: email, Email: email, Status: models.BuyerStatusActive}
}

func TestIngestRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		req  IngestRequest
		want error
	}{
		{name: "unknown category", req: IngestRequest{Category: "boats", SourceUID: "x"}, want: ErrInvalidCategory},
		{name: "empty category", req: IngestRequest{SourceUID: "x"}, want: ErrInvalidCategory},
		{name: "no uid and no url", req: IngestRequest{Category: "car"}, want: ErrMissingSourceKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newIngestHarness(0.9, fakeMatcher{}, nil)
			_, err := h.svc.Ingest(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !IsValidation(err) {
				t.Fatalf("expected validation error")
			}
			if h.deals.upserts != 0 || h.scorer.calls != 0 {
				t.Fatalf("validation failure must not touch storage or scoring")
			}
		})
	}
}

func TestIngestIsIdempotentOnSourceKey(t *testing.T) {
	h := newIngestHarness(0.4, fakeMatcher{}, nil)
	ctx := context.Background()

	first, err := h.svc.Ingest(ctx, IngestRequest{Category: "car", Source: "rss", SourceUID: "abc", Title: "Old title"})
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	second, err := h.svc.Ingest(ctx, IngestRequest{Category: "CAR", Source: "rss", SourceUID: "abc", Title: "New title"})
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}

	if first.DealID != second.DealID {
		t.Fatalf("expected the same deal id, got %s and %s", first.DealID, second.DealID)
	}
	if len(h.deals.rows) != 1 {
		t.Fatalf("expected one stored deal, got %d", len(h.deals.rows))
	}
	if got := h.deals.rows["rss|abc"].Title; got != "New title" {
		t.Fatalf("expected fields overwritten in place, got title %q", got)
	}
}

func TestIngestDerivesUIDFromURL(t *testing.T) {
	h := newIngestHarness(0.4, fakeMatcher{}, nil)
	ctx := context.Background()

	req := IngestRequest{Category: "equipment", SourceURL: "https://example.org/listing/42"}
	first, err := h.svc.Ingest(ctx, req)
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	second, err := h.svc.Ingest(ctx, req)
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}

	if first.DealID != second.DealID {
		t.Fatalf("re-ingesting the same url must collide")
	}
	key := models.DefaultSource + "|" + DeriveSourceUID(req.SourceURL)
	if _, ok := h.deals.rows[key]; !ok {
		t.Fatalf("expected deal stored under %s", key)
	}
}

func TestIngestNotificationGating(t *testing.T) {
	tests := []struct {
		name       string
		aiScore    float64
		matchScore float64
		notified   bool
	}{
		{name: "both clear threshold", aiScore: 0.9, matchScore: 0.88, notified: true},
		{name: "exactly at threshold", aiScore: 0.65, matchScore: 0.65, notified: true},
		{name: "match below threshold", aiScore: 1.0, matchScore: 0.50, notified: false},
		{name: "deal below threshold", aiScore: 0.5, matchScore: 0.95, notified: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := buyer("buyer@example.org")
			h := newIngestHarness(tt.aiScore, fakeMatcher{b.Email: tt.matchScore}, []*models.Buyer{b})

			res, err := h.svc.Ingest(context.Background(), IngestRequest{Category: "wholesale", SourceUID: "u1"})
			if err != nil {
				t.Fatalf("ingest: %v", err)
			}

			buyerRows := h.notifications.byKind(models.NotificationKindBuyer)
			if got := len(buyerRows) == 1; got != tt.notified {
				t.Fatalf("expected notified=%v, got %d buyer notifications", tt.notified, len(buyerRows))
			}
			if (res.MatchedNotified == 1) != tt.notified {
				t.Fatalf("unexpected matched_notified %d", res.MatchedNotified)
			}
			if len(h.matches.rows) != 1 {
				t.Fatalf("match must be persisted regardless of gating")
			}
			if len(h.notifications.byKind(models.NotificationKindAdmin)) != 1 {
				t.Fatalf("admin notification must always be enqueued")
			}
		})
	}
}

func TestIngestSkipsZeroScoreMatches(t *testing.T) {
	b := buyer("nobody@example.org")
	h := newIngestHarness(0.9, fakeMatcher{b.Email: 0}, []*models.Buyer{b})

	res, err := h.svc.Ingest(context.Background(), IngestRequest{Category: "luxury", SourceUID: "watch"})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(h.matches.rows) != 0 {
		t.Fatalf("zero score match must not be persisted")
	}
	if !res.Sweep.Results[0].Skipped || res.Sweep.Persisted != 0 {
		t.Fatalf("unexpected sweep outcome: %+v", res.Sweep)
	}
}

func TestIngestSweepSurvivesBuyerFailure(t *testing.T) {
	a, b, c := buyer("a@example.org"), buyer("b@example.org"), buyer("c@example.org")
	h := newIngestHarness(0.9, fakeMatcher{a.Email: 0.9, b.Email: 0.9, c.Email: 0.9}, []*models.Buyer{a, b, c})
	h.matches.failFor[b.ID] = errStorage

	res, err := h.svc.Ingest(context.Background(), IngestRequest{Category: "car", SourceUID: "sweep"})
	if err != nil {
		t.Fatalf("ingest must not fail on per-buyer errors: %v", err)
	}

	if res.Sweep.Considered != 3 || res.Sweep.Persisted != 2 || res.Sweep.Failures != 1 {
		t.Fatalf("unexpected sweep outcome: %+v", res.Sweep)
	}
	if !errors.Is(res.Sweep.Results[1].Err, errStorage) {
		t.Fatalf("expected failure recorded for second buyer, got %+v", res.Sweep.Results[1])
	}
	if res.MatchedNotified != 2 {
		t.Fatalf("expected 2 notified buyers, got %d", res.MatchedNotified)
	}
	if n := h.logs.FilterMessage("Match failed for buyer, continuing sweep").Len(); n != 1 {
		t.Fatalf("expected one logged sweep failure, got %d", n)
	}
	if got := h.audit.records[0].Matched; len(got) != 2 || got[0].Recipient != a.Email || got[1].Recipient != c.Email {
		t.Fatalf("unexpected audit matches: %+v", got)
	}
}

func TestIngestEnqueueFailureIsPerBuyer(t *testing.T) {
	a, b := buyer("a@example.org"), buyer("b@example.org")
	h := newIngestHarness(0.9, fakeMatcher{a.Email: 0.9, b.Email: 0.9}, []*models.Buyer{a, b})
	h.notifications.enqueueErr[a.Email] = errStorage

	res, err := h.svc.Ingest(context.Background(), IngestRequest{Category: "car", SourceUID: "enq"})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Sweep.Failures != 1 || res.MatchedNotified != 1 {
		t.Fatalf("unexpected outcome: %+v notified=%d", res.Sweep, res.MatchedNotified)
	}
}

func TestIngestBuyerLoadFailure(t *testing.T) {
	h := newIngestHarness(0.9, fakeMatcher{}, nil)
	h.buyers.listErr = errStorage

	res, err := h.svc.Ingest(context.Background(), IngestRequest{Category: "car", SourceUID: "x"})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !errors.Is(res.Sweep.LoadErr, errStorage) || res.Sweep.Considered != 0 {
		t.Fatalf("unexpected sweep outcome: %+v", res.Sweep)
	}
	if len(h.notifications.byKind(models.NotificationKindAdmin)) != 1 {
		t.Fatalf("admin notification must still be enqueued")
	}
}

func TestIngestUpsertFailure(t *testing.T) {
	h := newIngestHarness(0.9, fakeMatcher{}, []*models.Buyer{buyer("a@example.org")})
	h.deals.upsertErr = errStorage

	_, err := h.svc.Ingest(context.Background(), IngestRequest{Category: "car", SourceUID: "x"})

	var upsertErr *UpsertError
	if !errors.As(err, &upsertErr) || upsertErr.Stage != "upsert" || !errors.Is(err, errStorage) {
		t.Fatalf("expected upsert error, got %v", err)
	}
	if h.scorer.calls != 0 || len(h.notifications.rows) != 0 || len(h.audit.records) != 0 {
		t.Fatalf("nothing may run after a failed upsert")
	}
}

func TestIngestScoreWriteFailure(t *testing.T) {
	h := newIngestHarness(0.9, fakeMatcher{}, nil)
	h.deals.scoreErr = errStorage

	_, err := h.svc.Ingest(context.Background(), IngestRequest{Category: "car", SourceUID: "x"})

	var upsertErr *UpsertError
	if !errors.As(err, &upsertErr) || upsertErr.Stage != "score write" || !errors.Is(err, repository.ErrScoreWrite) {
		t.Fatalf("expected score write failure, got %v", err)
	}
	if len(h.deals.rows) != 0 {
		t.Fatalf("a failed score write must not leave a stored deal")
	}
	if len(h.notifications.rows) != 0 {
		t.Fatalf("no notification may be enqueued after a failed score write")
	}
}

func TestIngestScoreWriteFailureKeepsPreviousRow(t *testing.T) {
	h := newIngestHarness(0.8, fakeMatcher{}, nil)
	ctx := context.Background()

	if _, err := h.svc.Ingest(ctx, IngestRequest{Category: "car", SourceUID: "x", Title: "Original"}); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	before := *h.deals.rows["rss|x"]

	h.deals.scoreErr = errStorage
	h.scorer.result = scoring.Result{Score: 0.1, Reason: "rescored", Strategy: "stub"}
	if _, err := h.svc.Ingest(ctx, IngestRequest{Category: "car", SourceUID: "x", Title: "Changed"}); err == nil {
		t.Fatal("expected score write failure")
	}

	after := h.deals.rows["rss|x"]
	if after.Title != "Original" || after.AIScore != before.AIScore || after.AIReason != before.AIReason || after.ID != before.ID {
		t.Fatalf("row changed after a failed score write: before %+v, after %+v", before, *after)
	}
}

func TestIngestAdminNotificationComesFirst(t *testing.T) {
	b := buyer("buyer@example.org")
	h := newIngestHarness(0.9, fakeMatcher{b.Email: 0.9}, []*models.Buyer{b})

	if _, err := h.svc.Ingest(context.Background(), IngestRequest{Category: "car", SourceUID: "first"}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if len(h.notifications.rows) != 2 {
		t.Fatalf("expected admin and buyer notifications, got %d", len(h.notifications.rows))
	}
	first, second := h.notifications.rows[0], h.notifications.rows[1]
	if first.Kind != models.NotificationKindAdmin || first.Recipient != "ops@example.org" {
		t.Fatalf("admin notification must be enqueued first, got %s to %s", first.Kind, first.Recipient)
	}
	if second.Kind != models.NotificationKindBuyer || second.Recipient != b.Email {
		t.Fatalf("unexpected second notification %s to %s", second.Kind, second.Recipient)
	}
}

func TestIngestAuditAndPublishFailuresAreAbsorbed(t *testing.T) {
	h := newIngestHarness(0.7, fakeMatcher{}, nil)
	h.audit.err = errStorage
	h.publisher.err = errors.New("nats down")

	res, err := h.svc.Ingest(context.Background(), IngestRequest{Category: "real_estate", SourceUID: "flat-1"})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !res.AuditFailed {
		t.Fatalf("expected audit failure reported in the result")
	}
	if len(h.publisher.published) != 1 || h.publisher.published[0].DealID != res.DealID {
		t.Fatalf("expected one publish attempt for the deal")
	}
}

func TestIngestPersistsScoreAndAudit(t *testing.T) {
	b := buyer("a@example.org")
	h := newIngestHarness(0.8, fakeMatcher{b.Email: 0.7}, []*models.Buyer{b})

	res, err := h.svc.Ingest(context.Background(), IngestRequest{Category: "car", Source: "rss", SourceUID: "s1"})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	stored := h.deals.rows["rss|s1"]
	if stored.AIScore != 0.8 || stored.AIReason != "stub" {
		t.Fatalf("score not persisted on the deal: %+v", stored)
	}
	if res.AIScore != 0.8 || res.Strategy != "stub" {
		t.Fatalf("unexpected result: %+v", res)
	}

	rec := h.audit.records[0]
	if rec.DealID != res.DealID || rec.AIScore != 0.8 || rec.Event != models.AuditEventDealIngested {
		t.Fatalf("unexpected audit record: %+v", rec)
	}
	if len(rec.Matched) != 1 || rec.Matched[0].BuyerID != b.ID || rec.Matched[0].Score != 0.7 {
		t.Fatalf("unexpected audit matches: %+v", rec.Matched)
	}
}

func TestIngestDispatchesOpportunistically(t *testing.T) {
	b := buyer("a@example.org")
	h := newIngestHarness(0.9, fakeMatcher{b.Email: 0.9}, []*models.Buyer{b}, withTransport())

	res, err := h.svc.Ingest(context.Background(), IngestRequest{Category: "car", SourceUID: "send"})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.EmailsSentNow != 2 {
		t.Fatalf("expected admin and buyer mail sent now, got %d", res.EmailsSentNow)
	}
	if h.transport.opens != 1 {
		t.Fatalf("expected one transport session, got %d", h.transport.opens)
	}
}

func TestIngestWithoutTransportSendsNothing(t *testing.T) {
	b := buyer("a@example.org")
	h := newIngestHarness(0.9, fakeMatcher{b.Email: 0.9}, []*models.Buyer{b})

	res, err := h.svc.Ingest(context.Background(), IngestRequest{Category: "car", SourceUID: "nosend"})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.EmailsSentNow != 0 {
		t.Fatalf("expected nothing sent, got %d", res.EmailsSentNow)
	}
	for _, n := range h.notifications.rows {
		if n.Status != models.NotificationStatusQueued {
			t.Fatalf("notification must remain queued: %+v", n)
		}
	}
}

func TestIngestWithRealMatcherAndSelector(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	budgetMin, budgetMax := 100000.0, 200000.0
	price := 150000.0

	wholesale := &models.Buyer{
		ID: uuid.New(), Email: "w@example.org", Status: models.BuyerStatusActive,
		Countries: []string{"US"}, Regions: []string{"NY"}, Categories: []string{"wholesale"},
		BudgetMin: &budgetMin, BudgetMax: &budgetMax,
	}
	cars := &models.Buyer{ID: uuid.New(), Email: "c@example.org", Status: models.BuyerStatusActive, Categories: []string{"car"}}

	h := newIngestHarness(0.9, matching.NewEngineAt(func() time.Time { return now }), []*models.Buyer{wholesale, cars})
	h.svc.selector = matching.CategoryCountry{}

	res, err := h.svc.Ingest(context.Background(), IngestRequest{
		Category: "wholesale", SourceUID: "pallets", Price: &price,
		Country: "US", Region: "CA", PostedAt: now.Add(-10 * time.Hour).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if res.Sweep.Considered != 1 {
		t.Fatalf("pre-filter should leave one candidate, got %d", res.Sweep.Considered)
	}
	if got := res.Sweep.Results[0].Score; got != 0.88 {
		t.Fatalf("expected 0.88, got %v", got)
	}
	if res.MatchedNotified != 1 {
		t.Fatalf("expected the wholesale buyer notified")
	}
}

func TestParsePostedAt(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "yesterday", want: ""},
		{in: "2026-03-01T10:00:00Z", want: "2026-03-01T10:00:00Z"},
		{in: "2026-03-01T12:00:00+02:00", want: "2026-03-01T10:00:00Z"},
		{in: "2026-03-01", want: "2026-03-01T00:00:00Z"},
	}

	for _, tt := range tests {
		got := parsePostedAt(tt.in)
		if tt.want == "" {
			if got != nil {
				t.Fatalf("%q: expected nil, got %v", tt.in, got)
			}
			continue
		}
		if got == nil || got.Format(time.RFC3339) != tt.want {
			t.Fatalf("%q: expected %s, got %v", tt.in, tt.want, got)
		}
	}
}

func TestDeriveSourceUIDIsStable(t *testing.T) {
	a := DeriveSourceUID("https://example.org/a")
	if len(a) != 32 || a != DeriveSourceUID("https://example.org/a") {
		t.Fatalf("uid must be a stable 32 char digest, got %q", a)
	}
	if a == DeriveSourceUID("https://example.org/b") {
		t.Fatalf("different urls must not collide")
	}
}

func TestSanitizeUTF8(t *testing.T) {
	if got := sanitizeUTF8("ok\xffvalue"); got != "okvalue" {
		t.Fatalf("unexpected sanitised value %q", got)
	}
	if got := sanitizeUTF8("naïve"); got != "naïve" {
		t.Fatalf("valid text must be untouched, got %q", got)
	}
}
