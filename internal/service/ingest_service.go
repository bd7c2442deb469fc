package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"dealflow/internal/events"
	"dealflow/internal/matching"
	"dealflow/internal/metrics"
	"dealflow/internal/models"
	"dealflow/internal/repository"
	"dealflow/internal/scoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IngestRequest is one inbound deal listing.
type IngestRequest struct {
	Category    string
	Source      string
	SourceURL   string
	SourceUID   string
	Title       string
	Description string
	Price       *float64
	Currency    string
	Country     string
	Region      string
	City        string
	PostalCode  string
	PostedAt    string
	Images      []string
	Raw         map[string]any
}

// BuyerResult is the sweep outcome for a single buyer.
type BuyerResult struct {
	BuyerID  uuid.UUID
	Score    float64
	Skipped  bool
	Notified bool
	Err      error
}

// SweepOutcome collects per-buyer results; a failure never stops the sweep.
type SweepOutcome struct {
	Considered int
	Persisted  int
	Failures   int
	Results    []BuyerResult
	// LoadErr is set when the buyer registry could not be read at all.
	LoadErr error
}

type IngestResult struct {
	DealID          uuid.UUID
	AIScore         float64
	AIReason        string
	Strategy        string
	MatchedNotified int
	EmailsSentNow   int
	Sweep           SweepOutcome
	AuditFailed     bool
}

type Scorer interface {
	Score(ctx context.Context, deal *models.Deal) scoring.Result
}

type Matcher interface {
	Match(deal *models.Deal, buyer *models.Buyer) (float64, models.MatchBreakdown)
}

// IngestSettings are the tunables of the pipeline.
type IngestSettings struct {
	Threshold     float64
	AdminEmail    string
	DispatchLimit int
}

type IngestService struct {
	deals         DealStore
	buyers        BuyerStore
	matches       MatchStore
	scorer        Scorer
	matcher       Matcher
	selector      matching.CandidateSelector
	notifications *NotificationService
	audit         AuditSink
	publisher     events.Publisher
	settings      IngestSettings
	logger        *zap.Logger
}

func NewIngestService(
	deals DealStore,
	buyers BuyerStore,
	matches MatchStore,
	scorer Scorer,
	matcher Matcher,
	selector matching.CandidateSelector,
	notifications *NotificationService,
	audit AuditSink,
	publisher events.Publisher,
	settings IngestSettings,
	logger *zap.Logger,
) *IngestService {
	if selector == nil {
		selector = matching.AllBuyers{}
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &IngestService{
		deals:         deals,
		buyers:        buyers,
		matches:       matches,
		scorer:        scorer,
		matcher:       matcher,
		selector:      selector,
		notifications: notifications,
		audit:         audit,
		publisher:     publisher,
		settings:      settings,
		logger:        logger,
	}
}

// Ingest runs Validate, Upsert+Score, Notify, Sweep and Audit for one listing and
// then dispatches queued notifications opportunistically. Only validation and
// storage of the deal itself can fail the call.
func (s *IngestService) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	deal, err := buildDeal(req)
	if err != nil {
		metrics.IngestsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	var scored scoring.Result
	err = s.deals.UpsertScored(ctx, deal, func(ctx context.Context, deal *models.Deal) (float64, string) {
		scored = s.scorer.Score(ctx, deal)
		metrics.ScoringTotal.WithLabelValues(scored.Strategy, fmt.Sprint(scored.Fallback)).Inc()
		return scored.Score, scored.Reason
	})
	if err != nil {
		metrics.IngestsTotal.WithLabelValues("upsert_failed").Inc()
		stage := "upsert"
		if errors.Is(err, repository.ErrScoreWrite) {
			stage = "score write"
		}
		return nil, &UpsertError{Stage: stage, Err: err}
	}

	result := &IngestResult{
		DealID:   deal.ID,
		AIScore:  deal.AIScore,
		AIReason: deal.AIReason,
		Strategy: scored.Strategy,
	}

	s.notifyAdmin(ctx, deal)

	var audited []models.AuditMatch
	result.Sweep, audited = s.sweep(ctx, deal)
	result.MatchedNotified = len(audited)

	if err := s.audit.Write(ctx, &models.AuditRecord{
		Event:    models.AuditEventDealIngested,
		DealID:   deal.ID,
		AIScore:  deal.AIScore,
		AIReason: deal.AIReason,
		Matched:  audited,
	}); err != nil {
		result.AuditFailed = true
		s.logger.Error("Failed to write audit record", zap.String("deal_id", deal.ID.String()), zap.Error(err))
	}

	if err := s.publisher.PublishDealIngested(ctx, events.DealIngested{
		DealID:    deal.ID,
		Source:    deal.Source,
		SourceUID: deal.SourceUID,
		Category:  string(deal.Category),
		AIScore:   deal.AIScore,
		Notified:  result.MatchedNotified,
		At:        time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("Failed to publish deal event", zap.String("deal_id", deal.ID.String()), zap.Error(err))
	}

	dispatched, err := s.notifications.Dispatch(ctx, s.settings.DispatchLimit)
	if err != nil {
		s.logger.Warn("Opportunistic dispatch failed", zap.Error(err))
	}
	result.EmailsSentNow = dispatched.Sent

	metrics.IngestsTotal.WithLabelValues("ok").Inc()
	s.logger.Info("Deal ingested",
		zap.String("deal_id", deal.ID.String()),
		zap.String("source", deal.Source),
		zap.String("source_uid", deal.SourceUID),
		zap.Float64("ai_score", deal.AIScore),
		zap.String("strategy", scored.Strategy),
		zap.Int("buyers_considered", result.Sweep.Considered),
		zap.Int("notified", result.MatchedNotified),
		zap.Int("sweep_failures", result.Sweep.Failures),
		zap.Int("sent_now", result.EmailsSentNow),
	)

	return result, nil
}

// sweep scores the deal against every candidate buyer sequentially.
func (s *IngestService) sweep(ctx context.Context, deal *models.Deal) (SweepOutcome, []models.AuditMatch) {
	var (
		outcome SweepOutcome
		audited []models.AuditMatch
	)

	buyers, err := s.buyers.ListActive(ctx)
	if err != nil {
		outcome.LoadErr = err
		s.logger.Error("Failed to load active buyers, skipping match sweep",
			zap.String("deal_id", deal.ID.String()), zap.Error(err))
		return outcome, audited
	}

	candidates := s.selector.Select(deal, buyers)
	outcome.Considered = len(candidates)
	if len(candidates) < len(buyers) {
		s.logger.Debug("Buyers pre-filtered",
			zap.String("selector", s.selector.Name()),
			zap.Int("active", len(buyers)),
			zap.Int("candidates", len(candidates)),
		)
	}

	for _, buyer := range candidates {
		res := s.matchBuyer(ctx, deal, buyer)
		outcome.Results = append(outcome.Results, res)

		switch {
		case res.Err != nil:
			outcome.Failures++
			metrics.SweepFailuresTotal.Inc()
			s.logger.Warn("Match failed for buyer, continuing sweep",
				zap.String("deal_id", deal.ID.String()),
				zap.String("buyer_id", buyer.ID.String()),
				zap.Error(res.Err),
			)
		case !res.Skipped:
			outcome.Persisted++
		}

		if res.Notified {
			audited = append(audited, models.AuditMatch{
				BuyerID:   buyer.ID,
				Recipient: buyer.Email,
				Score:     res.Score,
			})
		}
	}

	return outcome, audited
}

func (s *IngestService) matchBuyer(ctx context.Context, deal *models.Deal, buyer *models.Buyer) BuyerResult {
	res := BuyerResult{BuyerID: buyer.ID}

	score, breakdown := s.matcher.Match(deal, buyer)
	res.Score = score
	if score <= 0 {
		res.Skipped = true
		return res
	}

	if err := s.matches.Upsert(ctx, &models.Match{
		DealID:     deal.ID,
		BuyerID:    buyer.ID,
		MatchScore: score,
		Breakdown:  breakdown,
	}); err != nil {
		res.Err = fmt.Errorf("persist match: %w", err)
		return res
	}

	if deal.AIScore < s.settings.Threshold || score < s.settings.Threshold {
		return res
	}
	if strings.TrimSpace(buyer.Email) == "" {
		return res
	}

	if err := s.notifications.Enqueue(ctx, buyerNotification(deal, buyer, score)); err != nil {
		res.Err = fmt.Errorf("enqueue buyer notification: %w", err)
		return res
	}
	res.Notified = true
	return res
}

func (s *IngestService) notifyAdmin(ctx context.Context, deal *models.Deal) {
	if err := s.notifications.Enqueue(ctx, adminNotification(deal, s.settings.AdminEmail)); err != nil {
		s.logger.Error("Failed to enqueue admin notification", zap.String("deal_id", deal.ID.String()), zap.Error(err))
	}
}

// buildDeal validates req and normalises it into a deal ready for upsert.
func buildDeal(req IngestRequest) (*models.Deal, error) {
	category := models.Category(strings.ToLower(strings.TrimSpace(req.Category)))
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, req.Category)
	}

	sourceURL := strings.TrimSpace(req.SourceURL)
	uid := strings.TrimSpace(req.SourceUID)
	if uid == "" {
		if sourceURL == "" {
			return nil, ErrMissingSourceKey
		}
		uid = DeriveSourceUID(sourceURL)
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = models.DefaultSource
	}

	images := req.Images
	if images == nil {
		images = []string{}
	}
	raw := req.Raw
	if raw == nil {
		raw = map[string]any{}
	}

	return &models.Deal{
		ID:          uuid.New(),
		Category:    category,
		Source:      source,
		SourceURL:   sourceURL,
		SourceUID:   uid,
		Title:       sanitizeUTF8(strings.TrimSpace(req.Title)),
		Description: sanitizeUTF8(strings.TrimSpace(req.Description)),
		Price:       req.Price,
		Currency:    strings.ToUpper(strings.TrimSpace(req.Currency)),
		Country:     strings.TrimSpace(req.Country),
		Region:      strings.TrimSpace(req.Region),
		City:        strings.TrimSpace(req.City),
		PostalCode:  strings.TrimSpace(req.PostalCode),
		PostedAt:    parsePostedAt(req.PostedAt),
		Images:      images,
		Raw:         raw,
	}, nil
}

// DeriveSourceUID is the stable key used when a listing carries no uid of its own.
func DeriveSourceUID(sourceURL string) string {
	sum := sha256.Sum256([]byte(sourceURL))
	return hex.EncodeToString(sum[:])[:32]
}

var postedAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// parsePostedAt returns nil for empty or unparseable input.
func parsePostedAt(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range postedAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
