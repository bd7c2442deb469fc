package feed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"dealflow/internal/dto"
	"dealflow/internal/metrics"
	"dealflow/internal/models"

	"go.uber.org/zap"
)

type sourceProvider interface {
	Sources(ctx context.Context) ([]models.DealSource, error)
}

type itemFetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]Item, error)
}

type ingestPoster interface {
	Post(ctx context.Context, payload dto.DealIngestRequest) (*dto.DealIngestResponse, error)
}

// Report counts what one pass over the sources did.
type Report struct {
	Sources      int
	Skipped      int
	FetchErrors  int
	Items        int
	Ingested     int
	IngestErrors int
}

type Runner struct {
	sources sourceProvider
	fetcher itemFetcher
	poster  ingestPoster
	logger  *zap.Logger
	now     func() time.Time
}

func NewRunner(sources sourceProvider, fetcher itemFetcher, poster ingestPoster, logger *zap.Logger) *Runner {
	return &Runner{
		sources: sources,
		fetcher: fetcher,
		poster:  poster,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RunOnce makes one pass over every configured source. Failures are per source
// or per item; only an unreadable source list fails the pass.
func (r *Runner) RunOnce(ctx context.Context) (Report, error) {
	var report Report

	sources, err := r.sources.Sources(ctx)
	if err != nil {
		return report, err
	}
	if len(sources) == 0 {
		r.logger.Warn("No sources configured. Set DEAL_SOURCES_JSON, DEAL_SOURCES_FILE or add rows to deal_sources.")
		return report, nil
	}

	for _, src := range sources {
		report.Sources++

		if !Fetchable(src) {
			report.Skipped++
			r.logger.Info("Skipping source, only rss/atom feeds are supported",
				zap.String("source", src.Source), zap.String("url", src.URL))
			continue
		}

		items, err := r.fetcher.Fetch(ctx, src.URL)
		if err != nil {
			report.FetchErrors++
			r.logger.Warn("Fetch failed", zap.String("url", src.URL), zap.Error(err))
			continue
		}

		for _, item := range items {
			report.Items++
			payload := r.payload(src, item)

			resp, err := r.poster.Post(ctx, payload)
			if err != nil {
				report.IngestErrors++
				metrics.FeedItemsTotal.WithLabelValues(src.Source, "error").Inc()
				r.logger.Warn("Ingest error", zap.String("title", item.Title), zap.Error(err))
				continue
			}

			report.Ingested++
			metrics.FeedItemsTotal.WithLabelValues(src.Source, "ok").Inc()
			r.logger.Debug("Ingested",
				zap.String("title", item.Title),
				zap.String("deal_id", resp.DealID),
				zap.Float64("ai_score", resp.AIScore),
			)
		}
	}

	r.logger.Info("Feed pass finished",
		zap.Int("sources", report.Sources),
		zap.Int("skipped", report.Skipped),
		zap.Int("items", report.Items),
		zap.Int("ingested", report.Ingested),
		zap.Int("errors", report.FetchErrors+report.IngestErrors),
	)
	return report, nil
}

// Run repeats RunOnce every interval until ctx is cancelled.
func (r *Runner) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.Error("Feed pass failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Runner) payload(src models.DealSource, item Item) dto.DealIngestRequest {
	posted := r.now()
	if item.PostedAt != nil {
		posted = item.PostedAt.UTC()
	}

	return dto.DealIngestRequest{
		Category:    src.Category,
		Source:      src.Source,
		SourceURL:   item.Link,
		SourceUID:   ItemUID(item.Link, item.Title),
		Title:       item.Title,
		Description: item.Description,
		Country:     src.Country,
		Region:      src.Region,
		PostedAt:    posted.Format(time.RFC3339),
		Images:      []string{},
		Raw:         map[string]any{"rss": true},
	}
}

// ItemUID is the upstream dedupe key for a feed item.
func ItemUID(link, title string) string {
	sum := sha256.Sum256([]byte(link + "|" + title))
	return hex.EncodeToString(sum[:])[:32]
}
