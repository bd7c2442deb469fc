package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dealflow/internal/feed"
	"dealflow/internal/repository"
	"dealflow/pkg/config"
	"dealflow/pkg/postgres"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Poll RSS/Atom deal sources and post items to the ingest webhook",
}

var feedRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll sources every interval until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runner, interval, cleanup, err := newFeedRunner(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := runner.Run(ctx, interval); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

var feedOnceCmd = &cobra.Command{
	Use:   "once",
	Short: "Make a single pass over the sources",
	RunE: func(cmd *cobra.Command, _ []string) error {
		runner, _, cleanup, err := newFeedRunner(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		report, err := runner.RunOnce(cmd.Context())
		if err != nil {
			return err
		}

		pretty, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(pretty))
		return nil
	},
}

func init() {
	feedCmd.PersistentFlags().Duration("interval", 0, "poll interval (defaults to SCRAPE_INTERVAL_SEC)")
	feedCmd.PersistentFlags().String("sources-file", "", "YAML file with a sources list (defaults to DEAL_SOURCES_FILE)")
	feedCmd.PersistentFlags().String("ingest-url", "", "ingest webhook URL (defaults to FEED_INGEST_URL)")
	feedCmd.PersistentFlags().Bool("no-db", false, "do not read sources from the deal_sources table")

	_ = viper.BindPFlag("interval", feedCmd.PersistentFlags().Lookup("interval"))
	_ = viper.BindPFlag("sources-file", feedCmd.PersistentFlags().Lookup("sources-file"))
	_ = viper.BindPFlag("ingest-url", feedCmd.PersistentFlags().Lookup("ingest-url"))
	_ = viper.BindPFlag("no-db", feedCmd.PersistentFlags().Lookup("no-db"))

	feedCmd.AddCommand(feedRunCmd, feedOnceCmd)
	rootCmd.AddCommand(feedCmd)
}

func newFeedRunner(ctx context.Context) (*feed.Runner, time.Duration, func(), error) {
	cfg, log, err := setup()
	if err != nil {
		return nil, 0, nil, err
	}
	applyFeedFlags(&cfg.Feed)

	cleanup := func() { _ = log.Sync() }

	var lister feed.SourceLister
	if !viper.GetBool("no-db") {
		db, err := postgres.NewPool(ctx, &cfg.Database, log)
		if err != nil {
			log.Warn("Database unavailable, using file/env sources", zap.Error(err))
		} else {
			lister = repository.NewSourceRepository(db, log)
			cleanup = func() {
				db.Close()
				_ = log.Sync()
			}
		}
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	runner := feed.NewRunner(
		feed.NewSourceResolver(lister, cfg.Feed.SourcesFile, cfg.Feed.SourcesJSON, log),
		feed.NewFetcher(httpClient, cfg.Feed.UserAgent),
		feed.NewIngestClient(cfg.Feed.IngestURL, httpClient, cfg.Feed.UserAgent),
		log,
	)

	log.Info("Feeder configured",
		zap.String("ingest_url", cfg.Feed.IngestURL),
		zap.Duration("interval", cfg.Feed.Interval),
	)
	return runner, cfg.Feed.Interval, cleanup, nil
}

func applyFeedFlags(cfg *config.FeedConfig) {
	if d := viper.GetDuration("interval"); d > 0 {
		cfg.Interval = d
	}
	if f := viper.GetString("sources-file"); f != "" {
		cfg.SourcesFile = f
	}
	if u := viper.GetString("ingest-url"); u != "" {
		cfg.IngestURL = u
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Minute
	}
}
