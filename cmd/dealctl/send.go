package main

import (
	"encoding/json"
	"fmt"

	appwiring "dealflow/internal/app"
	"dealflow/internal/repository"
	"dealflow/internal/service"
	"dealflow/pkg/postgres"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var sendQueuedCmd = &cobra.Command{
	Use:   "send-queued",
	Short: "Send queued notifications once",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		limit := viper.GetInt("limit")
		if limit <= 0 {
			limit = cfg.Dispatch.DefaultLimit
		}

		db, err := postgres.NewPool(cmd.Context(), &cfg.Database, log)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()

		notifications := service.NewNotificationService(
			repository.NewNotificationRepository(db, log),
			appwiring.Transport(cfg.SMTP, log),
			log,
		)

		outcome, err := notifications.Dispatch(cmd.Context(), limit)
		if err != nil {
			return err
		}

		log.Info("Queue drained", zap.Int("limit", limit), zap.Int("sent", outcome.Sent), zap.Int("failed", outcome.Failed))
		pretty, _ := json.MarshalIndent(outcome, "", "  ")
		fmt.Println(string(pretty))
		return nil
	},
}

func init() {
	sendQueuedCmd.Flags().Int("limit", 0, "maximum notifications to send (defaults to DISPATCH_DEFAULT_LIMIT)")
	_ = viper.BindPFlag("limit", sendQueuedCmd.Flags().Lookup("limit"))

	rootCmd.AddCommand(sendQueuedCmd)
}
