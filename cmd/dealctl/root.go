package main

import (
	"fmt"

	"dealflow/pkg/config"
	"dealflow/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const app = "dealctl"

var rootCmd = &cobra.Command{
	Use:          app,
	Short:        "dealctl runs the deal feeder and queue maintenance jobs",
	SilenceUsage: true,
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level (defaults to LOG_LEVEL or info)")
	rootCmd.PersistentFlags().String("env-file", "", "env file to load before reading the environment")

	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("env-file", rootCmd.PersistentFlags().Lookup("env-file"))
}

// setup loads configuration and builds the logger every subcommand needs.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadFrom(viper.GetString("env-file"))
	if err != nil {
		return nil, nil, err
	}

	if level := viper.GetString("log-level"); level != "" {
		cfg.Logger.Level = level
	}

	log, err := logger.New(cfg.Logger.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("creating a logger: %w", err)
	}
	return cfg, log, nil
}
