package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"QRKara/config"
	"QRKara/logger"
)

var rootCmd = &cobra.Command{
	Use:   "qrkara",
	Short: "QRKara is the live console for the venue karaoke and ordering system.",
}

// initRuntime loads config and brings up the logger; every subcommand calls
// it first.
func initRuntime() *config.Config {
	cfg := config.Load()
	logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogOutputPath,
		MaxSize:    50,
		MaxBackups: 3,
		MaxAge:     14,
	})
	return cfg
}

// watchConfig hot-reloads the .env for the life of ctx. Only the log level
// applies live; connection settings need a restart, which the reload log line
// says so the operator knows.
func watchConfig(ctx context.Context) {
	go func() {
		err := config.Watch(".env", func(fresh *config.Config) {
			logger.SetLevel(fresh.LogLevel)
			logger.Info("configuration reloaded; connection settings apply on next start",
				logger.String("logLevel", fresh.LogLevel))
		}, ctx.Done())
		if err != nil {
			logger.Warn("config watcher unavailable", logger.ErrorField(err))
		}
	}()
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
