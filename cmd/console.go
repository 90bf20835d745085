package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"QRKara/console"
	"QRKara/logger"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Start the operator console",
	Long:  `Connects to the venue backend, tracks every table's tab and the full song queue, and takes operator commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := initRuntime()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		watchConfig(ctx)

		op, err := console.NewOperator(cfg)
		if err != nil {
			return err
		}
		logger.Info("operator console starting", logger.String("api", cfg.APIBaseURL))
		if err := op.Run(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}
