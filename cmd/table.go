package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"QRKara/console"
	"QRKara/logger"
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Start a table client from the saved session",
	Long:  `Restores the table session saved on this machine and opens the table surface: personal songs, the table's tab, and the quick-order cart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := initRuntime()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		watchConfig(ctx)

		tc, err := console.NewTableClient(cfg)
		if err != nil {
			return err
		}
		logger.Info("table client starting", logger.String("api", cfg.APIBaseURL))
		if err := tc.Run(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tableCmd)
}
