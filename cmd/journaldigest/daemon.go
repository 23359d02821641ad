package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newDaemonCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the pipeline on the configured cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, _, err := openApp(ctx, flags, true)
			if err != nil {
				return err
			}
			defer application.Close()

			return application.Daemon(ctx)
		},
	}
}
