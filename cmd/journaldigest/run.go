package main

import (
	"github.com/spf13/cobra"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once",
		Long: `Fetch every configured source, classify unseen articles and deliver one digest.

With --dry-run the digest is printed instead and nothing is recorded as seen.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			application, logger, err := openApp(ctx, flags, !dryRun)
			if err != nil {
				return err
			}
			defer application.Close()

			if dryRun {
				return application.DryRun(ctx, cmd.OutOrStdout())
			}

			report, err := application.Run(ctx)
			if err != nil {
				logger.Error("run failed", "run_id", report.RunID, "error", err)
				return err
			}
			logger.Info("run complete",
				"run_id", report.RunID,
				"new", report.TotalNew,
				"relevant", report.TotalRelevant,
				"delivered", report.Delivered)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the digest without delivering or recording it")
	return cmd
}
