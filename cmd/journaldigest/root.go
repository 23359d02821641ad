package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"JournalDigest/internal/app"
	"JournalDigest/internal/config"
	"JournalDigest/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
)

type rootFlags struct {
	config string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "journaldigest",
		Short:         "Weekly digest of new journal articles",
		Long:          "journaldigest polls journal feeds, keeps the articles it has not delivered yet, flags the ones matching your interests and sends them as one digest.",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&flags.config, "config", "", "path to config file (default $JOURNAL_DIGEST_CONFIG)")

	root.AddCommand(
		newRunCmd(flags),
		newDaemonCmd(flags),
		newSeenCmd(flags),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "journaldigest %s (commit: %s)\n", version, commit)
		},
	}
}

// loadConfig reads the config and, when strict, rejects it before any network work.
func loadConfig(flags *rootFlags, strict bool) (config.Config, error) {
	cfg, err := config.Load(flags.config)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	if strict {
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

func openApp(ctx context.Context, flags *rootFlags, strict bool) (*app.Application, *slog.Logger, error) {
	cfg, err := loadConfig(flags, strict)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return application, logger, nil
}
