package main

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSeenCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seen [link]",
		Short: "Show what the novelty store has recorded",
		Long:  "Without arguments, prints the number of delivered articles per source. With a link, prints its stored record.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			application, _, err := openApp(ctx, flags, false)
			if err != nil {
				return err
			}
			defer application.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				rec, err := application.Record(ctx, args[0])
				if errors.Is(err, sql.ErrNoRows) {
					fmt.Fprintf(out, "%s has not been delivered.\n", args[0])
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\n  title:     %s\n  source:    %s\n  published: %s\n  seen at:   %s\n",
					rec.Link, rec.Title, rec.Source, rec.Published, rec.SeenAt.Format(time.RFC3339))
				return nil
			}

			counts, err := application.Stats(ctx)
			if err != nil {
				return fmt.Errorf("reading stats: %w", err)
			}
			if len(counts) == 0 {
				fmt.Fprintln(out, "No articles recorded yet.")
				return nil
			}
			total := 0
			for _, c := range counts {
				fmt.Fprintf(out, "%-45s %6d\n", c.Source, c.Count)
				total += c.Count
			}
			fmt.Fprintf(out, "%-45s %6d\n", "total", total)
			return nil
		},
	}
}
