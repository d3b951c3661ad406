package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/waabox/runnerstat/internal/domain"
	"github.com/waabox/runnerstat/internal/tui"
)

func newBrowseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Collect runner usage and explore it interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			// Log lines would corrupt the alternate screen.
			s, err := newSession(cfg, io.Discard)
			if err != nil {
				return err
			}
			defer s.writeMetrics()

			load := func(ctx context.Context) (domain.Report, error) {
				_, rep, err := s.collect(ctx)
				return rep, err
			}
			return tui.Run(cmd.Context(), cfg.Org, load)
		},
	}
}
