package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/waabox/runnerstat/internal/report"
)

func newAnalyzeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Collect runner usage and write the reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			s, err := newSession(cfg, os.Stderr)
			if err != nil {
				return err
			}
			defer s.writeMetrics()

			ctx := cmd.Context()
			records, rep, err := s.collect(ctx)
			if err != nil {
				return err
			}

			emitters, err := report.DefaultRegistry().Build(cfg.OutputsOrDefault(), report.Settings{
				Org:             cfg.Org,
				CSVPath:         cfg.CSVPath(),
				HTMLPath:        cfg.HTMLPath(),
				SummaryPath:     cfg.SummaryPath(),
				StepSummaryPath: os.Getenv(report.StepSummaryEnv),
				Logger:          s.logger,
				Now:             time.Now,
			})
			if err != nil {
				return err
			}
			artifacts, renderErr := report.EmitAll(emitters, rep, s.logger)

			out := cmd.OutOrStdout()
			report.PrintConsole(out, rep)
			for _, a := range artifacts {
				if a.Written {
					fmt.Fprintf(out, "%s report written to %s\n", a.Name, a.Path)
				}
			}

			if cfg.S3.Bucket != "" {
				if err := publish(cmd, s, artifacts); err != nil {
					s.logger.Error("publishing reports failed", "bucket", cfg.S3.Bucket, "error", err)
					renderErr = errors.Join(renderErr, err)
				}
			}

			fmt.Fprintln(out, foundMessage(len(records), cfg.TargetLabel))
			return renderErr
		},
	}
}

func publish(cmd *cobra.Command, s *session, artifacts []report.Artifact) error {
	written := make([]report.Artifact, 0, len(artifacts))
	for _, a := range artifacts {
		if a.Written {
			written = append(written, a)
		}
	}
	if len(written) == 0 {
		return nil
	}
	publisher, err := report.NewS3Publisher(cmd.Context(), report.S3Config{
		Bucket: s.cfg.S3.Bucket,
		Prefix: s.cfg.S3.Prefix,
		Region: s.cfg.S3.Region,
	}, s.logger)
	if err != nil {
		return err
	}
	uris, err := publisher.Publish(cmd.Context(), s.runID, written)
	for _, uri := range uris {
		fmt.Fprintf(cmd.OutOrStdout(), "published %s\n", uri)
	}
	return err
}
