package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/bumidom-archive-crawler/internal/app"
	"github.com/JakeFAU/bumidom-archive-crawler/internal/config"
	"github.com/JakeFAU/bumidom-archive-crawler/internal/crawler"
	"github.com/JakeFAU/bumidom-archive-crawler/internal/id/uuid"
	"github.com/JakeFAU/bumidom-archive-crawler/internal/metrics"
)

// pipeline is the part of the engine the run command drives.
type pipeline interface {
	Run(ctx context.Context) (crawler.RunResult, error)
}

// newPipeline is the engine factory, replaced in tests.
var newPipeline = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (pipeline, func(), error) {
	a, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize application services: %w", err)
	}
	engine, err := a.Engine()
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	return engine, a.Close, nil
}

func newRunCmd() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Discover, download and analyze archive documents",
		Long: `Runs the full pipeline: scans the configured legislature listings and written
question indices, downloads the capped sample of PDFs, analyzes them, writes the
configured dataset exports and the text report, and prints the report.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := resolveSession(cmd.Context())
			if err != nil {
				return err
			}
			p, closeFn, err := newPipeline(cmd.Context(), rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := p.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("run pipeline: %w", err)
			}
			if !quiet {
				fmt.Fprint(cmd.OutOrStdout(), result.Report)
			}

			if err := metrics.WriteTextfile(rt.cfg.Metrics.Textfile, nil); err != nil {
				rt.logger.Warn("Failed to write metrics textfile", zap.Error(err))
			}
			if totals, err := metrics.Totals(nil); err == nil {
				rt.logger.Info("Run metrics",
					zap.Float64("documents", totals["archive_documents_total"]),
					zap.Float64("bytes", totals["archive_pdf_bytes_total"]),
					zap.Float64("mentions", totals["archive_topic_mentions_total"]),
				)
			}
			rt.logger.Info("Run finished", summaryFields(result)...)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the report to stdout")
	return cmd
}

func summaryFields(result crawler.RunResult) []zap.Field {
	fields := []zap.Field{
		zap.String("run_id", result.Dataset.RunID),
		zap.Int("records", len(result.Dataset.Records)),
		zap.Int("skipped", result.Stats.Skipped),
		zap.Int("degraded", result.Stats.Degraded),
		zap.Bool("empty", result.Empty),
	}
	if issued, err := uuid.Timestamp(result.Dataset.RunID); err == nil {
		fields = append(fields, zap.Time("run_id_issued", issued))
	}
	return fields
}
