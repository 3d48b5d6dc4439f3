package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/studysight/internal/classifier"
	"github.com/nao1215/studysight/internal/config"
	"github.com/nao1215/studysight/internal/fetch"
	"github.com/nao1215/studysight/internal/model"
	"github.com/nao1215/studysight/internal/pipeline"
	"github.com/nao1215/studysight/internal/report"
	"github.com/nao1215/studysight/internal/store"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [page...]",
		Short: "Classify and annotate listing pages once",
		Long: `Scan runs one pass over each page: every video item is located, its
title classified, and items that are not educational are blurred.

Pages are local HTML files or http(s) URLs. With --out-dir the annotated
pages are written as HTML; a report of every decision is printed.

Settings (global switch and extra keywords) are read from the store managed
by "studysight settings".

Examples:
  # Scan a saved page with keyword rules
  studysight scan home.html

  # Use a trained model and write annotated copies
  studysight scan --model-dir ./json --out-dir ./annotated home.html feed.html

  # JSON report recorded in the history store
  studysight scan --json --save https://www.youtube.com/`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	addPageFlags(cmd)
	cmd.Flags().Duration("model-wait", config.DefaultModelWait,
		"How long to wait for the model before falling back to keywords")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of pages processed concurrently")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScan(ctx, cfg, cmd.OutOrStdout(), logger)
}

// newHTTPClient returns the client used for pages and model resources.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// runScan processes every source and writes the report to out or the
// configured report file.
func runScan(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	logger.Info("starting scan",
		"sources", cfg.Sources,
		"batchSize", cfg.BatchSize,
		"model", cfg.HasModel(),
		"saveToDB", cfg.SaveToDB,
	)

	settings, db, err := openSettings(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	fetcher := newFetcher(cfg)
	cls := classifier.New(classifier.WithLogger(logger))
	waitForModel(ctx, cfg, cls, modelSource(cfg, fetcher), logger)

	configOpts := []pipeline.DefaultPipelineOption{
		pipeline.WithPipelineReconcileOptions(
			pipeline.WithReconcileLogger(logger),
			pipeline.WithReconcileDebounce(cfg.Debounce),
		),
	}
	if cfg.OutputDir != "" {
		configOpts = append(configOpts, pipeline.WithPipelineOutputDir(cfg.OutputDir))
	}
	if cfg.SaveToDB && db != nil {
		configOpts = append(configOpts, pipeline.WithPipelineRecorder(db))
	}

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return pipeline.DefaultPipeline(fetcher, cls, settings,
				[]pipeline.Option{pipeline.WithLogger(logger)}, configOpts...)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	jobs, err := bp.ProcessBatch(ctx, cfg.Sources)
	reports := make([]*model.PassReport, 0, len(jobs))
	for _, job := range jobs {
		if job == nil {
			continue
		}
		reports = append(reports, job.Report)
		if job.OutputPath != "" {
			logger.Info("annotated page written", "source", job.Source, "path", job.OutputPath)
		}
	}

	if werr := outputReports(cfg, out, reports); werr != nil {
		return errors.Join(err, werr)
	}
	return err
}

// openSettings reads the stored settings. The store is only created when
// passes are to be recorded; otherwise a missing store means defaults.
func openSettings(ctx context.Context, cfg *config.Config, logger *slog.Logger) (config.Settings, *store.Store, error) {
	opts := store.DefaultOptions()
	opts.CreateIfNotExists = cfg.SaveToDB

	db, err := store.Open(cfg.DBDir, opts)
	if errors.Is(err, store.ErrNotFound) {
		logger.Debug("no settings store, using defaults", "dir", cfg.DBDir)
		return config.DefaultSettings(), nil, nil
	}
	if err != nil {
		return config.Settings{}, nil, fmt.Errorf("failed to open store: %w", err)
	}

	settings, err := db.LoadSettings(ctx)
	if err != nil {
		db.Close()
		return config.Settings{}, nil, err
	}
	return settings, db, nil
}

// waitForModel starts loading the model and waits up to cfg.ModelWait for
// it. On timeout or failure the scan goes on with keyword rules.
func waitForModel(ctx context.Context, cfg *config.Config, cls *classifier.Classifier, src classifier.Source, logger *slog.Logger) {
	if src == nil {
		return
	}

	loadCtx, cancel := context.WithTimeout(ctx, cfg.ModelWait)
	defer cancel()

	select {
	case err := <-cls.LoadAsync(loadCtx, src):
		if err != nil {
			logger.Warn("classifier model unavailable, using keywords", "error", err)
		}
	case <-loadCtx.Done():
		logger.Warn("classifier model not ready, using keywords", "waited", cfg.ModelWait)
	}
}

// outputReports writes the reports in the requested format.
func outputReports(cfg *config.Config, out io.Writer, reports []*model.PassReport) error {
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	_, err := newReportWriter(cfg, out).WriteBatch(reports)
	return err
}

// newReportWriter selects the writer for the configured format.
func newReportWriter(cfg *config.Config, out io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}
}

// describeSource names a source for terminal output.
func describeSource(source string) string {
	if fetch.IsURL(source) {
		return source
	}
	if abs, err := filepath.Abs(source); err == nil {
		return abs
	}
	return source
}
