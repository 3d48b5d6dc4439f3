package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// defaultConcurrency is the batch concurrency when none is configured.
const defaultConcurrency = 4

// BatchProcessor runs a fresh pipeline for each of several pages.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each page.
	pipelineFactory func() *Pipeline

	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of pages processed at once.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithBatchClock replaces time.Now for job start times.
func WithBatchClock(now func() time.Time) BatchOption {
	return func(b *BatchProcessor) {
		b.now = now
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     defaultConcurrency,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch processes sources concurrently and returns one job per
// source in input order. Failed pages are returned with the error in their
// report. The error return is set only when ctx is cancelled; sources
// not started by then are left nil.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, sources []string) ([]*Job, error) {
	jobs := make([]*Job, len(sources))
	err := bp.ProcessBatchWithCallback(ctx, sources, func(job *Job, i int) {
		jobs[i] = job
	})
	return jobs, err
}

// ProcessBatchWithCallback processes sources and calls callback for each
// finished job with its index in sources. The callback runs on the worker
// goroutine and must be safe for concurrent use; writes to distinct slice
// elements are.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	sources []string,
	callback func(job *Job, index int),
) error {
	bp.logger.Info("starting batch processing",
		"total_pages", len(sources),
		"concurrency", bp.concurrency,
	)
	startTime := bp.now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, source := range sources {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			job := NewJob(source, bp.now())
			if err := bp.pipelineFactory().Execute(ctx, job); err != nil {
				bp.logger.Warn("page failed", "source", source, "error", err)
			} else {
				bp.logger.Info("page processed",
					"source", source,
					"kept", job.Report.Kept,
					"suppressed", job.Report.Suppressed,
				)
			}
			callback(job, i)
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch processing complete",
		"total_pages", len(sources),
		"elapsed", bp.now().Sub(startTime),
	)
	return err
}
