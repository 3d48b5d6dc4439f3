package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/studysight/internal/dom"
	"github.com/nao1215/studysight/internal/model"
	"github.com/nao1215/studysight/internal/reconcile"
)

// Job carries one page through the pipeline.
type Job struct {
	// Source is the file path or URL being processed.
	Source string

	// Page is set by the load step.
	Page *model.Page

	// Doc is set by the parse step.
	Doc *dom.Document

	// Reconciler is set by the reconcile step and owns Doc afterwards.
	Reconciler *reconcile.Reconciler

	// Report starts empty and is replaced by the reconcile step's pass
	// report. Step failures are recorded in its Error field.
	Report *model.PassReport

	// OutputPath is where the render step wrote the annotated page.
	OutputPath string

	// PassID is the store ID assigned by the record step.
	PassID int64

	// Steps lists the steps that ran, in order.
	Steps []string
}

// NewJob creates a job for source.
func NewJob(source string, now time.Time) *Job {
	return &Job{
		Source: source,
		Report: model.NewPassReport(source, now),
	}
}

// Step defines the interface that all pipeline steps must implement.
type Step interface {
	// Do executes the step. Returning an error marks the job failed.
	Do(ctx context.Context, job *Job) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	steps []Step

	logger *slog.Logger

	// continueOnError runs later steps after a failure.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. Steps that depend on the failed one report
// their missing input instead.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{steps: make([]Step, 0)}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence. Cancellation is checked before each
// step. The first failure is recorded in the job's report; it is returned
// unless the pipeline continues on error.
func (p *Pipeline) Execute(ctx context.Context, job *Job) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			p.fail(job, ctx.Err())
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"source", job.Source,
		)

		if err := step.Do(ctx, job); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"source", job.Source,
				"error", err,
			)
			p.fail(job, err)
			if !p.continueOnError {
				return err
			}
		}
		job.Steps = append(job.Steps, step.Name())
	}
	return nil
}

// fail records the first error of a job.
func (p *Pipeline) fail(job *Job, err error) {
	if job.Report.Error == "" {
		job.Report.Error = err.Error()
	}
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
