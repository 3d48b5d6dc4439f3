package pipeline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/nao1215/studysight/internal/classifier"
	"github.com/nao1215/studysight/internal/config"
	"github.com/nao1215/studysight/internal/dom"
	"github.com/nao1215/studysight/internal/fetch"
	"github.com/nao1215/studysight/internal/model"
	"github.com/nao1215/studysight/internal/reconcile"
)

// ErrMissingInput is returned when a step runs before the step that
// produces its input.
var ErrMissingInput = errors.New("missing step input")

// LoadStep reads the page from disk or over HTTP.
type LoadStep struct {
	fetcher *fetch.Fetcher
}

// NewLoadStep creates a load step using fetcher.
func NewLoadStep(fetcher *fetch.Fetcher) *LoadStep {
	return &LoadStep{fetcher: fetcher}
}

// Name returns the step name.
func (s *LoadStep) Name() string {
	return "load"
}

// Do loads job.Source into job.Page.
func (s *LoadStep) Do(ctx context.Context, job *Job) error {
	page, err := s.fetcher.Fetch(ctx, job.Source)
	if err != nil {
		return err
	}
	if !page.IsHTML() {
		return fmt.Errorf("%w: content type %s", dom.ErrNotHTML, page.ContentType)
	}
	job.Page = page
	return nil
}

// ParseStep builds the content tree from the loaded page.
type ParseStep struct{}

// NewParseStep creates a parse step.
func NewParseStep() *ParseStep {
	return &ParseStep{}
}

// Name returns the step name.
func (s *ParseStep) Name() string {
	return "parse"
}

// Do parses job.Page into job.Doc.
func (s *ParseStep) Do(_ context.Context, job *Job) error {
	if job.Page == nil {
		return fmt.Errorf("%w: no page loaded", ErrMissingInput)
	}
	doc, err := dom.Parse(bytes.NewReader(job.Page.Raw))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", job.Source, err)
	}
	job.Doc = doc
	return nil
}

// ReconcileStep classifies every item of the page and annotates it.
type ReconcileStep struct {
	classifier *classifier.Classifier
	settings   config.Settings
	debounce   time.Duration
	logger     *slog.Logger
	clock      func() time.Time
}

// ReconcileStepOption configures a ReconcileStep.
type ReconcileStepOption func(*ReconcileStep)

// WithReconcileLogger sets the logger handed to each reconciler.
func WithReconcileLogger(logger *slog.Logger) ReconcileStepOption {
	return func(s *ReconcileStep) {
		s.logger = logger
	}
}

// WithReconcileDebounce sets the debounce of each reconciler.
func WithReconcileDebounce(d time.Duration) ReconcileStepOption {
	return func(s *ReconcileStep) {
		s.debounce = d
	}
}

// WithReconcileClock replaces time.Now in pass reports.
func WithReconcileClock(now func() time.Time) ReconcileStepOption {
	return func(s *ReconcileStep) {
		s.clock = now
	}
}

// NewReconcileStep creates a reconcile step for cls under settings.
func NewReconcileStep(cls *classifier.Classifier, settings config.Settings, opts ...ReconcileStepOption) *ReconcileStep {
	s := &ReconcileStep{
		classifier: cls,
		settings:   settings.Clone(),
		debounce:   config.DefaultDebounce,
		logger:     slog.Default(),
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ReconcileStep) Name() string {
	return "reconcile"
}

// Do creates the page's reconciler and runs the first pass.
func (s *ReconcileStep) Do(_ context.Context, job *Job) error {
	if job.Doc == nil {
		return fmt.Errorf("%w: no document parsed", ErrMissingInput)
	}
	r := reconcile.New(job.Doc, s.classifier,
		reconcile.WithSource(job.Source),
		reconcile.WithSettings(s.settings),
		reconcile.WithDebounce(s.debounce),
		reconcile.WithLogger(s.logger),
		reconcile.WithClock(s.clock),
	)
	job.Reconciler = r
	job.Report = r.RunPass()
	return nil
}

// RenderStep writes the annotated page into a directory.
type RenderStep struct {
	dir string
}

// NewRenderStep creates a render step writing into dir.
func NewRenderStep(dir string) *RenderStep {
	return &RenderStep{dir: dir}
}

// Name returns the step name.
func (s *RenderStep) Name() string {
	return "render"
}

// Do renders job.Doc to OutputPath(dir, job.Source).
func (s *RenderStep) Do(_ context.Context, job *Job) error {
	if job.Doc == nil {
		return fmt.Errorf("%w: no document parsed", ErrMissingInput)
	}
	path := OutputPath(s.dir, job.Source)
	if err := WriteDocument(path, job.Doc); err != nil {
		return err
	}
	job.OutputPath = path
	return nil
}

// WriteDocument renders doc to path, replacing the file atomically.
func WriteDocument(path string, doc *dom.Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return fmt.Errorf("failed to render document: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp) //nolint:errcheck // best effort cleanup
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// OutputPath returns where the annotated copy of source is written in dir.
// File sources keep their base name; URLs are named after host and path.
// A short hash of the full source keeps names unique.
func OutputPath(dir, source string) string {
	name := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if fetch.IsURL(source) {
		if u, err := url.Parse(source); err == nil {
			name = u.Host + u.Path
		}
	}
	name = strings.Trim(unsafeName.ReplaceAllString(name, "_"), "_.")
	if name == "" {
		name = "page"
	}

	sum := sha256.Sum256([]byte(source))
	return filepath.Join(dir, name+"-"+hex.EncodeToString(sum[:4])+".html")
}

// Recorder persists pass reports. *store.Store satisfies it.
type Recorder interface {
	SavePass(ctx context.Context, report *model.PassReport) (int64, error)
}

// RecordStep stores the job's pass report.
type RecordStep struct {
	recorder Recorder
}

// NewRecordStep creates a record step.
func NewRecordStep(recorder Recorder) *RecordStep {
	return &RecordStep{recorder: recorder}
}

// Name returns the step name.
func (s *RecordStep) Name() string {
	return "record"
}

// Do saves job.Report.
func (s *RecordStep) Do(ctx context.Context, job *Job) error {
	id, err := s.recorder.SavePass(ctx, job.Report)
	if err != nil {
		return fmt.Errorf("failed to record pass: %w", err)
	}
	job.PassID = id
	return nil
}

// DefaultPipelineConfig selects the optional steps of DefaultPipeline.
type DefaultPipelineConfig struct {
	// OutputDir enables the render step when not empty.
	OutputDir string

	// Recorder enables the record step when not nil.
	Recorder Recorder

	// ReconcileOptions are passed to the reconcile step.
	ReconcileOptions []ReconcileStepOption
}

// DefaultPipelineOption configures DefaultPipeline.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineOutputDir writes annotated pages into dir.
func WithPipelineOutputDir(dir string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.OutputDir = dir
	}
}

// WithPipelineRecorder records pass reports with r.
func WithPipelineRecorder(r Recorder) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Recorder = r
	}
}

// WithPipelineReconcileOptions passes options to the reconcile step.
func WithPipelineReconcileOptions(opts ...ReconcileStepOption) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.ReconcileOptions = append(c.ReconcileOptions, opts...)
	}
}

// DefaultPipeline builds load, parse and reconcile, followed by render and
// record when configured.
func DefaultPipeline(
	fetcher *fetch.Fetcher,
	cls *classifier.Classifier,
	settings config.Settings,
	pipelineOpts []Option,
	configOpts ...DefaultPipelineOption,
) *Pipeline {
	cfg := &DefaultPipelineConfig{}
	for _, opt := range configOpts {
		opt(cfg)
	}

	p := New(pipelineOpts...)
	p.AddSteps(
		NewLoadStep(fetcher),
		NewParseStep(),
		NewReconcileStep(cls, settings, cfg.ReconcileOptions...),
	)
	if cfg.OutputDir != "" {
		p.AddStep(NewRenderStep(cfg.OutputDir))
	}
	if cfg.Recorder != nil {
		p.AddStep(NewRecordStep(cfg.Recorder))
	}
	return p
}
