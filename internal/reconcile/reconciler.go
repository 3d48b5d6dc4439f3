package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nao1215/studysight/internal/annotate"
	"github.com/nao1215/studysight/internal/classifier"
	"github.com/nao1215/studysight/internal/config"
	"github.com/nao1215/studysight/internal/dom"
	"github.com/nao1215/studysight/internal/locator"
	"github.com/nao1215/studysight/internal/model"
)

var (
	// ErrStopped is returned by Do and Deliver after Run has returned.
	ErrStopped = errors.New("reconciler stopped")

	// ErrRunning is returned by Run when the loop is already running.
	ErrRunning = errors.New("reconciler already running")
)

// SettingsSource provides the persisted settings. *store.Store satisfies it.
type SettingsSource interface {
	LoadSettings(ctx context.Context) (config.Settings, error)
}

// PassHook receives every finished pass report on the loop goroutine.
type PassHook func(report *model.PassReport)

// Reconciler drives passes over one document.
//
// Methods other than Run, Do and Deliver touch loop-owned state. Call them
// from inside Do, from a pass hook, or before Run has been started.
//
// Design decision: all state is owned by the goroutine running Run rather
// than guarded by a mutex because:
// 1. Mutation callbacks, the debounce timer and settings messages all end up
//    as work on one queue, so a pass never overlaps another
// 2. The document and annotation state are plain trees with no locking
// 3. The debounce timer can be stopped and rearmed without racing its firing
type Reconciler struct {
	doc        *dom.Document
	classifier *classifier.Classifier
	locator    *locator.Locator
	annotator  *annotate.Annotator

	source         string
	settings       config.Settings
	settingsSource SettingsSource
	debounce       time.Duration
	logger         *slog.Logger
	passHook       PassHook
	now            func() time.Time

	timer       *time.Timer
	pending     bool
	observation *dom.Observation

	work    chan func()
	done    chan struct{}
	running atomic.Bool
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithSettings sets the initial settings. The default is
// config.DefaultSettings().
func WithSettings(s config.Settings) Option {
	return func(r *Reconciler) {
		r.settings = s.Clone()
	}
}

// WithSettingsSource sets where Deliver re-reads settings when a
// notification carries no values.
func WithSettingsSource(src SettingsSource) Option {
	return func(r *Reconciler) {
		r.settingsSource = src
	}
}

// WithDebounce sets the delay between a structural change and its pass.
func WithDebounce(d time.Duration) Option {
	return func(r *Reconciler) {
		if d >= 0 {
			r.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithPassHook registers a function that receives every pass report.
func WithPassHook(hook PassHook) Option {
	return func(r *Reconciler) {
		r.passHook = hook
	}
}

// WithSource names the page in pass reports.
func WithSource(source string) Option {
	return func(r *Reconciler) {
		r.source = source
	}
}

// WithClock replaces time.Now for pass timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates a Reconciler for doc and subscribes once to structural changes
// under the document body.
func New(doc *dom.Document, cls *classifier.Classifier, opts ...Option) *Reconciler {
	r := &Reconciler{
		doc:        doc,
		classifier: cls,
		locator:    locator.New(),
		annotator:  annotate.New(doc),
		settings:   config.DefaultSettings(),
		debounce:   config.DefaultDebounce,
		logger:     slog.New(slog.DiscardHandler),
		now:        time.Now,
		work:       make(chan func()),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.timer = time.NewTimer(time.Hour)
	r.timer.Stop()
	r.observation = doc.Observe(doc.Body(), func([]dom.MutationRecord) {
		r.OnTreeMutated()
	})
	return r
}

// Document returns the reconciled document.
func (r *Reconciler) Document() *dom.Document {
	return r.doc
}

// Annotator returns the annotator, for hover dispatch and inspection.
func (r *Reconciler) Annotator() *annotate.Annotator {
	return r.annotator
}

// Settings returns a copy of the current settings.
func (r *Reconciler) Settings() config.Settings {
	return r.settings.Clone()
}

// Pending reports whether a debounced pass is scheduled.
func (r *Reconciler) Pending() bool {
	return r.pending
}

// RunPass locates every item, classifies it and applies the result. With
// the switch off it removes all suppression instead.
func (r *Reconciler) RunPass() *model.PassReport {
	report := model.NewPassReport(r.source, r.now())
	report.Enabled = r.settings.Enabled
	report.ModelReady = r.classifier.Ready()

	if !r.settings.Enabled {
		report.Strategy = model.StrategyDisabled
		report.Cleared = r.annotator.RemoveAll(r.locator.Cards(r.doc.Root()))
		return r.finish(report)
	}

	items, strategy := r.locator.Locate(r.doc.Root())
	report.Strategy = strategy
	for _, it := range items {
		if it.ShortForm {
			r.annotator.Apply(it.Card, true)
			report.Add(model.ItemResult{Outcome: model.OutcomeShortForm})
			continue
		}

		d := r.classifier.Decide(r.settings, it.Title)
		r.annotator.Apply(it.Card, !d.Keep)

		outcome := model.OutcomeKept
		if !d.Keep {
			outcome = model.OutcomeSuppressed
		}
		report.Add(model.ItemResult{
			Title:       it.Title,
			Outcome:     outcome,
			Mode:        string(d.Mode),
			Keyword:     d.Keyword,
			Probability: d.Probability,
		})
		r.logger.Debug("item classified", "title", it.Title, "outcome", outcome.String(), "mode", string(d.Mode))
	}
	return r.finish(report)
}

func (r *Reconciler) finish(report *model.PassReport) *model.PassReport {
	report.Finish(r.now())
	r.logger.Debug("pass complete",
		"source", report.Source,
		"strategy", string(report.Strategy),
		"kept", report.Kept,
		"suppressed", report.Suppressed,
		"short_form", report.ShortForm,
		"cleared", report.Cleared,
	)
	if r.passHook != nil {
		r.passHook(report)
	}
	return report
}

// OnTreeMutated schedules a pass after the debounce interval, replacing any
// pass already scheduled. Nothing is scheduled while the switch is off.
func (r *Reconciler) OnTreeMutated() {
	if !r.settings.Enabled {
		return
	}
	r.timer.Reset(r.debounce)
	r.pending = true
}

// OnSettingsChanged replaces the settings and runs a pass immediately. A
// scheduled pass is dropped.
func (r *Reconciler) OnSettingsChanged(s config.Settings) *model.PassReport {
	r.settings = s.Clone()
	r.cancelPending()
	return r.RunPass()
}

// RemoveAll un-suppresses every known card and returns how many were
// suppressed.
func (r *Reconciler) RemoveAll() int {
	return r.annotator.RemoveAll(r.locator.Cards(r.doc.Root()))
}

func (r *Reconciler) cancelPending() {
	r.timer.Stop()
	r.pending = false
}

// Run executes queued work and debounced passes until ctx is done. It
// returns ctx.Err() on cancellation, or ErrRunning if the loop is already
// running. A Reconciler runs at most once.
func (r *Reconciler) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer close(r.done)
	defer r.observation.Disconnect()
	defer r.cancelPending()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-r.work:
			fn()
		case <-r.timer.C:
			r.pending = false
			r.RunPass()
		}
	}
}

// Do runs fn on the loop goroutine and waits for it to finish. It must not
// be called from the loop goroutine itself.
func (r *Reconciler) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}

	select {
	case r.work <- task:
	case <-r.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	// The loop has taken the task and runs it to completion before it
	// looks at anything else.
	<-finished
	return nil
}
