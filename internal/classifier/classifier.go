package classifier

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/nao1215/studysight/internal/config"
)

// Mode names the strategy that produced a Decision.
type Mode string

const (
	// ModeDisabled means the global switch is off.
	ModeDisabled Mode = "disabled"
	// ModeKeyword means the keyword rules decided.
	ModeKeyword Mode = "keyword"
	// ModeModel means the linear model decided.
	ModeModel Mode = "model"
)

// Decision is the outcome of classifying one title.
type Decision struct {
	// Keep is true when the item stays visible.
	Keep bool

	// Mode is the strategy used.
	Mode Mode

	// Score and Probability are set in model mode.
	Score       float64
	Probability float64

	// Keyword is the matched keyword in keyword mode.
	Keyword string
}

// Classifier decides whether titles are kept. The model slot starts empty
// and is filled at most once; it is safe for concurrent use.
type Classifier struct {
	model  atomic.Pointer[Model]
	logger *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the logger used for model loading.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) {
		c.logger = logger
	}
}

// New creates a Classifier with no model loaded.
func New(opts ...Option) *Classifier {
	c := &Classifier{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetModel installs m. It fails with ErrModelLoaded if a model is already
// installed; the first model wins.
func (c *Classifier) SetModel(m *Model) error {
	if !c.model.CompareAndSwap(nil, m) {
		return ErrModelLoaded
	}
	return nil
}

// Ready reports whether a model is installed.
func (c *Classifier) Ready() bool {
	return c.model.Load() != nil
}

// Model returns the installed model, or nil.
func (c *Classifier) Model() *Model {
	return c.model.Load()
}

// IsEducationalModel classifies title with the model. It returns false
// while no model is installed.
func (c *Classifier) IsEducationalModel(title string) bool {
	m := c.model.Load()
	if m == nil {
		return false
	}
	return m.IsEducational(title)
}

// ShouldKeep reports whether the item titled title stays visible.
func (c *Classifier) ShouldKeep(settings config.Settings, title string) bool {
	return c.Decide(settings, title).Keep
}

// Decide classifies title under settings. A disabled switch suppresses
// everything; otherwise the model decides when ready and the keyword rules
// decide when not.
func (c *Classifier) Decide(settings config.Settings, title string) Decision {
	if !settings.Enabled {
		return Decision{Keep: false, Mode: ModeDisabled}
	}
	if m := c.model.Load(); m != nil {
		score := m.Score(title)
		p := sigmoid(score)
		return Decision{
			Keep:        p > DecisionThreshold,
			Mode:        ModeModel,
			Score:       score,
			Probability: p,
		}
	}
	kw, ok := MatchKeyword(title, settings.ExtraKeywords)
	return Decision{Keep: ok, Mode: ModeKeyword, Keyword: kw}
}

// LoadAsync loads the model from src in the background. The returned channel
// receives the load result once and is then closed. On failure the
// classifier stays in keyword mode for good; there is no retry.
func (c *Classifier) LoadAsync(ctx context.Context, src Source) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		m, err := LoadModel(ctx, src)
		if err == nil {
			err = c.SetModel(m)
		}
		if err != nil {
			c.logger.Error("failed to load classifier model", "source", src.String(), "error", err)
		} else {
			c.logger.Debug("classifier model loaded", "source", src.String(), "vocabulary", m.Size())
		}
		done <- err
	}()
	return done
}
