package model

import "time"

// Strategy names the locator strategy that produced a pass's items.
type Strategy string

const (
	// StrategyPrimary is the light-tree card query.
	StrategyPrimary Strategy = "primary"

	// StrategyFallback is the deep title query across shadow roots.
	StrategyFallback Strategy = "fallback"

	// StrategyNone means neither strategy found an item.
	StrategyNone Strategy = "none"

	// StrategyDisabled means the pass removed all suppression instead of
	// locating items.
	StrategyDisabled Strategy = "disabled"
)

// ItemResult is the decision taken for one located item.
type ItemResult struct {
	// Title is the trimmed item title. Empty for short-form items.
	Title string `json:"title,omitempty"`

	// Outcome is what the pass did with the item.
	Outcome Outcome `json:"outcome"`

	// Mode is the classifier mode that decided ("keyword" or "model").
	// Empty for short-form items.
	Mode string `json:"mode,omitempty"`

	// Keyword is the matched keyword in keyword mode.
	Keyword string `json:"keyword,omitempty"`

	// Probability is the model probability in model mode.
	Probability float64 `json:"probability,omitempty"`
}

// PassReport summarizes one reconciliation pass.
type PassReport struct {
	// Source is the page the pass ran over.
	Source string `json:"source"`

	// StartedAt is when the pass began.
	StartedAt time.Time `json:"started_at"`

	// Duration is how long the pass took.
	Duration time.Duration `json:"duration"`

	// Enabled is the global switch at the time of the pass.
	Enabled bool `json:"enabled"`

	// ModelReady is true when the model decided instead of the keywords.
	ModelReady bool `json:"model_ready"`

	// Strategy is the locator strategy that produced Items.
	Strategy Strategy `json:"strategy"`

	// Items holds one entry per located item in document order.
	Items []ItemResult `json:"items,omitempty"`

	// Kept, Suppressed and ShortForm count Items by outcome.
	Kept       int `json:"kept"`
	Suppressed int `json:"suppressed"`
	ShortForm  int `json:"short_form"`

	// Cleared is the number of cards un-suppressed by a disabled pass.
	Cleared int `json:"cleared,omitempty"`

	// Error is set when the pass could not run over the page.
	Error string `json:"error,omitempty"`
}

// NewPassReport starts a report for source.
func NewPassReport(source string, now time.Time) *PassReport {
	return &PassReport{
		Source:    source,
		StartedAt: now,
		Strategy:  StrategyNone,
		Items:     []ItemResult{},
	}
}

// Add appends an item and updates the outcome counters.
func (r *PassReport) Add(item ItemResult) {
	r.Items = append(r.Items, item)
	switch item.Outcome {
	case OutcomeKept:
		r.Kept++
	case OutcomeSuppressed:
		r.Suppressed++
	case OutcomeShortForm:
		r.ShortForm++
	}
}

// Total returns the number of located items.
func (r *PassReport) Total() int {
	return len(r.Items)
}

// Finish records the pass duration.
func (r *PassReport) Finish(now time.Time) {
	r.Duration = now.Sub(r.StartedAt)
}
