package classifier

import (
	"errors"
	"fmt"
	"math"
	"regexp"
)

// DecisionThreshold is the probability above which a title is educational.
const DecisionThreshold = 0.5

var (
	// ErrModelShape is returned when coefficients and vocabulary disagree.
	ErrModelShape = errors.New("model coefficients do not match vocabulary")

	// ErrModelLoaded is returned when a model is set twice.
	ErrModelLoaded = errors.New("model already loaded")
)

// nonWord splits titles into tokens on runs of characters outside [0-9A-Za-z_].
var nonWord = regexp.MustCompile(`\W+`)

// Model is a trained linear text classifier. It is immutable once built.
type Model struct {
	// Vocabulary maps a normalized token to its coefficient index.
	Vocabulary map[string]int

	// Intercept is the bias term added to every score.
	Intercept float64

	// Coefficients holds one weight per vocabulary entry.
	Coefficients []float64
}

// NewModel validates the parameters and builds a Model. The coefficient count
// must equal the vocabulary size and every index must address a coefficient.
func NewModel(vocabulary map[string]int, intercept float64, coefficients []float64) (*Model, error) {
	if len(coefficients) != len(vocabulary) {
		return nil, fmt.Errorf("%w: %d coefficients for %d tokens", ErrModelShape, len(coefficients), len(vocabulary))
	}
	for token, idx := range vocabulary {
		if idx < 0 || idx >= len(coefficients) {
			return nil, fmt.Errorf("%w: token %q has index %d", ErrModelShape, token, idx)
		}
	}
	if math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		return nil, fmt.Errorf("%w: intercept is not finite", ErrModelShape)
	}

	vocab := make(map[string]int, len(vocabulary))
	for k, v := range vocabulary {
		vocab[k] = v
	}
	coef := make([]float64, len(coefficients))
	copy(coef, coefficients)

	return &Model{Vocabulary: vocab, Intercept: intercept, Coefficients: coef}, nil
}

// Tokenize lowercases title and splits it on runs of non-word characters.
// Empty tokens are dropped.
func Tokenize(title string) []string {
	parts := nonWord.Split(fold(title), -1)
	tokens := parts[:0]
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// Score returns the intercept plus the coefficient of every known token in
// title. Repeated tokens count once per occurrence; unknown tokens add zero.
func (m *Model) Score(title string) float64 {
	score := m.Intercept
	for _, tok := range Tokenize(title) {
		if idx, ok := m.Vocabulary[tok]; ok {
			score += m.Coefficients[idx]
		}
	}
	return score
}

// Probability returns the logistic of Score.
func (m *Model) Probability(title string) float64 {
	return sigmoid(m.Score(title))
}

// IsEducational reports whether Probability exceeds DecisionThreshold.
func (m *Model) IsEducational(title string) bool {
	return m.Probability(title) > DecisionThreshold
}

// Size returns the vocabulary size.
func (m *Model) Size() int {
	return len(m.Vocabulary)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
