package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Resource names of the classifier model.
const (
	VocabularyFile = "vocab.json"
	ParamsFile     = "model_params.json"
)

// Source opens named model resources.
type Source interface {
	// Open returns the content of the resource called name.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// String describes the source for logs.
	String() string
}

// FSSource reads resources from a directory.
type FSSource struct {
	Dir string
}

// Open implements Source.
func (s FSSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(s.Dir, name)) //nolint:gosec // Model directory is user-provided
}

func (s FSSource) String() string {
	return s.Dir
}

// Opener opens a URL. *fetch.Fetcher satisfies it.
type Opener interface {
	Open(ctx context.Context, source string) (io.ReadCloser, error)
}

// HTTPSource reads resources relative to a base URL.
type HTTPSource struct {
	BaseURL string
	Opener  Opener
}

// Open implements Source.
func (s HTTPSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	u, err := url.JoinPath(strings.TrimRight(s.BaseURL, "/")+"/", name)
	if err != nil {
		return nil, fmt.Errorf("invalid model URL %q: %w", s.BaseURL, err)
	}
	return s.Opener.Open(ctx, u)
}

func (s HTTPSource) String() string {
	return s.BaseURL
}

// params is the wire form of model_params.json.
type params struct {
	Intercept *float64  `json:"intercept"`
	Coef      []float64 `json:"coef"`
}

// LoadModel fetches both resources from src concurrently and builds a Model.
func LoadModel(ctx context.Context, src Source) (*Model, error) {
	var (
		vocab map[string]int
		p     params
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return decode(gctx, src, VocabularyFile, &vocab)
	})
	g.Go(func() error {
		return decode(gctx, src, ParamsFile, &p)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if vocab == nil {
		return nil, fmt.Errorf("%w: %s is empty", ErrModelShape, VocabularyFile)
	}
	if p.Intercept == nil {
		return nil, fmt.Errorf("%w: %s has no intercept", ErrModelShape, ParamsFile)
	}
	return NewModel(vocab, *p.Intercept, p.Coef)
}

func decode(ctx context.Context, src Source, name string, v any) error {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer rc.Close()

	if err := json.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}
