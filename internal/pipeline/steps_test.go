package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/studysight/internal/classifier"
	"github.com/nao1215/studysight/internal/config"
	"github.com/nao1215/studysight/internal/dom"
	"github.com/nao1215/studysight/internal/fetch"
	"github.com/nao1215/studysight/internal/model"
	"github.com/nao1215/studysight/internal/store"
)

const homePage = `<!DOCTYPE html><html><head><title>Home</title></head><body><div id="contents">
<ytd-rich-item-renderer><a id="video-title">Statistics course, week 2</a></ytd-rich-item-renderer>
<ytd-rich-item-renderer><a id="video-title">Unboxing the new phone</a></ytd-rich-item-renderer>
</div></body></html>`

func writePage(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "home.html")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write page: %v", err)
	}
	return path
}

type memRecorder struct {
	saved []*model.PassReport
	err   error
}

func (m *memRecorder) SavePass(_ context.Context, report *model.PassReport) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.saved = append(m.saved, report)
	return int64(len(m.saved)), nil
}

// TestDefaultPipeline tests a full run over a local page.
func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	source := writePage(t, homePage)
	outDir := t.TempDir()
	rec := &memRecorder{}

	p := DefaultPipeline(
		fetch.NewFetcher(nil),
		classifier.New(),
		config.DefaultSettings(),
		[]Option{WithLogger(discard)},
		WithPipelineOutputDir(outDir),
		WithPipelineRecorder(rec),
		WithPipelineReconcileOptions(WithReconcileLogger(discard)),
	)
	if diff := cmp.Diff([]string{"load", "parse", "reconcile", "render", "record"}, p.StepNames()); diff != "" {
		t.Fatalf("step names mismatch (-want +got):\n%s", diff)
	}

	job := NewJob(source, fixedNow())
	if err := p.Execute(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if job.Report.Kept != 1 || job.Report.Suppressed != 1 {
		t.Errorf("expected 1 kept and 1 suppressed, got %d and %d", job.Report.Kept, job.Report.Suppressed)
	}
	if job.Report.Source != source {
		t.Errorf("expected report source %q, got %q", source, job.Report.Source)
	}
	if job.PassID != 1 || len(rec.saved) != 1 {
		t.Errorf("expected the pass to be recorded once, got id %d", job.PassID)
	}

	out, err := os.ReadFile(job.OutputPath)
	if err != nil {
		t.Fatalf("failed to read rendered page: %v", err)
	}
	if !strings.Contains(string(out), "blur(13px)") {
		t.Error("expected the rendered page to carry the blur")
	}
	if !strings.HasPrefix(job.OutputPath, outDir) {
		t.Errorf("expected output under %s, got %s", outDir, job.OutputPath)
	}
}

// TestLoadStep tests page loading.
func TestLoadStep(t *testing.T) {
	t.Parallel()

	t.Run("rejects non-HTML responses", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{}`))
		}))
		t.Cleanup(srv.Close)

		job := NewJob(srv.URL, fixedNow())
		err := NewLoadStep(fetch.NewFetcher(srv.Client())).Do(context.Background(), job)
		if !errors.Is(err, dom.ErrNotHTML) {
			t.Errorf("expected dom.ErrNotHTML, got %v", err)
		}
	})

	t.Run("missing file fails", func(t *testing.T) {
		t.Parallel()

		job := NewJob(filepath.Join(t.TempDir(), "nope.html"), fixedNow())
		if err := NewLoadStep(fetch.NewFetcher(nil)).Do(context.Background(), job); err == nil {
			t.Error("expected an error for a missing file")
		}
	})
}

// TestStepsRequireInput tests that steps report a missing predecessor.
func TestStepsRequireInput(t *testing.T) {
	t.Parallel()

	steps := []Step{
		NewParseStep(),
		NewReconcileStep(classifier.New(), config.DefaultSettings()),
		NewRenderStep(t.TempDir()),
	}
	for _, s := range steps {
		t.Run(s.Name(), func(t *testing.T) {
			t.Parallel()
			if err := s.Do(context.Background(), newTestJob()); !errors.Is(err, ErrMissingInput) {
				t.Errorf("expected ErrMissingInput, got %v", err)
			}
		})
	}
}

// TestRecordStep tests storing the pass in the SQLite store.
func TestRecordStep(t *testing.T) {
	t.Parallel()

	t.Run("saves into the store", func(t *testing.T) {
		t.Parallel()

		s, err := store.Open(t.TempDir(), store.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })

		job := newTestJob()
		job.Report.Add(model.ItemResult{Title: "Physics lecture", Outcome: model.OutcomeKept, Mode: "keyword", Keyword: "lecture"})
		if err := NewRecordStep(s).Do(context.Background(), job); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, err := s.GetPass(context.Background(), job.PassID)
		if err != nil {
			t.Fatalf("failed to read pass: %v", err)
		}
		if got == nil || got.Kept != 1 {
			t.Errorf("expected stored pass with 1 kept item, got %+v", got)
		}
	})

	t.Run("wraps recorder errors", func(t *testing.T) {
		t.Parallel()

		errDB := errors.New("locked")
		err := NewRecordStep(&memRecorder{err: errDB}).Do(context.Background(), newTestJob())
		if !errors.Is(err, errDB) {
			t.Errorf("expected wrapped recorder error, got %v", err)
		}
	})
}

// TestOutputPath tests output file naming.
func TestOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		prefix string
	}{
		{name: "file keeps base name", source: "/tmp/pages/home.html", prefix: "home-"},
		{name: "url uses host and path", source: "https://www.youtube.com/feed/subscriptions", prefix: "www.youtube.com_feed_subscriptions-"},
		{name: "bare host", source: "https://www.youtube.com/", prefix: "www.youtube.com-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := OutputPath("out", tt.source)
			if filepath.Dir(got) != "out" {
				t.Errorf("expected dir out, got %s", filepath.Dir(got))
			}
			base := filepath.Base(got)
			if !strings.HasPrefix(base, tt.prefix) || !strings.HasSuffix(base, ".html") {
				t.Errorf("expected %s*.html, got %s", tt.prefix, base)
			}
		})
	}

	if OutputPath("out", "a/home.html") == OutputPath("out", "b/home.html") {
		t.Error("expected different sources to get different names")
	}
}
