package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// TestBatchProcessorNew tests the BatchProcessor constructor.
func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []BatchOption
		want int
	}{
		{name: "default concurrency", want: defaultConcurrency},
		{name: "explicit concurrency", opts: []BatchOption{WithConcurrency(7)}, want: 7},
		{name: "ignores non-positive concurrency", opts: []BatchOption{WithConcurrency(0)}, want: defaultConcurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			bp := NewBatchProcessor(func() *Pipeline { return New() }, tt.opts...)
			if bp.concurrency != tt.want {
				t.Errorf("expected concurrency %d, got %d", tt.want, bp.concurrency)
			}
		})
	}
}

// TestProcessBatch tests concurrent processing.
func TestProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("returns jobs in input order", func(t *testing.T) {
		t.Parallel()

		factory := func() *Pipeline {
			p := New(WithLogger(discard))
			p.AddStep(&mockStep{name: "noop"})
			return p
		}
		bp := NewBatchProcessor(factory, WithBatchLogger(discard), WithConcurrency(2))

		sources := []string{"a.html", "b.html", "c.html", "d.html"}
		jobs, err := bp.ProcessBatch(context.Background(), sources)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, job := range jobs {
			if job == nil {
				t.Fatalf("job %d is nil", i)
			}
			if job.Source != sources[i] {
				t.Errorf("job %d: expected source %q, got %q", i, sources[i], job.Source)
			}
		}
	})

	t.Run("failures stay in their job", func(t *testing.T) {
		t.Parallel()

		factory := func() *Pipeline {
			p := New(WithLogger(discard))
			p.AddStep(&mockStep{name: "maybe", doFunc: func(_ context.Context, job *Job) error {
				if job.Source == "bad.html" {
					return errors.New("unreadable")
				}
				return nil
			}})
			return p
		}
		bp := NewBatchProcessor(factory, WithBatchLogger(discard))

		jobs, err := bp.ProcessBatch(context.Background(), []string{"good.html", "bad.html"})
		if err != nil {
			t.Fatalf("expected no batch error, got %v", err)
		}
		if jobs[0].Report.Error != "" {
			t.Errorf("expected good page to succeed, got %q", jobs[0].Report.Error)
		}
		if jobs[1].Report.Error != "unreadable" {
			t.Errorf("expected bad page error, got %q", jobs[1].Report.Error)
		}
	})

	t.Run("limits concurrency", func(t *testing.T) {
		t.Parallel()

		var running, peak atomic.Int32
		factory := func() *Pipeline {
			p := New(WithLogger(discard))
			p.AddStep(&mockStep{name: "slow", doFunc: func(context.Context, *Job) error {
				n := running.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				running.Add(-1)
				return nil
			}})
			return p
		}
		bp := NewBatchProcessor(factory, WithBatchLogger(discard), WithConcurrency(2))

		if _, err := bp.ProcessBatch(context.Background(), []string{"1", "2", "3", "4", "5", "6"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := peak.Load(); got > 2 {
			t.Errorf("expected at most 2 concurrent pages, got %d", got)
		}
	})

	t.Run("cancelled batch reports the context error", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		bp := NewBatchProcessor(func() *Pipeline { return New(WithLogger(discard)) }, WithBatchLogger(discard))
		if _, err := bp.ProcessBatch(ctx, []string{"a", "b"}); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("callback sees every job", func(t *testing.T) {
		t.Parallel()

		var seen atomic.Int32
		bp := NewBatchProcessor(func() *Pipeline { return New(WithLogger(discard)) }, WithBatchLogger(discard))
		err := bp.ProcessBatchWithCallback(context.Background(), []string{"a", "b", "c"}, func(*Job, int) {
			seen.Add(1)
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seen.Load() != 3 {
			t.Errorf("expected 3 callbacks, got %d", seen.Load())
		}
	})
}
