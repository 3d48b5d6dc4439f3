package main

import (
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/studysight/internal/config"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "studysight" {
			t.Errorf("expected use 'studysight', got %q", cmd.Use)
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		want := map[string]bool{"scan": false, "watch": false, "settings": false, "history": false, "init": false, "version": false}
		for _, sub := range cmd.Commands() {
			if _, ok := want[sub.Name()]; ok {
				want[sub.Name()] = true
			}
		}
		for name, found := range want {
			if !found {
				t.Errorf("expected %s subcommand", name)
			}
		}
	})

	t.Run("silences usage and errors", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage || !cmd.SilenceErrors {
			t.Error("expected SilenceUsage and SilenceErrors to be true")
		}
	})
}

// parsedScanCmd returns a scan command with args parsed but not run.
func parsedScanCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := NewScanCmd()
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	return cmd
}

// TestBuildConfig tests flag and config file precedence.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults without flags", func(t *testing.T) {
		t.Parallel()

		cfgPath := writeFile(t, t.TempDir(), "empty.yaml", "{}\n")
		cfg, err := buildConfig(parsedScanCmd(t, "-c", cfgPath), []string{"home.html"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Debounce != config.DefaultDebounce || cfg.BatchSize != config.DefaultBatchSize {
			t.Errorf("expected defaults, got debounce %v batch %d", cfg.Debounce, cfg.BatchSize)
		}
		if len(cfg.Sources) != 1 || cfg.Sources[0] != "home.html" {
			t.Errorf("unexpected sources %v", cfg.Sources)
		}
	})

	t.Run("file values apply and flags win", func(t *testing.T) {
		t.Parallel()

		cfgPath := writeFile(t, t.TempDir(), "cfg.yaml", "debounce: 250ms\ntimeout: 5s\nmodel:\n  dir: /models\n")
		cfg, err := buildConfig(parsedScanCmd(t, "-c", cfgPath, "--timeout", "7s", "--json"), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Debounce != 250*time.Millisecond {
			t.Errorf("expected file debounce, got %v", cfg.Debounce)
		}
		if cfg.Timeout != 7*time.Second {
			t.Errorf("expected flag timeout, got %v", cfg.Timeout)
		}
		if cfg.ModelDir != "/models" {
			t.Errorf("expected file model dir, got %q", cfg.ModelDir)
		}
		if !cfg.JSONReport {
			t.Error("expected JSON report")
		}
	})

	t.Run("explicit missing config file fails", func(t *testing.T) {
		t.Parallel()

		if _, err := buildConfig(parsedScanCmd(t, "-c", "/nonexistent/.studysight"), nil); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}
