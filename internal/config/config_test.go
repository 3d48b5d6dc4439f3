package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Debounce is 100ms", func(t *testing.T) {
		t.Parallel()
		if cfg.Debounce != 100*time.Millisecond {
			t.Errorf("expected Debounce to be 100ms, got %v", cfg.Debounce)
		}
	})

	t.Run("default Timeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout to be 30s, got %v", cfg.Timeout)
		}
	})

	t.Run("default BatchSize is 4", func(t *testing.T) {
		t.Parallel()
		if cfg.BatchSize != 4 {
			t.Errorf("expected BatchSize to be 4, got %d", cfg.BatchSize)
		}
	})

	t.Run("no model is configured", func(t *testing.T) {
		t.Parallel()
		if cfg.HasModel() {
			t.Error("expected no model source by default")
		}
	})

	t.Run("store lives in the XDG data dir", func(t *testing.T) {
		t.Parallel()
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected DBDir %q, got %q", XDGDataDir(), cfg.DBDir)
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Sources = []string{"testdata/home.html"}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid config returns nil", mutate: func(*Config) {}},
		{name: "empty sources", mutate: func(c *Config) { c.Sources = nil }, wantErr: ErrNoSource},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, wantErr: ErrInvalidTimeout},
		{name: "negative debounce", mutate: func(c *Config) { c.Debounce = -time.Millisecond }, wantErr: ErrInvalidDebounce},
		{name: "zero debounce is allowed", mutate: func(c *Config) { c.Debounce = 0 }},
		{name: "zero batch size", mutate: func(c *Config) { c.BatchSize = 0 }, wantErr: ErrInvalidBatchSize},
		{
			name:    "json and markdown together",
			mutate:  func(c *Config) { c.JSONReport, c.MarkdownReport = true, true },
			wantErr: ErrConflictingReportFormats,
		},
		{
			name:    "model dir and url together",
			mutate:  func(c *Config) { c.ModelDir, c.ModelURL = "/models", "http://localhost/json/" },
			wantErr: ErrConflictingModelSources,
		},
		{name: "negative body size", mutate: func(c *Config) { c.MaxBodySize = -1 }, wantErr: ErrInvalidMaxBodySize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.studysight")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".studysight")
		content := `model:
  dir: /opt/studysight/json
debounce: 250ms
timeout: 5s
userAgent: "test-agent"
maxBodySize: 1024
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cf, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := &File{
			Model:       ModelFile{Dir: "/opt/studysight/json"},
			Debounce:    250 * time.Millisecond,
			Timeout:     5 * time.Second,
			UserAgent:   "test-agent",
			MaxBodySize: 1024,
		}
		if diff := cmp.Diff(want, cf); diff != "" {
			t.Errorf("config file mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".studysight")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})
}

// TestFileApply tests that only values present in the file override the config.
func TestFileApply(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cf := &File{Model: ModelFile{URL: "http://localhost/json/"}, Debounce: time.Second}
	cf.Apply(cfg)

	if cfg.ModelURL != "http://localhost/json/" {
		t.Errorf("expected model URL to be applied, got %q", cfg.ModelURL)
	}
	if cfg.Debounce != time.Second {
		t.Errorf("expected debounce 1s, got %v", cfg.Debounce)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout to survive, got %v", cfg.Timeout)
	}
	if cfg.UserAgent != DefaultUserAgent {
		t.Errorf("expected default user agent to survive, got %q", cfg.UserAgent)
	}
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("debounce: 1s\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":   XDGDataDir(),
		"config": XDGConfigDir(),
		"cache":  XDGCacheDir(),
	} {
		if !strings.HasSuffix(dir, AppName) {
			t.Errorf("expected XDG %s dir to end with %q, got %q", name, AppName, dir)
		}
	}
}

// TestParseKeywords tests normalization of the extra keyword list.
func TestParseKeywords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty string", input: "", want: []string{}},
		{name: "trims and lowercases", input: " Math , PHYSICS", want: []string{"math", "physics"}},
		{name: "drops empty entries", input: "a,, ,b,", want: []string{"a", "b"}},
		{name: "keeps inner spaces", input: "Khan Academy", want: []string{"khan academy"}},
		{name: "keeps order", input: "z,a,m", want: []string{"z", "a", "m"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.want, ParseKeywords(tt.input)); diff != "" {
				t.Errorf("ParseKeywords(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

// TestSettings tests the Settings helpers.
func TestSettings(t *testing.T) {
	t.Parallel()

	t.Run("defaults are enabled with no keywords", func(t *testing.T) {
		t.Parallel()
		s := DefaultSettings()
		if !s.Enabled || len(s.ExtraKeywords) != 0 {
			t.Errorf("unexpected defaults: %+v", s)
		}
	})

	t.Run("keyword string round trip", func(t *testing.T) {
		t.Parallel()
		s := NewSettings(true, "Math, physics")
		if got := s.KeywordString(); got != "math, physics" {
			t.Errorf("expected %q, got %q", "math, physics", got)
		}
		if !s.Equal(NewSettings(true, s.KeywordString())) {
			t.Error("expected settings rebuilt from KeywordString to be equal")
		}
	})

	t.Run("clone does not share keywords", func(t *testing.T) {
		t.Parallel()
		s := NewSettings(true, "a,b")
		c := s.Clone()
		c.ExtraKeywords[0] = "changed"
		if s.ExtraKeywords[0] != "a" {
			t.Error("expected original keywords to be untouched")
		}
	})
}
