package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "studysight"

	// DefaultDebounce is how long the reconciler waits after the last
	// structural change before running a pass.
	DefaultDebounce = 100 * time.Millisecond

	// DefaultTimeout bounds each HTTP request for pages and model resources.
	DefaultTimeout = 30 * time.Second

	// DefaultModelWait is how long scan waits for the classifier model before
	// classifying with the keyword rules.
	DefaultModelWait = 10 * time.Second

	// DefaultBatchSize is the number of pages processed concurrently by scan.
	DefaultBatchSize = 4

	// DefaultUserAgent identifies studysight in HTTP requests.
	DefaultUserAgent = "StudySight/1.0 (+https://github.com/nao1215/studysight)"

	// DefaultMaxBodySize limits how much of a page or resource is read.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB
)

// Config holds all tool configuration for a studysight command.
// It is populated from defaults, the config file and CLI flags, then passed
// down explicitly.
type Config struct {
	// Sources are the HTML files or http(s) URLs to process.
	Sources []string

	// ModelDir is a directory holding vocab.json and model_params.json.
	// Empty together with ModelURL means keyword mode only.
	ModelDir string

	// ModelURL is a base URL serving vocab.json and model_params.json.
	ModelURL string

	// ModelWait bounds how long scan waits for the model to load.
	ModelWait time.Duration

	// Debounce is the delay between a structural change and the next pass.
	Debounce time.Duration

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// BatchSize is the number of pages scanned concurrently.
	BatchSize int

	// UserAgent is sent with every HTTP request.
	UserAgent string

	// MaxBodySize limits the bytes read per page or resource.
	// Zero means DefaultMaxBodySize.
	MaxBodySize int64

	// OutputDir receives the annotated HTML of each processed page.
	// Empty disables writing annotated pages.
	OutputDir string

	// JSONReport selects JSON report output. Mutually exclusive with
	// MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown report output.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// DBDir is the directory of the SQLite store holding settings and pass
	// history. Defaults to the XDG data directory.
	DBDir string

	// SaveToDB records pass reports in the store.
	SaveToDB bool

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is an explicit .studysight file path.
	ConfigFilePath string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		ModelWait:   DefaultModelWait,
		Debounce:    DefaultDebounce,
		Timeout:     DefaultTimeout,
		BatchSize:   DefaultBatchSize,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for studysight.
// On Linux: ~/.local/share/studysight
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for studysight.
// On Linux: ~/.config/studysight
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for studysight.
// On Linux: ~/.cache/studysight
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// HasModel reports whether a model source is configured.
func (c *Config) HasModel() bool {
	return c.ModelDir != "" || c.ModelURL != ""
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return ErrNoSource
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Debounce < 0 {
		return ErrInvalidDebounce
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.ModelDir != "" && c.ModelURL != "" {
		return ErrConflictingModelSources
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	return nil
}
