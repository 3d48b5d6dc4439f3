package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".studysight"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// ModelFile locates the classifier resources.
type ModelFile struct {
	// Dir is a directory containing vocab.json and model_params.json.
	Dir string `yaml:"dir,omitempty"`

	// URL is a base URL serving the same two files.
	URL string `yaml:"url,omitempty"`
}

// File represents the structure of the .studysight configuration file.
type File struct {
	// Model locates the classifier resources.
	Model ModelFile `yaml:"model,omitempty"`

	// Debounce overrides the pass debounce interval (e.g. "250ms").
	Debounce time.Duration `yaml:"debounce,omitempty"`

	// Timeout overrides the HTTP timeout (e.g. "10s").
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// UserAgent overrides the HTTP User-Agent.
	UserAgent string `yaml:"userAgent,omitempty"`

	// MaxBodySize overrides the body size limit in bytes.
	MaxBodySize int64 `yaml:"maxBodySize,omitempty"`

	// DBDir overrides the store directory.
	DBDir string `yaml:"dbDir,omitempty"`
}

// LoadConfigFile loads a configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// Apply copies every value set in the file onto cfg.
func (cf *File) Apply(cfg *Config) {
	if cf.Model.Dir != "" {
		cfg.ModelDir = cf.Model.Dir
	}
	if cf.Model.URL != "" {
		cfg.ModelURL = cf.Model.URL
	}
	if cf.Debounce != 0 {
		cfg.Debounce = cf.Debounce
	}
	if cf.Timeout != 0 {
		cfg.Timeout = cf.Timeout
	}
	if cf.UserAgent != "" {
		cfg.UserAgent = cf.UserAgent
	}
	if cf.MaxBodySize != 0 {
		cfg.MaxBodySize = cf.MaxBodySize
	}
	if cf.DBDir != "" {
		cfg.DBDir = cf.DBDir
	}
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .studysight in the current directory
// 3. Look for .studysight in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
