package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/studysight/internal/classifier"
	"github.com/nao1215/studysight/internal/config"
	"github.com/nao1215/studysight/internal/fetch"
	"github.com/nao1215/studysight/internal/log"
)

// NewRootCmd creates the root command for StudySight.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "studysight",
		Short: "Keep educational videos in view and blur the rest",
		Long: `StudySight classifies the video items of a listing page by title and
blurs every item that does not look educational.

Titles are classified by a trained linear model when one is configured and
by keyword rules until it has loaded. Settings (the global switch and extra
keywords) live in a local store shared by all commands.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewWatchCmd())
	cmd.AddCommand(NewSettingsCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the stderr logger for a command.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewLogger(os.Stderr, verbose)
}

// addPageFlags registers the flags shared by scan and watch.
func addPageFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .studysight in current or home directory)")
	cmd.Flags().String("model-dir", "",
		"Directory holding vocab.json and model_params.json")
	cmd.Flags().String("model-url", "",
		"Base URL serving vocab.json and model_params.json")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().Duration("debounce", config.DefaultDebounce,
		"Delay between a page change and the next pass")
	cmd.Flags().StringP("out-dir", "d", "",
		"Write annotated pages into this directory")
	cmd.Flags().String("db-dir", "",
		"Settings and history store directory (default: XDG data directory)")
	cmd.Flags().Bool("save", false,
		"Record pass reports in the history store")
}

// buildConfig creates a Config from defaults, the config file and the
// flags the user set, in that order of precedence.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicit path must exist; the default locations are optional.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cf.Apply(cfg)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if err := stringFlag(cmd, "model-dir", &cfg.ModelDir); err != nil {
		return nil, err
	}
	if err := stringFlag(cmd, "model-url", &cfg.ModelURL); err != nil {
		return nil, err
	}
	if err := durationFlag(cmd, "timeout", &cfg.Timeout); err != nil {
		return nil, err
	}
	if err := durationFlag(cmd, "debounce", &cfg.Debounce); err != nil {
		return nil, err
	}
	if err := durationFlag(cmd, "model-wait", &cfg.ModelWait); err != nil {
		return nil, err
	}
	if err := stringFlag(cmd, "out-dir", &cfg.OutputDir); err != nil {
		return nil, err
	}
	if err := stringFlag(cmd, "db-dir", &cfg.DBDir); err != nil {
		return nil, err
	}
	if err := intFlag(cmd, "batch", &cfg.BatchSize); err != nil {
		return nil, err
	}
	if err := boolFlag(cmd, "save", &cfg.SaveToDB); err != nil {
		return nil, err
	}
	if err := boolFlag(cmd, "json", &cfg.JSONReport); err != nil {
		return nil, err
	}
	if err := boolFlag(cmd, "markdown", &cfg.MarkdownReport); err != nil {
		return nil, err
	}
	if err := stringFlag(cmd, "output", &cfg.ReportFile); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Sources = args
	return cfg, nil
}

// The flag helpers copy a flag into dst only when the command defines it
// and the user set it, so config file values survive unset flags.

func stringFlag(cmd *cobra.Command, name string, dst *string) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetString(name)
	if err == nil {
		*dst = v
	}
	return err
}

func durationFlag(cmd *cobra.Command, name string, dst *time.Duration) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetDuration(name)
	if err == nil {
		*dst = v
	}
	return err
}

func intFlag(cmd *cobra.Command, name string, dst *int) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetInt(name)
	if err == nil {
		*dst = v
	}
	return err
}

func boolFlag(cmd *cobra.Command, name string, dst *bool) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetBool(name)
	if err == nil {
		*dst = v
	}
	return err
}

// newFetcher creates the fetcher for pages and model resources.
func newFetcher(cfg *config.Config) *fetch.Fetcher {
	return fetch.NewFetcher(
		newHTTPClient(cfg.Timeout),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
	)
}

// modelSource returns the configured model source, or nil in keyword mode.
func modelSource(cfg *config.Config, fetcher *fetch.Fetcher) classifier.Source {
	switch {
	case cfg.ModelDir != "":
		return classifier.FSSource{Dir: cfg.ModelDir}
	case cfg.ModelURL != "":
		return classifier.HTTPSource{BaseURL: cfg.ModelURL, Opener: fetcher}
	default:
		return nil
	}
}
