package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nao1215/studysight/internal/config"
	"github.com/nao1215/studysight/internal/store"
)

// NewSettingsCmd creates the settings command.
func NewSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the suppression settings",
		Long: `Settings manages the global switch and the extra keywords.

Settings are stored in the studysight store. Running watch sessions pick up
changes immediately.

Examples:
  # Show the current settings
  studysight settings show

  # Turn suppression off
  studysight settings set --enabled=false

  # Keep titles mentioning these words in keyword mode
  studysight settings set --keywords "math, physics, khan academy"`,
	}
	cmd.PersistentFlags().String("db-dir", "",
		"Settings store directory (default: XDG data directory)")

	cmd.AddCommand(newSettingsShowCmd())
	cmd.AddCommand(newSettingsSetCmd())
	return cmd
}

func newSettingsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			db, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			return showSettings(cmd.Context(), db, cmd.OutOrStdout(), asJSON)
		},
	}
	cmd.Flags().BoolP("json", "j", false, "Print settings as JSON")
	return cmd
}

func newSettingsSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change the settings",
		Long: `Set changes the given settings and keeps the others.

The keyword list replaces the stored list. Keywords are separated by commas,
trimmed and lowercased; pass an empty string to clear the list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var enabled *bool
			if cmd.Flags().Changed("enabled") {
				v, err := cmd.Flags().GetBool("enabled")
				if err != nil {
					return err
				}
				enabled = &v
			}
			var keywords *string
			if cmd.Flags().Changed("keywords") {
				v, err := cmd.Flags().GetString("keywords")
				if err != nil {
					return err
				}
				keywords = &v
			}
			if enabled == nil && keywords == nil {
				return errNothingToSet
			}

			db, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			return setSettings(cmd.Context(), db, cmd.OutOrStdout(), enabled, keywords)
		},
	}
	cmd.Flags().Bool("enabled", true, "Global switch; false removes all suppression")
	cmd.Flags().String("keywords", "", "Comma separated extra keywords")
	return cmd
}

// errNothingToSet is returned by settings set without flags.
var errNothingToSet = errors.New("nothing to set: use --enabled or --keywords")

// openStore opens the store named by --db-dir or the configured default.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dir == "" {
		dir = config.XDGDataDir()
	}
	db, err := store.Open(dir, store.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return db, nil
}

// settingsView is the printed form of the settings.
type settingsView struct {
	Enabled       bool   `json:"enabled"`
	ExtraKeywords string `json:"extraKeywords"`
	Revision      int64  `json:"revision"`
}

func showSettings(ctx context.Context, db *store.Store, out io.Writer, asJSON bool) error {
	s, err := db.LoadSettings(ctx)
	if err != nil {
		return err
	}
	rev, err := db.SettingsRevision(ctx)
	if err != nil {
		return err
	}
	view := settingsView{Enabled: s.Enabled, ExtraKeywords: s.KeywordString(), Revision: rev}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	state := "on"
	if !view.Enabled {
		state = "off"
	}
	keywords := view.ExtraKeywords
	if keywords == "" {
		keywords = "(none)"
	}
	fmt.Fprintf(out, "Suppression:     %s\n", state)
	fmt.Fprintf(out, "Extra keywords:  %s\n", keywords)
	fmt.Fprintf(out, "Revision:        %d\n", view.Revision)
	return nil
}

// setSettings merges the given values into the stored settings. Nil values
// keep the stored ones.
func setSettings(ctx context.Context, db *store.Store, out io.Writer, enabled *bool, keywords *string) error {
	current, err := db.LoadSettings(ctx)
	if err != nil {
		return err
	}

	next := current.Clone()
	if enabled != nil {
		next.Enabled = *enabled
	}
	if keywords != nil {
		next.ExtraKeywords = config.ParseKeywords(*keywords)
	}

	if next.Equal(current) {
		fmt.Fprintln(out, "Settings unchanged.")
		return nil
	}

	rev, err := db.SaveSettings(ctx, next)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Settings saved (revision %d).\n", rev)
	return nil
}
