package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/studysight/internal/model"
	"github.com/nao1215/studysight/internal/report"
	"github.com/nao1215/studysight/internal/store"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [source]",
		Short: "List recorded passes",
		Long: `History lists passes recorded with --save, newest first.

Examples:
  # Last 20 passes over any page
  studysight history

  # Passes over one page
  studysight history home.html --limit 5

  # Full report of pass 12 as Markdown
  studysight history show 12 --markdown

  # Drop passes older than 30 days
  studysight history prune --older-than 720h`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}
			source := ""
			if len(args) == 1 {
				source = args[0]
			}

			db, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			records, err := db.ListPasses(cmd.Context(), source, limit)
			if err != nil {
				return err
			}
			return printHistory(cmd.OutOrStdout(), records)
		},
	}
	cmd.PersistentFlags().String("db-dir", "",
		"History store directory (default: XDG data directory)")
	cmd.Flags().IntP("limit", "n", 20, "Maximum number of passes to list (0 for all)")

	cmd.AddCommand(newHistoryShowCmd())
	cmd.AddCommand(newHistoryPruneCmd())
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print the full report of a recorded pass",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid pass id %q: %w", args[0], err)
			}
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			asMarkdown, err := cmd.Flags().GetBool("markdown")
			if err != nil {
				return err
			}

			db, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			r, err := db.GetPass(cmd.Context(), id)
			if err != nil {
				return err
			}
			if r == nil {
				return fmt.Errorf("%w: pass %d", store.ErrNotFound, id)
			}

			var w report.Writer
			switch {
			case asJSON:
				w = report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint())
			case asMarkdown:
				w = report.NewMarkdownWriter(cmd.OutOrStdout())
			default:
				w = report.NewSimpleWriter(cmd.OutOrStdout(), report.WithShowKept(true))
			}
			_, err = w.Write(r)
			return err
		},
	}
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
	return cmd
}

func newHistoryPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old passes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			age, err := cmd.Flags().GetDuration("older-than")
			if err != nil {
				return err
			}
			if age <= 0 {
				return fmt.Errorf("invalid --older-than %s: must be positive", age)
			}

			db, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := db.PruneBefore(cmd.Context(), time.Now().Add(-age))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d pass(es).\n", n)
			return nil
		},
	}
	cmd.Flags().Duration("older-than", 30*24*time.Hour, "Delete passes older than this")
	return cmd
}

// printHistory prints pass summaries, one per line.
func printHistory(out io.Writer, records []store.PassRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(out, "No passes recorded.")
		return err
	}

	fmt.Fprintf(out, "Recorded passes (%d):\n\n", len(records))
	fmt.Fprintf(out, "  %-6s  %-19s  %-9s  %-24s  %s\n", "ID", "Date", "Strategy", "Kept/Suppressed/Short", "Source")
	for _, r := range records {
		counts := fmt.Sprintf("%d/%d/%d", r.Kept, r.Suppressed, r.ShortForm)
		if r.Strategy == model.StrategyDisabled {
			counts = fmt.Sprintf("%d cleared", r.Cleared)
		}
		fmt.Fprintf(out, "  %-6d  %-19s  %-9s  %-24s  %s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Strategy,
			counts,
			r.Source,
		)
	}
	return nil
}
