package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/studysight/internal/model"
)

// timeLayout is used for pass timestamps in text and Markdown output.
const timeLayout = "2006-01-02 15:04:05 MST"

// titleWidth bounds titles in item listings.
const titleWidth = 60

// SimpleWriter outputs human-readable text reports.
// Plain ASCII is used so output can be piped to files or other tools.
type SimpleWriter struct {
	baseWriter

	// showKept lists kept items as well as suppressed ones.
	showKept bool

	// verbose adds classifier details to each item.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowKept lists kept items too.
func WithShowKept(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showKept = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs one report.
func (w *SimpleWriter) Write(report *model.PassReport) (int, error) {
	var sb strings.Builder
	w.writeBanner(&sb)
	w.writePage(&sb, report)
	w.writeFooter(&sb)
	return w.output.Write([]byte(sb.String()))
}

// WriteBatch outputs every report followed by a totals section.
func (w *SimpleWriter) WriteBatch(reports []*model.PassReport) (int, error) {
	var sb strings.Builder
	w.writeBanner(&sb)
	for _, r := range reports {
		if r != nil {
			w.writePage(&sb, r)
		}
	}
	if len(reports) > 1 {
		w.writeTotals(&sb, Summarize(reports))
	}
	w.writeFooter(&sb)
	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeBanner(sb *strings.Builder) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        STUDYSIGHT REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writePage writes the header, counters and items of one report.
func (w *SimpleWriter) writePage(sb *strings.Builder, report *model.PassReport) {
	w.section(sb, "PAGE "+report.Source)

	fmt.Fprintf(sb, "Pass Date:   %s\n", report.StartedAt.Format(timeLayout))
	fmt.Fprintf(sb, "Classifier:  %s\n", classifierText(report))
	fmt.Fprintf(sb, "Strategy:    %s\n", report.Strategy)
	if report.Error != "" {
		fmt.Fprintf(sb, "Status:      ERROR - %s\n", report.Error)
	} else {
		sb.WriteString("Status:      Complete\n")
	}
	sb.WriteString("\n")

	if report.Strategy == model.StrategyDisabled {
		fmt.Fprintf(sb, "  Suppression is off. %d card(s) cleared.\n\n", report.Cleared)
		return
	}

	fmt.Fprintf(sb, "  KEPT:        %d\n", report.Kept)
	fmt.Fprintf(sb, "  SUPPRESSED:  %d\n", report.Suppressed)
	fmt.Fprintf(sb, "  SHORT FORM:  %d\n", report.ShortForm)
	fmt.Fprintf(sb, "  TOTAL:       %d items\n\n", report.Total())

	for _, it := range report.Items {
		if it.Outcome == model.OutcomeKept && !w.showKept {
			continue
		}
		w.writeItem(sb, it)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeItem(sb *strings.Builder, it model.ItemResult) {
	title := it.Title
	if title == "" {
		title = "(short form)"
	}
	fmt.Fprintf(sb, "  [%s] %s\n", outcomeIndicator(it.Outcome), truncateString(title, titleWidth))
	if !w.verbose {
		return
	}
	switch {
	case it.Keyword != "":
		fmt.Fprintf(sb, "        keyword: %s\n", it.Keyword)
	case it.Mode == "model":
		fmt.Fprintf(sb, "        probability: %.3f\n", it.Probability)
	}
}

func (w *SimpleWriter) writeTotals(sb *strings.Builder, s Summary) {
	w.section(sb, "TOTALS")
	fmt.Fprintf(sb, "  PAGES:       %d (%d failed)\n", s.Pages, s.Failed)
	fmt.Fprintf(sb, "  KEPT:        %d\n", s.Kept)
	fmt.Fprintf(sb, "  SUPPRESSED:  %d\n", s.Suppressed)
	fmt.Fprintf(sb, "  SHORT FORM:  %d\n", s.ShortForm)
	fmt.Fprintf(sb, "  TOTAL:       %d items\n\n", s.Items)
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by StudySight\n")
	sb.WriteString("https://github.com/nao1215/studysight\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// outcomeIndicator returns a short marker for the outcome.
func outcomeIndicator(o model.Outcome) string {
	switch o {
	case model.OutcomeKept:
		return "+"
	case model.OutcomeSuppressed:
		return "x"
	case model.OutcomeShortForm:
		return "s"
	default:
		return "?"
	}
}

func classifierText(report *model.PassReport) string {
	switch {
	case !report.Enabled:
		return "off"
	case report.ModelReady:
		return "model"
	default:
		return "keywords"
	}
}
