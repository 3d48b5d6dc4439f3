package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/studysight/internal/model"
)

// MarkdownWriter outputs reports in GitHub-flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs one report.
func (w *MarkdownWriter) Write(report *model.PassReport) (int, error) {
	return w.WriteBatch([]*model.PassReport{report})
}

// WriteBatch outputs a summary of all reports followed by one section per
// page.
func (w *MarkdownWriter) WriteBatch(reports []*model.PassReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("StudySight Report")
	md.PlainText("")

	w.writeSummary(md, Summarize(reports))
	for _, r := range reports {
		if r != nil {
			w.writePage(md, r)
		}
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeSummary writes the totals table, chart and alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, s Summary) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"✅ Kept", strconv.Itoa(s.Kept)},
			{"🙈 Suppressed", strconv.Itoa(s.Suppressed)},
			{"⏩ Short form", strconv.Itoa(s.ShortForm)},
			{"**Total**", "**" + strconv.Itoa(s.Items) + "**"},
		},
	})
	md.PlainText("")

	if s.Items > 0 {
		w.writePieChart(md, s)
	}
	w.writeAlert(md, s)
}

// writePieChart writes a mermaid pie chart of the outcome distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Outcome Distribution"),
		piechart.WithShowData(true),
	)
	if s.Kept > 0 {
		chart.LabelAndIntValue("Kept", uint64(s.Kept))
	}
	if s.Suppressed > 0 {
		chart.LabelAndIntValue("Suppressed", uint64(s.Suppressed))
	}
	if s.ShortForm > 0 {
		chart.LabelAndIntValue("Short form", uint64(s.ShortForm))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, s Summary) {
	switch {
	case s.Failed > 0:
		md.Warningf("%d of %d page(s) could not be processed.", s.Failed, s.Pages)
	case s.Items == 0:
		md.Note("No video items were found.")
	case s.Kept == 0:
		md.Importantf("Nothing was kept. All %d item(s) were suppressed.", s.Items)
	default:
		md.Tip(fmt.Sprintf("%d of %d item(s) kept.", s.Kept, s.Items))
	}
	md.PlainText("")
}

// writePage writes one page section.
func (w *MarkdownWriter) writePage(md *markdown.Markdown, report *model.PassReport) {
	md.H2(report.Source)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Pass Date", report.StartedAt.Format(timeLayout)},
			{"Classifier", classifierText(report)},
			{"Strategy", "`" + string(report.Strategy) + "`"},
			{"Status", statusText(report)},
		},
	})
	md.PlainText("")

	if report.Strategy == model.StrategyDisabled {
		md.PlainTextf("Suppression is off. %d card(s) cleared.", report.Cleared)
		md.PlainText("")
		return
	}
	if len(report.Items) == 0 {
		md.PlainText("No video items found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(report.Items))
	for _, it := range report.Items {
		rows = append(rows, []string{
			truncateString(it.Title, titleWidth),
			it.Outcome.String(),
			it.Mode,
			detailText(it),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Title", "Outcome", "Mode", "Detail"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [StudySight](https://github.com/nao1215/studysight)*")
}

func statusText(report *model.PassReport) string {
	if report.Error != "" {
		return "❌ Error - " + report.Error
	}
	return "✅ Complete"
}

func detailText(it model.ItemResult) string {
	switch {
	case it.Keyword != "":
		return "`" + it.Keyword + "`"
	case it.Mode == "model":
		return strconv.FormatFloat(it.Probability, 'f', 3, 64)
	default:
		return ""
	}
}
