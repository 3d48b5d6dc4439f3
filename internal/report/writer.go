package report

import (
	"io"

	"github.com/nao1215/studysight/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs a single pass report.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.PassReport) (int, error)

	// WriteBatch outputs the reports of several pages as one document.
	WriteBatch(reports []*model.PassReport) (int, error)
}

// MultiWriter writes to multiple Writers in order.
// It stops on the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
func (m *MultiWriter) Write(report *model.PassReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteBatch outputs the reports to all configured Writers.
func (m *MultiWriter) WriteBatch(reports []*model.PassReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteBatch(reports)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Summary aggregates the counters of several reports.
type Summary struct {
	Pages      int `json:"pages"`
	Failed     int `json:"failed"`
	Items      int `json:"items"`
	Kept       int `json:"kept"`
	Suppressed int `json:"suppressed"`
	ShortForm  int `json:"short_form"`
}

// Summarize adds up reports. Nil entries are skipped.
func Summarize(reports []*model.PassReport) Summary {
	var s Summary
	for _, r := range reports {
		if r == nil {
			continue
		}
		s.Pages++
		if r.Error != "" {
			s.Failed++
		}
		s.Items += r.Total()
		s.Kept += r.Kept
		s.Suppressed += r.Suppressed
		s.ShortForm += r.ShortForm
	}
	return s
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
