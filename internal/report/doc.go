// Package report renders pass reports.
//
// Writers turn one or more model.PassReport values into text for a terminal
// (SimpleWriter), JSON for other tools (JSONWriter, FullJSONWriter) or
// Markdown for sharing (MarkdownWriter). Writers implement the Writer
// interface and can be combined with MultiWriter.
package report
