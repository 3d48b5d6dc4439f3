// Package log builds the slog loggers used by studysight.
//
// Log records often carry text taken from listing pages: video titles,
// page URLs, model resource URLs. The SanitizeHandler cleans such values
// before they are written:
//   - control characters (newlines, escapes) are replaced with spaces
//   - long values are truncated
//   - credentials in URLs and values of sensitive keys are masked
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	logger.Debug("item suppressed", "title", title)
package log
