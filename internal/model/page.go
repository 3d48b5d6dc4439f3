package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// MaxPageSize is the maximum size of raw page content kept in memory.
// Larger pages are truncated to this size.
const MaxPageSize = 10 * 1024 * 1024 // 10 MB

// Page is a loaded listing page before it is parsed into a content tree.
type Page struct {
	// Source is the file path or URL the page was read from.
	Source string `json:"source"`

	// StatusCode is the HTTP response status code. Zero for local files.
	StatusCode int `json:"status_code,omitempty"`

	// ContentType is the MIME type of the response.
	// Local files are assumed to be text/html.
	ContentType string `json:"content_type"`

	// Raw contains the page bytes.
	Raw []byte `json:"-"`

	// Hash is the SHA-256 hash of Raw. The watch command uses it to skip
	// reloads of unchanged files.
	Hash string `json:"hash"`

	// FetchedAt is when the page was read.
	FetchedAt time.Time `json:"fetched_at"`
}

// ComputeHash calculates and sets the SHA-256 hash of the page's raw content.
// This should be called after setting the Raw field.
func (p *Page) ComputeHash() {
	if len(p.Raw) == 0 {
		p.Hash = ""
		return
	}

	hash := sha256.Sum256(p.Raw)
	p.Hash = hex.EncodeToString(hash[:])
}

// IsHTML returns true if the page content type indicates HTML.
func (p *Page) IsHTML() bool {
	ct := strings.ToLower(strings.TrimSpace(p.ContentType))
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

// TruncateRaw ensures the raw content doesn't exceed MaxPageSize.
func (p *Page) TruncateRaw() {
	if len(p.Raw) > MaxPageSize {
		p.Raw = p.Raw[:MaxPageSize]
	}
}
