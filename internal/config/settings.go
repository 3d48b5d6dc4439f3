package config

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// keywordSeparator separates extra keywords in their string form.
const keywordSeparator = ","

// Settings are the user-facing suppression settings.
// The reconciler holds one value and replaces it wholesale on update; other
// components receive it by value and never modify it.
type Settings struct {
	// Enabled is the global switch. When false nothing is suppressed.
	Enabled bool `json:"enabled"`

	// ExtraKeywords are normalized keywords added to the base keyword set.
	ExtraKeywords []string `json:"extra_keywords"`
}

// DefaultSettings returns the settings used before any are stored.
func DefaultSettings() Settings {
	return Settings{Enabled: true, ExtraKeywords: []string{}}
}

// NewSettings builds Settings from the string form used by the settings
// store and the message channel.
func NewSettings(enabled bool, extraKeywords string) Settings {
	return Settings{Enabled: enabled, ExtraKeywords: ParseKeywords(extraKeywords)}
}

// ParseKeywords splits a comma separated keyword list. Entries are trimmed
// and lowercased; empty entries are dropped. Order is preserved.
func ParseKeywords(s string) []string {
	lower := cases.Lower(language.Und)
	out := []string{}
	for _, part := range strings.Split(s, keywordSeparator) {
		k := strings.TrimSpace(part)
		if k == "" {
			continue
		}
		out = append(out, lower.String(k))
	}
	return out
}

// KeywordString joins the extra keywords back into their string form.
func (s Settings) KeywordString() string {
	return strings.Join(s.ExtraKeywords, ", ")
}

// Equal reports whether two settings values are identical.
func (s Settings) Equal(o Settings) bool {
	return s.Enabled == o.Enabled && slices.Equal(s.ExtraKeywords, o.ExtraKeywords)
}

// Clone returns a copy that shares no memory with s.
func (s Settings) Clone() Settings {
	return Settings{Enabled: s.Enabled, ExtraKeywords: slices.Clone(s.ExtraKeywords)}
}
