package classifier

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BaseKeywords is the fixed keyword set of keyword mode.
var BaseKeywords = []string{"tutorial", "lecture", "how to", "study", "course", "education"}

// fold lowercases s. A Caser is stateful, so each call gets its own.
func fold(s string) string {
	return cases.Lower(language.Und).String(s)
}

// IsEducationalKeyword reports whether the lowercased title contains one of
// the base keywords or one of extra as a substring. Extra keywords are
// trimmed and lowercased; empty ones are ignored.
func IsEducationalKeyword(title string, extra []string) bool {
	_, ok := MatchKeyword(title, extra)
	return ok
}

// MatchKeyword returns the first keyword found in title.
func MatchKeyword(title string, extra []string) (string, bool) {
	t := fold(title)
	for _, k := range BaseKeywords {
		if strings.Contains(t, k) {
			return k, true
		}
	}
	for _, k := range extra {
		k = fold(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if strings.Contains(t, k) {
			return k, true
		}
	}
	return "", false
}
