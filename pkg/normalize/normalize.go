// Package normalize canonicalizes identifiers, tags and phase codes so that
// equality joins behave across sources with inconsistent formatting.
//
// Every function is pure: the same input always yields the same output. An
// empty result means "no key" and must never be used to join.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/franceroutage/annuaire/pkg/constants"
)

// Placeholders are tokens stripped (case-insensitively) from phase code
// fields before the code itself is extracted.
var Placeholders = []string{constants.NotePlaceholder}

var placeholderPattern = compilePlaceholders(Placeholders)

func compilePlaceholders(tokens []string) *regexp.Regexp {
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`(?i)` + strings.Join(quoted, "|"))
}

// Key canonicalizes a client identifier or code: trimmed and uppercased.
func Key(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return cases.Upper(language.Und).String(trimmed)
}

// PhaseCode extracts the canonical phase code from a free-text design field
// or a catalog code cell: placeholders are removed, then every rune that is
// not a letter or digit, and the remainder is uppercased.
func PhaseCode(raw string) string {
	s := placeholderPattern.ReplaceAllString(raw, "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
	return Key(s)
}

// Tag folds a reference-type tag for comparison: trimmed, accents removed,
// uppercased.
func Tag(raw string) string {
	stripped, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		strings.TrimSpace(raw),
	)
	if err != nil {
		stripped = raw
	}
	return Key(stripped)
}

// IsNote reports whether a reference-type tag marks a note line.
func IsNote(tag string) bool {
	return Tag(tag) == constants.NoteTag
}

// Title canonicalizes a title for deduplication: surrounding whitespace is
// removed, nothing else changes.
func Title(raw string) string {
	return strings.TrimSpace(raw)
}

// Text trims a free-text display value such as a name or address line.
func Text(raw string) string {
	return strings.TrimSpace(raw)
}
