// Package orgs matches managed organization names against listing titles.
package orgs

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinMatchLength is the shortest normalized name allowed to match.
// Shorter names hit unrelated titles too often.
const MinMatchLength = 4

var nonNameChars = regexp.MustCompile(`[^0-9A-Za-z가-힣]`)

// Organization is one roster entry.
type Organization struct {
	Name       string
	Normalized string
}

// New builds an Organization from its display name.
func New(name string) Organization {
	return Organization{Name: name, Normalized: Normalize(name)}
}

// Normalize keeps ASCII letters, digits and Hangul syllables, lowercased.
func Normalize(text string) string {
	return strings.ToLower(nonNameChars.ReplaceAllString(text, ""))
}

// Match returns the first organization, in roster order, whose normalized
// name is at least MinMatchLength runes and occurs in the normalized text.
func Match(roster []Organization, text string) (Organization, bool) {
	t := Normalize(text)
	for _, o := range roster {
		if utf8.RuneCountInString(o.Normalized) >= MinMatchLength && strings.Contains(t, o.Normalized) {
			return o, true
		}
	}
	return Organization{}, false
}

// Names returns the display names in roster order.
func Names(roster []Organization) []string {
	out := make([]string, len(roster))
	for i, o := range roster {
		out[i] = o.Name
	}
	return out
}
