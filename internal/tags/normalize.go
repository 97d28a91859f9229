package tags

import (
	"strings"

	"golang.org/x/text/cases"
)

// MaxNameLength bounds a normalized tag name, in runes.
const MaxNameLength = 32

// NormalizeName is the identity key of a tag: surrounding space trimmed, inner
// whitespace collapsed to one space, and Unicode case-folded.
//
//	"  Go   Lang " → "go lang"
//	"GOLANG"       → "golang"
func NormalizeName(raw string) string {
	s := strings.Join(strings.Fields(raw), " ")
	if s == "" {
		return ""
	}
	// Casers keep state; one per call.
	return cases.Fold().String(s)
}

// NormalizeNames normalizes every name, dropping blanks and later duplicates.
func NormalizeNames(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		n := NormalizeName(r)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
