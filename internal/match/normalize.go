// Package match aligns game records across the odds and prediction
// sources, which spell team names differently. Matching is a boolean
// acceptance gate built from normalization, an alias table, and a
// token-superset rule; it is deterministic and symmetric.
package match

import (
	"strings"
	"unicode"
)

// Normalize returns the canonical lowercase form of a team name:
// case-folded, punctuation stripped, noise words dropped, common
// abbreviations rewritten, whitespace collapsed to single spaces.
func Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "&", "and")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '/' || r == '(' || r == ')':
			b.WriteByte(' ')
		}
	}

	var toks []string
	for _, f := range strings.Fields(b.String()) {
		switch f {
		case "university", "univ":
			continue
		case "state":
			f = "st"
		case "ill":
			f = "illinois"
		case "mich":
			f = "michigan"
		case "va":
			f = "virginia"
		}
		toks = append(toks, f)
	}
	return strings.Join(toks, " ")
}
