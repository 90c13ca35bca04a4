package models

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slugify derives a URL slug from a post title. It is unicode-aware: letters
// and digits from any script are kept, so non-Latin titles produce readable
// slugs. The result is NFKC-normalized, lowercased, with runs of whitespace
// and hyphens collapsed to a single hyphen.
//
// The slug is a pure function of the title; callers must never accept a
// user-supplied slug.
func Slugify(title string) string {
	normalized := norm.NFKC.String(title)

	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r) || r == '-':
			b.WriteRune('-')
		}
	}

	slug := b.String()
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-_")
}
