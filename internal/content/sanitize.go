// Package content filters untrusted rich-text HTML before persistence.
package content

import (
	"github.com/microcosm-cc/bluemonday"
)

// policy is the allow-list for editor-produced HTML. Disallowed elements and
// attributes are stripped while their inner text is preserved. Only http,
// https and mailto URLs survive in href/src.
var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br",
		"b", "strong", "i", "em", "u",
		"h1", "h2", "h3", "h4",
		"ul", "ol", "li",
		"blockquote",
		"code", "pre",
		"a",
		"img",
	)

	p.AllowAttrs("href", "title", "rel").OnElements("a")
	p.AllowAttrs("src", "alt", "title").OnElements("img")
	// the editor attaches class names for formatting
	p.AllowAttrs("class").Globally()

	p.AllowURLSchemes("http", "https", "mailto")

	return p
}

// Sanitize reduces untrusted HTML to the allow-listed subset. It runs on every
// post create and update, never on read; stored content is always
// pre-sanitized.
func Sanitize(html string) string {
	return policy.Sanitize(html)
}
