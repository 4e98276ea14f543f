package widget

import (
	"html/template"
	"strings"
)

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// Escape replaces & < > " and ' with their entities and leaves every other
// character alone. All server-supplied text goes through it before it
// reaches markup.
func Escape(s string) string {
	return escaper.Replace(s)
}

// escapeHTML is the template-facing form of Escape. Its result is marked
// safe so html/template does not escape it twice.
func escapeHTML(s string) template.HTML {
	return template.HTML(Escape(s))
}
