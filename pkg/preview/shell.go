package preview

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

const shellStyles = `body { font-family: system-ui, sans-serif; max-width: 960px; margin: 2rem auto; padding: 0 1rem; background: #f3f4f6; color: #111827; }
h1 { font-size: 1.5rem; }
h2 { font-size: 0.9rem; color: #6b7280; font-weight: 500; margin: 2rem 0 0.5rem; }
.empty { color: #6b7280; }`

// HostPage is the generated host page: one embed directive per widget id,
// each loading the runtime from scriptURL.
func HostPage(title, scriptURL string, widgets []string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var sb strings.Builder
		sb.WriteString(`<!doctype html><html lang="en"><head><meta charset="utf-8">`)
		sb.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		sb.WriteString(`<title>` + templ.EscapeString(title) + `</title>`)
		sb.WriteString(`<style>` + shellStyles + `</style></head><body>`)
		sb.WriteString(`<h1>` + templ.EscapeString(title) + `</h1>`)
		if len(widgets) == 0 {
			sb.WriteString(`<p class="empty">No widgets configured.</p>`)
		}
		for _, id := range widgets {
			sb.WriteString(`<section class="vouch-preview"><h2>` + templ.EscapeString(id) + `</h2>`)
			sb.WriteString(`<script src="` + templ.EscapeString(scriptURL) + `" data-widget="` + templ.EscapeString(id) + `" async></script>`)
			sb.WriteString(`</section>`)
		}
		sb.WriteString(`</body></html>`)
		_, err := io.WriteString(w, sb.String())
		return err
	})
}
