package bootstrap

import (
	"net/url"
	"strings"

	"github.com/rubiojr/vouch/pkg/dom"
	"golang.org/x/net/html"
)

// ResolveAPIBase picks the origin widget data is read from. The executing
// script wins; otherwise the last script whose source path contains
// scriptName; otherwise fallback.
func ResolveAPIBase(doc *dom.Document, scriptName, fallback string) string {
	if fallback == "" {
		fallback = DefaultAPIBase
	}
	if scriptName == "" {
		scriptName = DefaultScriptName
	}
	if cs := doc.CurrentScript(); cs != nil {
		if u := scriptURL(doc, cs); u != nil {
			return origin(u)
		}
	}

	var last *url.URL
	for _, s := range doc.QueryAll(dom.All(dom.Tag("script"), dom.WithAttr("src"))) {
		u := scriptURL(doc, s)
		if u != nil && strings.Contains(u.Path, scriptName) {
			last = u
		}
	}
	if last != nil {
		return origin(last)
	}
	return strings.TrimRight(fallback, "/")
}

// scriptURL resolves the src of script against the page URL. Only absolute
// http(s) results count.
func scriptURL(doc *dom.Document, script *html.Node) *url.URL {
	src, ok := dom.Attr(script, "src")
	if !ok || strings.TrimSpace(src) == "" {
		return nil
	}
	u, err := url.Parse(strings.TrimSpace(src))
	if err != nil {
		return nil
	}
	if base := doc.URL(); base != nil {
		u = base.ResolveReference(u)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil
	}
	return u
}

func origin(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}
