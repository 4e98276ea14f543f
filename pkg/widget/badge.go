package widget

import (
	"strings"

	"github.com/rubiojr/vouch/pkg/dom"
	"golang.org/x/net/html"
)

// BadgeText is the attribution shown on free plans.
const BadgeText = "Powered by Vouch"

const badgeQuery = "utm_source=widget&utm_medium=badge&utm_campaign=plg"

// BadgeURL is the attribution link target for baseURL.
func BadgeURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/?" + badgeQuery
}

// CreateBadge builds the attribution element. The link opens in a new tab
// and carries rel="noopener noreferrer" so the destination gets neither an
// opener reference nor the referrer. The element belongs inside the
// isolation root, where host page styles cannot hide it.
func CreateBadge(baseURL string) *html.Node {
	link := dom.Append(
		dom.Element("a",
			"href", BadgeURL(baseURL),
			"target", "_blank",
			"rel", "noopener noreferrer",
		),
		dom.Append(dom.Element("span", "class", "vw-badge-logo", "aria-hidden", "true"), dom.Text("★")),
		dom.Append(dom.Element("span", "class", "vw-badge-text"), dom.Text(BadgeText)),
	)
	return dom.Append(dom.Element("div", "class", "vw-badge"), link)
}
