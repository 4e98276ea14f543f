package dom

import "golang.org/x/net/html"

// ShadowRootAttr marks a <template> as a declarative shadow root, so the
// serialized page keeps the isolation boundary when a browser parses it.
const ShadowRootAttr = "shadowrootmode"

// AttachShadow gives host an open isolation root and returns it. Content
// appended to the returned node is rendered inside the boundary.
func (d *Document) AttachShadow(host *html.Node) (*html.Node, error) {
	if ShadowRoot(host) != nil {
		return nil, ErrShadowAttached
	}
	root := Element("template", ShadowRootAttr, "open")
	if host.FirstChild != nil {
		host.InsertBefore(root, host.FirstChild)
	} else {
		host.AppendChild(root)
	}
	d.notify()
	return root, nil
}

// ShadowRoot returns the isolation root of host, or nil.
func ShadowRoot(host *html.Node) *html.Node {
	if host == nil {
		return nil
	}
	for c := host.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "template" {
			continue
		}
		if _, ok := Attr(c, ShadowRootAttr); ok {
			return c
		}
	}
	return nil
}

// Host returns the element owning the isolation root that contains n, or
// nil when n is not inside one.
func Host(n *html.Node) *html.Node {
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "template" {
			if _, ok := Attr(p, ShadowRootAttr); ok {
				return p.Parent
			}
		}
	}
	return nil
}
