package dom

import "golang.org/x/net/html"

// Matcher selects element nodes.
type Matcher func(*html.Node) bool

// Tag matches elements by tag name.
func Tag(tag string) Matcher {
	return func(n *html.Node) bool { return n.Data == tag }
}

// WithAttr matches elements that carry key, whatever its value.
func WithAttr(key string) Matcher {
	return func(n *html.Node) bool {
		_, ok := Attr(n, key)
		return ok
	}
}

// WithClass matches elements whose class list contains c.
func WithClass(c string) Matcher {
	return func(n *html.Node) bool { return HasClass(n, c) }
}

// All matches when every matcher does.
func All(ms ...Matcher) Matcher {
	return func(n *html.Node) bool {
		for _, m := range ms {
			if !m(n) {
				return false
			}
		}
		return true
	}
}

// FindAll returns the elements below root (root included) matching m, in
// document order. Isolation roots are searched too.
func FindAll(root *html.Node, m Matcher) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && m(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// Find returns the first element below root matching m, or nil.
func Find(root *html.Node, m Matcher) *html.Node {
	var found *html.Node
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && m(n) {
			found = n
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	if root != nil {
		walk(root)
	}
	return found
}
