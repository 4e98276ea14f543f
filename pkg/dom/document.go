package dom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrShadowAttached is returned when a host already owns an isolation root.
var ErrShadowAttached = errors.New("element already hosts a shadow root")

// Document is a parsed host page.
//
// A Document is not safe for concurrent use. When it is driven by a Window,
// every access must happen on the window's loop goroutine.
type Document struct {
	root          *html.Node
	url           *url.URL
	currentScript *html.Node
	observers     []*Observer
	listeners     map[*html.Node]map[string][]*listener
}

// Parse reads an HTML page. pageURL is the address the page was loaded
// from and may be empty; relative script sources resolve against it.
func Parse(r io.Reader, pageURL string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	return NewDocument(root, pageURL)
}

// ParseString is Parse over an in-memory page.
func ParseString(page, pageURL string) (*Document, error) {
	return Parse(strings.NewReader(page), pageURL)
}

// NewDocument wraps an already parsed tree.
func NewDocument(root *html.Node, pageURL string) (*Document, error) {
	if root == nil {
		return nil, errors.New("nil document root")
	}
	d := &Document{
		root:      root,
		listeners: make(map[*html.Node]map[string][]*listener),
	}
	if pageURL != "" {
		u, err := url.Parse(pageURL)
		if err != nil {
			return nil, fmt.Errorf("parsing page url %q: %w", pageURL, err)
		}
		d.url = u
	}
	return d, nil
}

// Root returns the document node.
func (d *Document) Root() *html.Node { return d.root }

// URL returns the page address, or nil when unknown.
func (d *Document) URL() *url.URL { return d.url }

// Body returns the <body> element, or nil.
func (d *Document) Body() *html.Node {
	return Find(d.root, Tag("body"))
}

// CurrentScript is the script element considered to be executing, if any.
func (d *Document) CurrentScript() *html.Node { return d.currentScript }

// SetCurrentScript marks n as the executing script.
func (d *Document) SetCurrentScript(n *html.Node) { d.currentScript = n }

// QueryAll returns every element in the document matching m.
func (d *Document) QueryAll(m Matcher) []*html.Node {
	return FindAll(d.root, m)
}

// Query returns the first element in the document matching m.
func (d *Document) Query(m Matcher) *html.Node {
	return Find(d.root, m)
}

// InsertBefore inserts the detached node n as the previous sibling of ref.
func (d *Document) InsertBefore(n, ref *html.Node) error {
	if ref == nil || ref.Parent == nil {
		return errors.New("reference node is not attached")
	}
	if n.Parent != nil {
		return errors.New("node is already attached")
	}
	ref.Parent.InsertBefore(n, ref)
	d.notify()
	return nil
}

// AppendChild appends the detached node n to parent.
func (d *Document) AppendChild(parent, n *html.Node) error {
	if n.Parent != nil {
		return errors.New("node is already attached")
	}
	parent.AppendChild(n)
	d.notify()
	return nil
}

// Remove detaches n from its parent. Removing a detached node is a no-op.
func (d *Document) Remove(n *html.Node) {
	if n == nil || n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
	d.notify()
}

// AppendHTML parses markup as a fragment and appends the resulting nodes
// to parent. Observers are notified once for the whole fragment.
func (d *Document) AppendHTML(parent *html.Node, markup string) error {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return fmt.Errorf("parsing fragment: %w", err)
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	d.notify()
	return nil
}

// IsConnected reports whether n is attached to this document. Nodes inside
// an isolation root are connected as long as their host is.
func (d *Document) IsConnected(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.root {
			return true
		}
	}
	return false
}

// Render serializes the page.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String serializes the page, returning an empty string on failure.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}
