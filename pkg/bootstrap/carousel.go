package bootstrap

import (
	"strconv"
	"time"

	"github.com/rubiojr/vouch/pkg/dom"
	"golang.org/x/net/html"
)

const activeClass = "active"

// Carousel is the interaction state of one rendered carousel: the index of
// the visible slide plus the listeners, timer and document watcher that
// move it. Every method runs on the window loop.
type Carousel struct {
	doc     *dom.Document
	host    *html.Node
	slides  []*html.Node
	dots    []*html.Node
	current int

	stopTimer func()
	observer  *dom.Observer
	removers  []func()
	disposed  bool
}

// InitCarousel wires the carousel rendered under root. host is the
// container owning root; once it leaves the document the carousel disposes
// itself. An interval of zero or less disables autoplay. With no slides
// nothing is wired and both return values are no-ops.
func InitCarousel(win *dom.Window, host, root *html.Node, interval time.Duration) (*Carousel, func()) {
	doc := win.Document
	slides := dom.FindAll(root, dom.WithClass("vw-slide"))
	if len(slides) == 0 {
		return nil, func() {}
	}
	c := &Carousel{
		doc:    doc,
		host:   host,
		slides: slides,
		dots:   dom.FindAll(root, dom.All(dom.Tag("button"), dom.WithClass("vw-dot"))),
	}
	for i, s := range slides {
		if dom.HasClass(s, activeClass) {
			c.current = i
			break
		}
	}

	if prev := dom.Find(root, dom.WithClass("vw-prev")); prev != nil {
		c.listen(prev, func(*html.Node) { c.Prev() })
	}
	if next := dom.Find(root, dom.WithClass("vw-next")); next != nil {
		c.listen(next, func(*html.Node) { c.Next() })
	}
	for i, dot := range c.dots {
		idx := i
		if v, ok := dom.Attr(dot, "data-index"); ok {
			if n, err := strconv.Atoi(v); err == nil {
				idx = n
			}
		}
		c.listen(dot, func(*html.Node) { c.GoTo(idx) })
	}

	if interval > 0 {
		c.stopTimer = win.SetInterval(interval, c.Next)
	}
	c.observer = doc.Observe(func() {
		if !doc.IsConnected(c.host) {
			c.Dispose()
		}
	})
	return c, c.Dispose
}

func (c *Carousel) listen(n *html.Node, fn dom.Listener) {
	c.removers = append(c.removers, c.doc.AddEventListener(n, "click", fn))
}

// Len is the number of slides.
func (c *Carousel) Len() int { return len(c.slides) }

// Current is the index of the active slide.
func (c *Carousel) Current() int { return c.current }

// GoTo moves the active marker to slide i, wrapping in both directions.
func (c *Carousel) GoTo(i int) {
	n := len(c.slides)
	if n == 0 {
		return
	}
	c.mark(c.current, false)
	c.current = ((i % n) + n) % n
	c.mark(c.current, true)
}

// Next advances one slide.
func (c *Carousel) Next() { c.GoTo(c.current + 1) }

// Prev goes back one slide.
func (c *Carousel) Prev() { c.GoTo(c.current - 1) }

func (c *Carousel) mark(i int, on bool) {
	set := dom.RemoveClass
	if on {
		set = dom.AddClass
	}
	if i < len(c.slides) {
		set(c.slides[i], activeClass)
	}
	if i < len(c.dots) {
		set(c.dots[i], activeClass)
	}
}

// Dispose stops autoplay, removes the click listeners and disconnects the
// document watcher. It is idempotent.
func (c *Carousel) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	if c.stopTimer != nil {
		c.stopTimer()
	}
	if c.observer != nil {
		c.observer.Disconnect()
	}
	for _, remove := range c.removers {
		remove()
	}
	c.removers = nil
}

// Disposed reports whether Dispose has run.
func (c *Carousel) Disposed() bool { return c.disposed }
