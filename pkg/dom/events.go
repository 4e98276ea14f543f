package dom

import "golang.org/x/net/html"

// Listener handles an event dispatched to target.
type Listener func(target *html.Node)

type listener struct {
	fn Listener
}

// AddEventListener registers fn for events of type typ on n and returns a
// function that removes it again.
func (d *Document) AddEventListener(n *html.Node, typ string, fn Listener) (remove func()) {
	l := &listener{fn: fn}
	byType, ok := d.listeners[n]
	if !ok {
		byType = make(map[string][]*listener)
		d.listeners[n] = byType
	}
	byType[typ] = append(byType[typ], l)

	return func() {
		byType, ok := d.listeners[n]
		if !ok {
			return
		}
		ls := byType[typ]
		for i, have := range ls {
			if have == l {
				byType[typ] = append(ls[:i:i], ls[i+1:]...)
				break
			}
		}
		if len(byType[typ]) == 0 {
			delete(byType, typ)
		}
		if len(byType) == 0 {
			delete(d.listeners, n)
		}
	}
}

// Dispatch invokes the listeners registered for typ on n, in registration
// order, and returns how many ran. Events do not bubble.
func (d *Document) Dispatch(n *html.Node, typ string) int {
	ls := append([]*listener(nil), d.listeners[n][typ]...)
	for _, l := range ls {
		l.fn(n)
	}
	return len(ls)
}

// ListenerCount returns the number of listeners registered on n.
func (d *Document) ListenerCount(n *html.Node) int {
	total := 0
	for _, ls := range d.listeners[n] {
		total += len(ls)
	}
	return total
}
