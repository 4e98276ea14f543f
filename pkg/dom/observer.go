package dom

// Observer receives a callback after every child-list mutation made through
// the Document. Attribute changes are not reported.
type Observer struct {
	doc *Document
	fn  func()
}

// Observe registers fn and returns the observer handle.
func (d *Document) Observe(fn func()) *Observer {
	o := &Observer{doc: d, fn: fn}
	d.observers = append(d.observers, o)
	return o
}

// Disconnect stops delivery. It is safe to call more than once, including
// from inside the observer's own callback.
func (o *Observer) Disconnect() {
	if o.doc == nil {
		return
	}
	obs := o.doc.observers
	for i, have := range obs {
		if have == o {
			o.doc.observers = append(obs[:i:i], obs[i+1:]...)
			break
		}
	}
	o.doc = nil
}

// Connected reports whether the observer still receives callbacks.
func (o *Observer) Connected() bool { return o.doc != nil }

// ObserverCount returns the number of connected observers.
func (d *Document) ObserverCount() int { return len(d.observers) }

func (d *Document) notify() {
	if len(d.observers) == 0 {
		return
	}
	snapshot := append([]*Observer(nil), d.observers...)
	for _, o := range snapshot {
		if o.doc == nil {
			continue
		}
		o.fn()
	}
}
