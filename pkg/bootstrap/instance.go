package bootstrap

import (
	"sync"
	"sync/atomic"

	"github.com/rubiojr/vouch/pkg/widget"
	"golang.org/x/net/html"
)

// State is the lifecycle position of one embed instance.
type State int32

const (
	StateDiscovered State = iota
	StateFetching
	StateRendered
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StateFetching:
		return "fetching"
	case StateRendered:
		return "rendered"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Settled reports whether s is terminal.
func (s State) Settled() bool {
	return s == StateRendered || s == StateFailed
}

// Instance is one embed directive paired with the container and isolation
// root created for it.
//
// Script, Container and Root belong to the window's document and must only
// be touched on its loop.
type Instance struct {
	ID        string
	WidgetID  string
	Script    *html.Node
	Container *html.Node
	Root      *html.Node

	state atomic.Int32

	mu      sync.Mutex
	err     error
	payload *widget.Payload

	carousel *Carousel
	dispose  func()
}

// State returns the current lifecycle state. Safe from any goroutine.
func (i *Instance) State() State { return State(i.state.Load()) }

func (i *Instance) setState(s State) { i.state.Store(int32(s)) }

// Err returns the failure that stopped the instance, if any.
func (i *Instance) Err() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.err
}

// Payload returns the fetched payload, or nil before it arrives.
func (i *Instance) Payload() *widget.Payload {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.payload
}

// Carousel returns the interaction state of a carousel instance, or nil.
// Loop only.
func (i *Instance) Carousel() *Carousel { return i.carousel }

func (i *Instance) fail(err error) {
	i.mu.Lock()
	i.err = err
	i.mu.Unlock()
	i.setState(StateFailed)
}

func (i *Instance) setPayload(p *widget.Payload) {
	i.mu.Lock()
	i.payload = p
	i.mu.Unlock()
}

// Dispose releases the interaction resources of the instance. Loop only;
// calling it more than once is harmless.
func (i *Instance) Dispose() {
	if i.dispose != nil {
		i.dispose()
		i.dispose = nil
	}
}
