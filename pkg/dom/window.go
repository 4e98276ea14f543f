package dom

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rubiojr/vouch/pkg/log"
)

// ErrClosed is returned by Call once the window has been closed.
var ErrClosed = errors.New("window closed")

// Window pairs a Document with the single goroutine allowed to touch it.
//
// Tasks posted to the window run one at a time, in posting order, on the
// loop goroutine. Work that blocks (network reads) runs elsewhere and posts
// its result back, so DOM access never needs a lock.
type Window struct {
	Document *Document

	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	quit   chan struct{}
	done   chan struct{}
	once   sync.Once
	timers sync.WaitGroup
	active atomic.Int32
	logger *log.Logger
}

// NewWindow starts the loop goroutine for doc. Close releases it.
func NewWindow(doc *Document) *Window {
	w := &Window{
		Document: doc,
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		logger:   log.ForService("dom"),
	}
	go w.run()
	return w
}

func (w *Window) run() {
	defer close(w.done)
	for {
		select {
		case <-w.quit:
			return
		case <-w.wake:
		}
		for {
			w.mu.Lock()
			if len(w.queue) == 0 {
				w.mu.Unlock()
				break
			}
			fn := w.queue[0]
			w.queue[0] = nil
			w.queue = w.queue[1:]
			w.mu.Unlock()

			select {
			case <-w.quit:
				return
			default:
			}
			w.exec(fn)
		}
	}
}

func (w *Window) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Errorf("task panicked: %v", r)
		}
	}()
	fn()
}

// Post queues fn on the loop. It never blocks and reports false when the
// window is already closed.
func (w *Window) Post(fn func()) bool {
	select {
	case <-w.quit:
		return false
	default:
	}
	w.mu.Lock()
	w.queue = append(w.queue, fn)
	w.mu.Unlock()
	select {
	case w.wake <- struct{}{}:
	default:
	}
	return true
}

// Call runs fn on the loop and waits for it to return. It must not be
// called from the loop goroutine itself.
func (w *Window) Call(fn func()) error {
	finished := make(chan struct{})
	if !w.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-w.done:
		return ErrClosed
	}
}

// SetInterval runs fn on the loop every d until the returned cancel func is
// called or the window closes. A tick already queued when cancel runs is
// dropped.
func (w *Window) SetInterval(d time.Duration, fn func()) (cancel func()) {
	stop := make(chan struct{})
	var cancelled atomic.Bool
	var once sync.Once

	w.timers.Add(1)
	w.active.Add(1)
	go func() {
		defer w.timers.Done()
		defer w.active.Add(-1)
		t := time.NewTicker(d)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				w.Post(func() {
					if !cancelled.Load() {
						fn()
					}
				})
			case <-stop:
				return
			case <-w.quit:
				return
			}
		}
	}()

	return func() {
		once.Do(func() {
			cancelled.Store(true)
			close(stop)
		})
	}
}

// Intervals returns the number of interval timers still running.
func (w *Window) Intervals() int { return int(w.active.Load()) }

// Close stops the loop and every pending interval and waits for their
// goroutines to exit. Queued tasks that have not started are discarded.
// It must not be called from the loop goroutine.
func (w *Window) Close() {
	w.once.Do(func() {
		close(w.quit)
	})
	<-w.done
	w.timers.Wait()
}

// Closed reports whether Close has been called.
func (w *Window) Closed() bool {
	select {
	case <-w.quit:
		return true
	default:
		return false
	}
}
