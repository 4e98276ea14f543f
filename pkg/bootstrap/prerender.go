package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/rubiojr/vouch/pkg/dom"
)

// Prerender bootstraps doc on a private window, waits for every instance
// to settle and shuts the window down again, leaving doc with the rendered
// widgets in place and free to be serialized by the caller. Autoplay is
// off whatever opts says, so carousels are left on their first slide.
//
// When ctx ends first the instances still in flight are left unrendered and
// the context error is returned along with the session.
func Prerender(ctx context.Context, doc *dom.Document, opts Options) (*Session, error) {
	if doc == nil {
		return nil, ErrNoDocument
	}
	opts.AutoplayInterval = -1

	win := dom.NewWindow(doc)
	defer win.Close()

	sess, err := Bootstrap(ctx, win, opts)
	if err != nil {
		return nil, err
	}
	waitErr := sess.Wait(ctx)
	if err := sess.Dispose(); err != nil && !errors.Is(err, dom.ErrClosed) {
		return sess, fmt.Errorf("disposing instances: %w", err)
	}
	if waitErr != nil {
		return sess, fmt.Errorf("waiting for widgets: %w", waitErr)
	}
	return sess, nil
}
