// Package bootstrap discovers embed directives in a host document, fetches
// the data of every widget and renders it inside an isolation root of its
// own.
//
// All document work happens on the loop of a dom.Window. Fetches run on
// their own goroutines, one per instance, and hand their payloads back to
// the loop, so instances render independently and in no particular order.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rubiojr/vouch/pkg/client"
	"github.com/rubiojr/vouch/pkg/dom"
	"github.com/rubiojr/vouch/pkg/log"
	"github.com/rubiojr/vouch/pkg/widget"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultAPIBase is used when no script reveals where the runtime was
	// served from.
	DefaultAPIBase = "https://vouch.to"
	// DefaultScriptName is the runtime filename looked for in script sources.
	DefaultScriptName = "widget.js"
	// DefaultAutoplayInterval is the carousel advance period.
	DefaultAutoplayInterval = 5 * time.Second
)

const (
	// WidgetAttr carries the widget id on an embed directive.
	WidgetAttr = "data-widget"
	// MountedAttr marks directives that already own a container.
	MountedAttr = "data-widget-mounted"
	// InstanceAttr carries the instance id on a container.
	InstanceAttr = "data-vouch-instance"
	// ContainerClass is set on every container.
	ContainerClass = "vouch-widget"
)

// ErrNoDocument is returned when there is no document to bootstrap.
var ErrNoDocument = errors.New("bootstrap: no document")

// Fetcher reads the payload of one widget.
type Fetcher interface {
	FetchWidgetData(ctx context.Context, apiBase, widgetID string) (*widget.Payload, error)
}

// Options configures a bootstrap run. The zero value works: it fetches with
// a default client and renders with the default renderer.
type Options struct {
	Fetcher          Fetcher
	Renderer         *widget.Renderer
	DefaultAPIBase   string
	ScriptName       string
	// AutoplayInterval defaults to DefaultAutoplayInterval when zero; a
	// negative value disables autoplay.
	AutoplayInterval time.Duration
	// APIBase, when set, skips origin discovery altogether.
	APIBase string
}

func (o Options) withDefaults() Options {
	if o.Fetcher == nil {
		o.Fetcher = client.New()
	}
	if o.Renderer == nil {
		o.Renderer = widget.NewRenderer()
	}
	if o.DefaultAPIBase == "" {
		o.DefaultAPIBase = DefaultAPIBase
	}
	if o.ScriptName == "" {
		o.ScriptName = DefaultScriptName
	}
	if o.AutoplayInterval == 0 {
		o.AutoplayInterval = DefaultAutoplayInterval
	}
	return o
}

// Session is the outcome of one Bootstrap call.
type Session struct {
	APIBase   string
	Instances []*Instance

	win  *dom.Window
	done chan struct{}
}

// Done is closed once every instance has settled.
func (s *Session) Done() <-chan struct{} { return s.done }

// Wait blocks until every instance has settled or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Rendered returns the instances that rendered successfully.
func (s *Session) Rendered() []*Instance {
	var out []*Instance
	for _, inst := range s.Instances {
		if inst.State() == StateRendered {
			out = append(out, inst)
		}
	}
	return out
}

// Dispose releases every instance's interaction resources. It must not be
// called from the window loop.
func (s *Session) Dispose() error {
	return s.win.Call(func() {
		for _, inst := range s.Instances {
			inst.Dispose()
		}
	})
}

type runner struct {
	win    *dom.Window
	opts   Options
	base   string
	logger *log.Logger
}

// Bootstrap mounts every embed directive of win's document. Discovery and
// container creation happen before any fetch starts; the call returns
// without waiting for data, use Session.Wait for that. Failures of single
// instances are logged and recorded on the instance, never returned.
func Bootstrap(ctx context.Context, win *dom.Window, opts Options) (*Session, error) {
	if win == nil || win.Document == nil {
		return nil, ErrNoDocument
	}
	r := &runner{
		win:    win,
		opts:   opts.withDefaults(),
		logger: log.ForService("bootstrap"),
	}

	sess := &Session{win: win, done: make(chan struct{})}
	err := win.Call(func() {
		if r.opts.APIBase != "" {
			r.base = strings.TrimRight(r.opts.APIBase, "/")
		} else {
			r.base = ResolveAPIBase(win.Document, r.opts.ScriptName, r.opts.DefaultAPIBase)
		}
		sess.APIBase = r.base
		sess.Instances = r.discover()
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	r.logger.Debugf("api base %s, %d instances", r.base, len(sess.Instances))

	var g errgroup.Group
	for _, inst := range sess.Instances {
		g.Go(func() error {
			r.run(ctx, inst)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(sess.done)
	}()
	return sess, nil
}

// discover creates a container and isolation root in front of every
// unmounted directive. Loop only.
func (r *runner) discover() []*Instance {
	doc := r.win.Document
	var out []*Instance
	for _, script := range doc.QueryAll(dom.All(dom.Tag("script"), dom.WithAttr(WidgetAttr))) {
		if _, mounted := dom.Attr(script, MountedAttr); mounted {
			continue
		}
		widgetID, _ := dom.Attr(script, WidgetAttr)
		widgetID = strings.TrimSpace(widgetID)
		if widgetID == "" {
			continue
		}
		if dom.Host(script) != nil {
			continue
		}

		id := uuid.NewString()
		container := dom.Element("div", "class", ContainerClass, InstanceAttr, id)
		if err := doc.InsertBefore(container, script); err != nil {
			r.logger.Warnf("widget %s: inserting container: %v", widgetID, err)
			continue
		}
		root, err := doc.AttachShadow(container)
		if err != nil {
			r.logger.Warnf("widget %s: attaching isolation root: %v", widgetID, err)
			doc.Remove(container)
			continue
		}
		dom.SetAttr(script, MountedAttr, id)
		out = append(out, &Instance{
			ID:        id,
			WidgetID:  widgetID,
			Script:    script,
			Container: container,
			Root:      root,
		})
	}
	return out
}

// run fetches and mounts one instance. It never panics.
func (r *runner) run(ctx context.Context, inst *Instance) {
	defer func() {
		if p := recover(); p != nil {
			r.failed(inst, fmt.Errorf("panic: %v", p))
		}
	}()

	inst.setState(StateFetching)
	payload, err := r.opts.Fetcher.FetchWidgetData(ctx, r.base, inst.WidgetID)
	if err != nil {
		r.failed(inst, err)
		return
	}
	if payload == nil {
		r.failed(inst, errors.New("empty payload"))
		return
	}
	inst.setPayload(payload)

	var mountErr error
	if err := r.win.Call(func() { mountErr = r.mount(inst, payload) }); err != nil {
		r.failed(inst, err)
		return
	}
	if mountErr != nil {
		r.failed(inst, mountErr)
		return
	}
	inst.setState(StateRendered)
}

func (r *runner) failed(inst *Instance, err error) {
	r.logger.Warnf("widget %s: %v", inst.WidgetID, err)
	inst.fail(err)
}

// mount renders payload into the instance root. Loop only.
func (r *runner) mount(inst *Instance, payload *widget.Payload) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("rendering: panic: %v", p)
		}
	}()

	doc := r.win.Document
	cfg := payload.Widget.Config
	tmpl := r.opts.Renderer.Registry().Lookup(payload.Widget.Type)
	records := widget.Limit(payload.Testimonials, cfg.MaxItems)

	style := dom.Append(dom.Element("style"), dom.Text(widget.GenerateStyles(cfg)))
	wrapper := dom.Element("div", "class", "vw-widget", "data-type", string(tmpl.Type()))
	if err := doc.AppendHTML(wrapper, tmpl.Render(r.opts.Renderer, records, cfg)); err != nil {
		return fmt.Errorf("rendering %s: %w", tmpl.Type(), err)
	}
	if payload.ShowBadge() {
		wrapper.AppendChild(widget.CreateBadge(r.base))
	}

	if err := appendAll(doc, inst.Root, style, wrapper); err != nil {
		return err
	}

	if tmpl.Type() != widget.TypeCarousel {
		return nil
	}
	if !doc.IsConnected(inst.Container) {
		r.logger.Debugf("widget %s: container detached before render, carousel left idle", inst.WidgetID)
		return nil
	}
	inst.carousel, inst.dispose = InitCarousel(r.win, inst.Container, inst.Root, r.opts.AutoplayInterval)
	return nil
}

func appendAll(doc *dom.Document, parent *html.Node, nodes ...*html.Node) error {
	for _, n := range nodes {
		if err := doc.AppendChild(parent, n); err != nil {
			return err
		}
	}
	return nil
}
