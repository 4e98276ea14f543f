package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rubiojr/vouch/pkg/client"
	"github.com/rubiojr/vouch/pkg/dom"
	"github.com/rubiojr/vouch/pkg/log"
	"github.com/rubiojr/vouch/pkg/widget"
	"go.uber.org/goleak"
	"golang.org/x/net/html"
)

type fakeFetcher struct {
	mu       sync.Mutex
	payloads map[string]*widget.Payload
	errs     map[string]error
	calls    map[string]int
	bases    []string
	gate     chan struct{}
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		payloads: make(map[string]*widget.Payload),
		errs:     make(map[string]error),
		calls:    make(map[string]int),
	}
}

func (f *fakeFetcher) FetchWidgetData(ctx context.Context, apiBase, widgetID string) (*widget.Payload, error) {
	f.mu.Lock()
	f.calls[widgetID]++
	f.bases = append(f.bases, apiBase)
	p, err, gate := f.payloads[widgetID], f.errs[widgetID], f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &client.StatusError{StatusCode: http.StatusNotFound, URL: client.DataURL(apiBase, widgetID)}
	}
	return p, nil
}

func (f *fakeFetcher) callsFor(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func captureLogs(t *testing.T) *syncBuffer {
	t.Helper()
	buf := &syncBuffer{}
	log.SetOutput(buf)
	t.Cleanup(func() { log.SetOutput(discard{}) })
	return buf
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func makePayload(typ widget.Type, n int, plan widget.Plan) *widget.Payload {
	ts := make([]widget.Testimonial, n)
	for i := range ts {
		ts[i] = widget.Testimonial{
			ID:         fmt.Sprintf("t%d", i),
			AuthorName: fmt.Sprintf("Author %d", i),
			Rating:     5,
			Content:    "Very good",
			CreatedAt:  "2024-03-01T12:00:00Z",
		}
	}
	return &widget.Payload{
		Widget: widget.Widget{
			Type: typ,
			Config: widget.Config{
				Theme:      widget.ThemeLight,
				ShowRating: true,
				ShowDate:   true,
				ShowAvatar: true,
				Shadow:     true,
				MaxItems:   10,
				Columns:    3,
				FontFamily: widget.InheritFont,
			},
		},
		Testimonials: ts,
		Plan:         plan,
	}
}

func page(widgetIDs ...string) string {
	var sb strings.Builder
	sb.WriteString(`<!doctype html><html><head><title>host</title></head><body><h1>Host page</h1>`)
	for _, id := range widgetIDs {
		fmt.Fprintf(&sb, `<script src="https://cdn.vouch.example/widget.js" data-widget=%q></script>`, id)
	}
	sb.WriteString(`<p class="footer">footer</p></body></html>`)
	return sb.String()
}

func newWindow(t *testing.T, src string) *dom.Window {
	t.Helper()
	doc, err := dom.ParseString(src, "https://host.example/blog/post")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return dom.NewWindow(doc)
}

func bootstrapAndWait(t *testing.T, win *dom.Window, opts Options) *Session {
	t.Helper()
	sess, err := Bootstrap(context.Background(), win, opts)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sess.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	return sess
}

func onLoop(t *testing.T, win *dom.Window, fn func()) {
	t.Helper()
	if err := win.Call(fn); err != nil {
		t.Fatalf("Call: %v", err)
	}
}

func count(root *html.Node, class string) int {
	return len(dom.FindAll(root, dom.WithClass(class)))
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestWallFreePlan(t *testing.T) {
	captureLogs(t)
	f := newFakeFetcher()
	f.payloads["w1"] = makePayload(widget.TypeWall, 2, widget.PlanFree)

	win := newWindow(t, page("w1"))
	defer win.Close()
	sess := bootstrapAndWait(t, win, Options{Fetcher: f})

	if len(sess.Instances) != 1 {
		t.Fatalf("expected 1 instance, got %d", len(sess.Instances))
	}
	inst := sess.Instances[0]
	if inst.State() != StateRendered {
		t.Fatalf("state = %s, err = %v", inst.State(), inst.Err())
	}

	onLoop(t, win, func() {
		root := inst.Root
		if count(root, "vw-wall") != 1 {
			t.Errorf("expected a grid container")
		}
		if got := count(root, "vw-card"); got != 2 {
			t.Errorf("expected 2 cards, got %d", got)
		}
		badge := dom.Find(root, dom.WithClass("vw-badge"))
		if badge == nil {
			t.Error("expected an attribution badge")
			return
		}
		if dom.Host(badge) != inst.Container {
			t.Errorf("badge must live inside the isolation root")
		}
		link := dom.Find(badge, dom.Tag("a"))
		if href, _ := dom.Attr(link, "href"); !strings.HasPrefix(href, "https://cdn.vouch.example/?utm_source=widget") {
			t.Errorf("badge href = %q", href)
		}

		first := root.FirstChild
		if first == nil || first.Data != "style" {
			t.Error("expected the isolation root to start with a style element")
			return
		}
		if !strings.Contains(dom.TextContent(first), ".vw-wall") {
			t.Errorf("style element does not carry the generated styles")
		}
		if styles := win.Document.QueryAll(dom.Tag("style")); len(styles) != 1 || dom.Host(styles[0]) != inst.Container {
			t.Errorf("styles leaked outside the isolation root")
		}
		if inst.Script.PrevSibling != inst.Container {
			t.Errorf("container was not inserted right before its directive")
		}
		if id, _ := dom.Attr(inst.Container, InstanceAttr); id != inst.ID || id == "" {
			t.Errorf("container instance id = %q, want %q", id, inst.ID)
		}
	})
}

func TestProPlanHasNoBadge(t *testing.T) {
	captureLogs(t)
	f := newFakeFetcher()
	f.payloads["w1"] = makePayload(widget.TypeWall, 2, widget.PlanPro)

	win := newWindow(t, page("w1"))
	defer win.Close()
	sess := bootstrapAndWait(t, win, Options{Fetcher: f})

	onLoop(t, win, func() {
		if n := count(sess.Instances[0].Root, "vw-badge"); n != 0 {
			t.Errorf("pro plan rendered %d badges", n)
		}
		if strings.Contains(win.Document.String(), widget.BadgeText) {
			t.Errorf("badge text found in the page")
		}
	})
}

func TestMaxItemsCapsEveryTemplate(t *testing.T) {
	captureLogs(t)
	for _, typ := range []widget.Type{widget.TypeWall, widget.TypeList, widget.TypeCarousel, "unknown"} {
		t.Run(string(typ), func(t *testing.T) {
			p := makePayload(typ, 5, widget.PlanPro)
			p.Widget.Config.MaxItems = 1
			f := newFakeFetcher()
			f.payloads["w1"] = p

			win := newWindow(t, page("w1"))
			defer win.Close()
			sess := bootstrapAndWait(t, win, Options{Fetcher: f, AutoplayInterval: -1})

			onLoop(t, win, func() {
				if got := count(sess.Instances[0].Root, "vw-card"); got != 1 {
					t.Errorf("expected 1 card, got %d", got)
				}
			})
		})
	}
}

func TestUnknownTypeFallsBackToWall(t *testing.T) {
	captureLogs(t)
	f := newFakeFetcher()
	f.payloads["w1"] = makePayload("masonry", 2, widget.PlanPro)
	f.payloads["w2"] = makePayload("", 2, widget.PlanPro)

	win := newWindow(t, page("w1", "w2"))
	defer win.Close()
	sess := bootstrapAndWait(t, win, Options{Fetcher: f})

	onLoop(t, win, func() {
		for _, inst := range sess.Instances {
			if count(inst.Root, "vw-wall") != 1 {
				t.Errorf("%s: expected wall fallback", inst.WidgetID)
			}
		}
	})
}

func TestServerErrorRendersNothing(t *testing.T) {
	logs := captureLogs(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/broken/") {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"widget":{"type":"list","config":{"max_items":5}},"testimonials":[{"id":"a","author_name":"A","rating":4,"content":"ok","created_at":"2024-01-01"}],"plan":"pro"}`))
	}))
	defer srv.Close()

	win := newWindow(t, page("broken", "fine"))
	defer win.Close()
	sess := bootstrapAndWait(t, win, Options{
		Fetcher: client.New(client.WithHTTPClient(srv.Client())),
		APIBase: srv.URL,
	})

	broken, fine := sess.Instances[0], sess.Instances[1]
	if broken.State() != StateFailed {
		t.Fatalf("broken instance state = %s", broken.State())
	}
	var se *client.StatusError
	if !errors.As(broken.Err(), &se) || se.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected a 500 StatusError, got %v", broken.Err())
	}
	if fine.State() != StateRendered {
		t.Fatalf("failure of one instance affected another: %s (%v)", fine.State(), fine.Err())
	}

	onLoop(t, win, func() {
		if broken.Root.FirstChild != nil {
			t.Errorf("failed instance root has content: %s", dom.InnerHTML(broken.Root))
		}
		if count(fine.Root, "vw-card") != 1 {
			t.Errorf("healthy instance did not render")
		}
		if count(win.Document.Root(), "footer") != 1 {
			t.Errorf("host content was disturbed")
		}
	})

	if n := strings.Count(logs.String(), "WARN [bootstrap>] widget broken:"); n != 1 {
		t.Errorf("expected exactly one diagnostic line for the failed instance, got %d:\n%s", n, logs.String())
	}
}

func TestFetcherPanicIsContained(t *testing.T) {
	captureLogs(t)
	f := newFakeFetcher()
	f.payloads["ok"] = makePayload(widget.TypeList, 1, widget.PlanPro)

	win := newWindow(t, page("bad", "ok"))
	defer win.Close()
	sess := bootstrapAndWait(t, win, Options{Fetcher: panicky{f}})

	if got := sess.Instances[0].State(); got != StateFailed {
		t.Errorf("panicking instance state = %s", got)
	}
	if got := sess.Instances[1].State(); got != StateRendered {
		t.Errorf("sibling instance state = %s", got)
	}
}

type panicky struct{ *fakeFetcher }

func (p panicky) FetchWidgetData(ctx context.Context, apiBase, widgetID string) (*widget.Payload, error) {
	if widgetID == "bad" {
		panic("fetcher exploded")
	}
	return p.fakeFetcher.FetchWidgetData(ctx, apiBase, widgetID)
}

func TestCarouselNextWraps(t *testing.T) {
	captureLogs(t)
	f := newFakeFetcher()
	f.payloads["c"] = makePayload(widget.TypeCarousel, 3, widget.PlanPro)

	win := newWindow(t, page("c"))
	defer win.Close()
	sess := bootstrapAndWait(t, win, Options{Fetcher: f, AutoplayInterval: -1})
	inst := sess.Instances[0]

	onLoop(t, win, func() {
		c := inst.Carousel()
		if c == nil || c.Len() != 3 {
			t.Error("carousel not initialized")
			return
		}
		next := dom.Find(inst.Root, dom.WithClass("vw-next"))

		got := []int{c.Current()}
		for i := 0; i < 4; i++ {
			if win.Document.Dispatch(next, "click") != 1 {
				t.Error("next button has no click listener")
				return
			}
			got = append(got, c.Current())
		}
		if fmt.Sprint(got) != "[0 1 2 0 1]" {
			t.Errorf("active index sequence = %v", got)
		}

		slides := dom.FindAll(inst.Root, dom.WithClass("vw-slide"))
		dots := dom.FindAll(inst.Root, dom.All(dom.Tag("button"), dom.WithClass("vw-dot")))
		for i := range slides {
			want := i == 1
			if dom.HasClass(slides[i], "active") != want || dom.HasClass(dots[i], "active") != want {
				t.Errorf("slide/dot %d active marker wrong", i)
			}
		}

		prev := dom.Find(inst.Root, dom.WithClass("vw-prev"))
		win.Document.Dispatch(prev, "click")
		win.Document.Dispatch(prev, "click")
		if c.Current() != 2 {
			t.Errorf("prev from 1 twice should wrap to 2, got %d", c.Current())
		}
		win.Document.Dispatch(dots[1], "click")
		if c.Current() != 1 {
			t.Errorf("dot click should jump to 1, got %d", c.Current())
		}
		c.GoTo(-7)
		if c.Current() != 2 {
			t.Errorf("GoTo(-7) over 3 slides = %d, want 2", c.Current())
		}
	})
}

func TestCarouselAutoplayAndCleanupOnRemoval(t *testing.T) {
	defer goleak.VerifyNone(t)
	captureLogs(t)

	f := newFakeFetcher()
	f.payloads["c"] = makePayload(widget.TypeCarousel, 3, widget.PlanPro)

	win := newWindow(t, page("c"))
	defer win.Close()
	sess := bootstrapAndWait(t, win, Options{Fetcher: f, AutoplayInterval: 5 * time.Millisecond})
	inst := sess.Instances[0]

	current := func() int {
		var cur int
		onLoop(t, win, func() { cur = inst.Carousel().Current() })
		return cur
	}
	waitFor(t, "autoplay to advance", func() bool { return current() != 0 })
	if win.Intervals() != 1 {
		t.Fatalf("expected one running autoplay timer, got %d", win.Intervals())
	}

	var next *html.Node
	onLoop(t, win, func() {
		next = dom.Find(inst.Root, dom.WithClass("vw-next"))
		if win.Document.ObserverCount() != 1 {
			t.Errorf("expected one document watcher, got %d", win.Document.ObserverCount())
		}
		win.Document.Remove(inst.Container)
	})

	onLoop(t, win, func() {
		if !inst.Carousel().Disposed() {
			t.Errorf("carousel not disposed after its host left the document")
		}
		if n := win.Document.ObserverCount(); n != 0 {
			t.Errorf("document watcher still connected: %d", n)
		}
		if n := win.Document.ListenerCount(next); n != 0 {
			t.Errorf("click listeners left behind: %d", n)
		}
	})
	waitFor(t, "autoplay timer to stop", func() bool { return win.Intervals() == 0 })
}

func TestCarouselCleanupIgnoresUnrelatedMutations(t *testing.T) {
	captureLogs(t)
	f := newFakeFetcher()
	f.payloads["c"] = makePayload(widget.TypeCarousel, 2, widget.PlanPro)

	win := newWindow(t, page("c"))
	defer win.Close()
	sess := bootstrapAndWait(t, win, Options{Fetcher: f, AutoplayInterval: time.Hour})

	onLoop(t, win, func() {
		body := win.Document.Body()
		extra := dom.Element("p")
		_ = win.Document.AppendChild(body, extra)
		win.Document.Remove(extra)
		if sess.Instances[0].Carousel().Disposed() {
			t.Errorf("carousel disposed while its host is still attached")
		}
	})
	if err := sess.Dispose(); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "autoplay timer to stop", func() bool { return win.Intervals() == 0 })
	onLoop(t, win, func() {
		if win.Document.ObserverCount() != 0 {
			t.Errorf("dispose left the watcher connected")
		}
	})
}

func TestEmptyCarouselWiresNothing(t *testing.T) {
	captureLogs(t)
	f := newFakeFetcher()
	f.payloads["c"] = makePayload(widget.TypeCarousel, 0, widget.PlanPro)

	win := newWindow(t, page("c"))
	defer win.Close()
	sess := bootstrapAndWait(t, win, Options{Fetcher: f, AutoplayInterval: time.Millisecond})
	inst := sess.Instances[0]

	if inst.State() != StateRendered {
		t.Fatalf("state = %s (%v)", inst.State(), inst.Err())
	}
	onLoop(t, win, func() {
		if inst.Carousel() != nil {
			t.Errorf("carousel state created for zero slides")
		}
		if win.Document.ObserverCount() != 0 {
			t.Errorf("watcher installed for zero slides")
		}
		if count(inst.Root, "vw-track") != 1 {
			t.Errorf("expected the empty track shell")
		}
	})
	if win.Intervals() != 0 {
		t.Errorf("timer created for zero slides")
	}
}

func TestDetachedBeforeFetchResolves(t *testing.T) {
	captureLogs(t)
	f := newFakeFetcher()
	f.payloads["c"] = makePayload(widget.TypeCarousel, 3, widget.PlanPro)
	f.gate = make(chan struct{})

	win := newWindow(t, page("c"))
	defer win.Close()
	sess, err := Bootstrap(context.Background(), win, Options{Fetcher: f, AutoplayInterval: time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	inst := sess.Instances[0]
	onLoop(t, win, func() { win.Document.Remove(inst.Container) })
	close(f.gate)

	if err := sess.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if inst.State() != StateRendered {
		t.Fatalf("state = %s (%v)", inst.State(), inst.Err())
	}
	if win.Intervals() != 0 {
		t.Errorf("detached carousel started a timer")
	}
}

func TestDiscovery(t *testing.T) {
	captureLogs(t)
	src := `<html><body>
<script src="https://cdn.vouch.example/widget.js" data-widget="a"></script>
<script src="https://cdn.vouch.example/widget.js" data-widget=""></script>
<script src="https://cdn.vouch.example/widget.js" data-widget="  "></script>
<script src="https://cdn.vouch.example/widget.js"></script>
<div data-widget="not-a-script"></div>
<script src="https://cdn.vouch.example/widget.js" data-widget="b"></script>
</body></html>`
	f := newFakeFetcher()
	f.payloads["a"] = makePayload(widget.TypeList, 1, widget.PlanPro)
	f.payloads["b"] = makePayload(widget.TypeList, 1, widget.PlanPro)

	win := newWindow(t, src)
	defer win.Close()
	sess := bootstrapAndWait(t, win, Options{Fetcher: f})

	var ids []string
	for _, inst := range sess.Instances {
		ids = append(ids, inst.WidgetID)
	}
	if fmt.Sprint(ids) != "[a b]" {
		t.Fatalf("discovered %v", ids)
	}
	if sess.Instances[0].ID == sess.Instances[1].ID {
		t.Errorf("instance ids must be unique")
	}
	onLoop(t, win, func() {
		if n := len(win.Document.QueryAll(dom.WithClass(ContainerClass))); n != 2 {
			t.Errorf("expected 2 containers, got %d", n)
		}
	})
}

func TestRebootstrapDoesNotDoubleMount(t *testing.T) {
	captureLogs(t)
	f := newFakeFetcher()
	f.payloads["w1"] = makePayload(widget.TypeWall, 1, widget.PlanPro)

	win := newWindow(t, page("w1"))
	defer win.Close()
	bootstrapAndWait(t, win, Options{Fetcher: f})
	again := bootstrapAndWait(t, win, Options{Fetcher: f})

	if len(again.Instances) != 0 {
		t.Errorf("second bootstrap found %d instances", len(again.Instances))
	}
	if n := f.callsFor("w1"); n != 1 {
		t.Errorf("expected exactly one fetch, got %d", n)
	}
	onLoop(t, win, func() {
		if n := len(win.Document.QueryAll(dom.WithClass(ContainerClass))); n != 1 {
			t.Errorf("expected 1 container, got %d", n)
		}
	})
}

func TestBootstrapWithoutDirectives(t *testing.T) {
	win := newWindow(t, `<html><body><p>nothing here</p></body></html>`)
	defer win.Close()
	sess := bootstrapAndWait(t, win, Options{Fetcher: newFakeFetcher()})
	if len(sess.Instances) != 0 {
		t.Fatalf("unexpected instances")
	}
	select {
	case <-sess.Done():
	default:
		t.Fatal("session with no instances should be done")
	}
}

func TestBootstrapNoDocument(t *testing.T) {
	if _, err := Bootstrap(context.Background(), nil, Options{}); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}
	if _, err := Prerender(context.Background(), nil, Options{}); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}
}

func TestResolveAPIBase(t *testing.T) {
	tests := []struct {
		name    string
		page    string
		pageURL string
		current int
		want    string
	}{
		{
			name:    "current script wins",
			page:    `<script src="https://a.example/widget.js"></script><script src="https://b.example/other.js"></script>`,
			current: 1,
			want:    "https://b.example",
		},
		{
			name:    "last matching script",
			page:    `<script src="https://a.example/widget.js"></script><script src="https://x.example/app.js"></script><script src="https://b.example/static/widget.js?v=2"></script>`,
			current: -1,
			want:    "https://b.example",
		},
		{
			name:    "relative source resolves against the page",
			page:    `<script src="/assets/widget.js"></script>`,
			pageURL: "https://host.example/blog/",
			current: -1,
			want:    "https://host.example",
		},
		{
			name:    "relative source without page url",
			page:    `<script src="/assets/widget.js"></script>`,
			current: -1,
			want:    "https://fallback.example",
		},
		{
			name:    "query string does not match",
			page:    `<script src="https://a.example/app.js?load=widget.js"></script>`,
			current: -1,
			want:    "https://fallback.example",
		},
		{
			name:    "inline current script falls through",
			page:    `<script>inline()</script><script src="https://c.example/widget.js"></script>`,
			current: 0,
			want:    "https://c.example",
		},
		{
			name:    "no scripts",
			page:    `<p>hi</p>`,
			current: -1,
			want:    "https://fallback.example",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := dom.ParseString("<html><head>"+tt.page+"</head><body></body></html>", tt.pageURL)
			if err != nil {
				t.Fatal(err)
			}
			if tt.current >= 0 {
				doc.SetCurrentScript(doc.QueryAll(dom.Tag("script"))[tt.current])
			}
			if got := ResolveAPIBase(doc, "widget.js", "https://fallback.example/"); got != tt.want {
				t.Errorf("ResolveAPIBase = %q, want %q", got, tt.want)
			}
		})
	}

	doc, _ := dom.ParseString(`<p></p>`, "")
	if got := ResolveAPIBase(doc, "", ""); got != DefaultAPIBase {
		t.Errorf("default fallback = %q", got)
	}
}

func TestFetchesUseResolvedBase(t *testing.T) {
	captureLogs(t)
	f := newFakeFetcher()
	f.payloads["w1"] = makePayload(widget.TypeWall, 1, widget.PlanPro)

	win := newWindow(t, page("w1"))
	defer win.Close()
	sess := bootstrapAndWait(t, win, Options{Fetcher: f})

	if sess.APIBase != "https://cdn.vouch.example" {
		t.Errorf("APIBase = %q", sess.APIBase)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.bases) != 1 || f.bases[0] != sess.APIBase {
		t.Errorf("fetch used base %v", f.bases)
	}
}

func TestPrerender(t *testing.T) {
	defer goleak.VerifyNone(t)
	captureLogs(t)

	f := newFakeFetcher()
	f.payloads["c"] = makePayload(widget.TypeCarousel, 3, widget.PlanFree)
	f.payloads["w"] = makePayload(widget.TypeWall, 2, widget.PlanPro)

	doc, err := dom.ParseString(page("c", "w", "missing"), "https://host.example/")
	if err != nil {
		t.Fatal(err)
	}
	sess, err := Prerender(context.Background(), doc, Options{Fetcher: f})
	if err != nil {
		t.Fatalf("Prerender: %v", err)
	}
	if len(sess.Rendered()) != 2 {
		t.Fatalf("expected 2 rendered instances, got %d", len(sess.Rendered()))
	}

	out := doc.String()
	if n := strings.Count(out, `<template shadowrootmode="open">`); n != 3 {
		t.Errorf("expected 3 isolation roots, got %d", n)
	}
	if n := strings.Count(out, `<div class="vw-card"`); n != 5 {
		t.Errorf("expected 5 cards, got %d", n)
	}
	if n := strings.Count(out, widget.BadgeText); n != 1 {
		t.Errorf("expected 1 badge, got %d", n)
	}
	if !strings.Contains(out, `class="vw-slide active" data-index="0"`) {
		t.Errorf("prerendered carousel should show its first slide")
	}
	if !strings.Contains(out, `data-widget-mounted=`) {
		t.Errorf("directives not marked as mounted")
	}

	reparsed, err := dom.ParseString(out, "https://host.example/")
	if err != nil {
		t.Fatal(err)
	}
	again, err := Prerender(context.Background(), reparsed, Options{Fetcher: f})
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Instances) != 0 {
		t.Errorf("prerendered page mounted again: %d instances", len(again.Instances))
	}
}

func TestPrerenderTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)
	captureLogs(t)

	f := newFakeFetcher()
	f.payloads["slow"] = makePayload(widget.TypeWall, 1, widget.PlanPro)
	f.gate = make(chan struct{})
	defer close(f.gate)

	doc, err := dom.ParseString(page("slow"), "")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	sess, err := Prerender(ctx, doc, Options{Fetcher: f})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected a deadline error, got %v", err)
	}
	if sess.Instances[0].State() == StateRendered {
		t.Errorf("instance rendered after the deadline")
	}
	<-sess.Done()
	if strings.Contains(doc.String(), "vw-card") {
		t.Errorf("late payload was written into the page")
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		StateDiscovered: "discovered",
		StateFetching:   "fetching",
		StateRendered:   "rendered",
		StateFailed:     "failed",
		State(42):       "unknown",
	} {
		if s.String() != want {
			t.Errorf("%d.String() = %q", s, s.String())
		}
	}
	if StateFetching.Settled() || !StateFailed.Settled() || !StateRendered.Settled() {
		t.Errorf("Settled is wrong")
	}
}
