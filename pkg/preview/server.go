// Package preview serves host pages with their widgets prerendered, so a
// widget can be checked in a browser without deploying the runtime.
package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rubiojr/vouch/pkg/bootstrap"
	"github.com/rubiojr/vouch/pkg/dom"
	"github.com/rubiojr/vouch/pkg/log"
	"github.com/rubiojr/vouch/pkg/realtime"
	"github.com/rubiojr/vouch/pkg/version"
)

// DefaultRenderTimeout bounds the prerender of one page.
const DefaultRenderTimeout = 15 * time.Second

const liveReloadScript = `(function(){var p=location.protocol==="https:"?"wss:":"ws:";` +
	`var ws=new WebSocket(p+"//"+location.host+"/livereload");` +
	`ws.onmessage=function(e){try{if(JSON.parse(e.data).type==="reload"){location.reload();}}catch(_){}};})();`

// Options configures what the server renders.
type Options struct {
	Bootstrap bootstrap.Options
	// PagePath is an HTML file served at /. When empty the generated host
	// page embedding Widgets is served.
	PagePath string
	Widgets  []string
	// ScriptURL is the src written into generated embed directives.
	ScriptURL     string
	RenderTimeout time.Duration
	// LiveReload injects the reload client into every served page.
	LiveReload bool
}

// Server is the preview HTTP server.
type Server struct {
	mu       sync.RWMutex
	opts     Options
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	router   chi.Router
	logger   *log.Logger
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Listeners int       `json:"listeners"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewServer(opts Options) *Server {
	s := &Server{
		opts:   opts,
		hub:    realtime.NewHub(0),
		logger: log.ForService("preview"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/livereload", s.handleLiveReload)
	r.Group(func(r chi.Router) {
		r.Use(gzipMiddleware)
		r.Get("/", s.handleIndex)
		r.Get("/embed/{widgetID}", s.handleEmbed)
		r.Get("/health", s.handleHealth)
	})
	return r
}

func gzipMiddleware(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debugf("%s %s %d %s [%s]", r.Method, r.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(r.Context()))
	})
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the live-reload hub.
func (s *Server) Hub() *realtime.Hub { return s.hub }

// Options returns a copy of the current options.
func (s *Server) Options() Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts
}

// SetOptions replaces the options used by subsequent requests.
func (s *Server) SetOptions(opts Options) {
	s.mu.Lock()
	s.opts = opts
	s.mu.Unlock()
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("preview server listening on http://%s", addr)
		s.logger.Infof("  GET /                  host page")
		s.logger.Infof("  GET /embed/{widgetID}  single widget page")
		s.logger.Infof("  GET /livereload        reload notifications")
		s.logger.Infof("  GET /health            health check")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Infof("shutting down preview server")
	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	opts := s.Options()
	if opts.PagePath != "" {
		page, err := os.ReadFile(opts.PagePath)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "page_unreadable", err.Error())
			return
		}
		s.servePage(w, r, opts, page)
		return
	}
	s.serveShell(w, r, opts, "Vouch preview", opts.Widgets)
}

func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	widgetID := strings.TrimSpace(chi.URLParam(r, "widgetID"))
	if widgetID == "" {
		s.writeError(w, http.StatusBadRequest, "missing_widget", "widget id is required")
		return
	}
	s.serveShell(w, r, s.Options(), "Widget "+widgetID, []string{widgetID})
}

func (s *Server) serveShell(w http.ResponseWriter, r *http.Request, opts Options, title string, widgets []string) {
	var buf bytes.Buffer
	if err := HostPage(title, s.scriptURL(opts), widgets).Render(r.Context(), &buf); err != nil {
		s.writeError(w, http.StatusInternalServerError, "render_failed", err.Error())
		return
	}
	s.servePage(w, r, opts, buf.Bytes())
}

func (s *Server) scriptURL(opts Options) string {
	if opts.ScriptURL != "" {
		return opts.ScriptURL
	}
	base := opts.Bootstrap.APIBase
	if base == "" {
		base = opts.Bootstrap.DefaultAPIBase
	}
	if base == "" {
		base = bootstrap.DefaultAPIBase
	}
	name := opts.Bootstrap.ScriptName
	if name == "" {
		name = bootstrap.DefaultScriptName
	}
	return strings.TrimRight(base, "/") + "/" + name
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request, opts Options, page []byte) {
	doc, err := dom.Parse(bytes.NewReader(page), requestURL(r))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_page", err.Error())
		return
	}

	timeout := opts.RenderTimeout
	if timeout <= 0 {
		timeout = DefaultRenderTimeout
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	sess, err := bootstrap.Prerender(ctx, doc, opts.Bootstrap)
	if err != nil && sess == nil {
		s.writeError(w, http.StatusInternalServerError, "render_failed", err.Error())
		return
	}
	if err != nil {
		s.logger.Warnf("serving partially rendered page: %v", err)
	}
	s.logger.Debugf("%s: %d of %d widgets rendered", r.URL.Path, len(sess.Rendered()), len(sess.Instances))

	if opts.LiveReload {
		if body := doc.Body(); body != nil {
			body.AppendChild(dom.Append(dom.Element("script", "data-vouch-livereload", ""), dom.Text(liveReloadScript)))
		}
	}

	var out bytes.Buffer
	if err := doc.Render(&out); err != nil {
		s.writeError(w, http.StatusInternalServerError, "render_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(out.Bytes())
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s%s", scheme, r.Host, r.URL.Path)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
		Listeners: s.hub.Size(),
	})
}

func (s *Server) handleLiveReload(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("live reload upgrade: %v", err)
		return
	}
	defer conn.Close()

	id, events := s.hub.Register()
	defer s.hub.Unregister(id)

	if err := conn.WriteJSON(realtime.Event{Type: realtime.TypeHello, At: time.Now().UTC()}); err != nil {
		return
	}

	// The client never sends anything; reading only detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}
