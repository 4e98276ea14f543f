package widget

import (
	"html/template"
	"strings"
	"time"

	"github.com/rubiojr/vouch/pkg/log"
)

// Renderer turns testimonials into widget markup. The zero value is not
// usable; build one with NewRenderer. A Renderer is safe for concurrent use.
type Renderer struct {
	dates    DateFormatter
	card     *template.Template
	registry *Registry
	logger   *log.Logger
}

// Option customizes a Renderer.
type Option func(*Renderer)

// WithDateFormatter sets how card dates are written.
func WithDateFormatter(f DateFormatter) Option {
	return func(r *Renderer) { r.dates = f }
}

// WithRegistry replaces the template registry.
func WithRegistry(reg *Registry) Option {
	return func(r *Renderer) {
		if reg != nil {
			r.registry = reg
		}
	}
}

// NewRenderer builds a renderer with the built-in templates and US English
// dates in the local zone unless options say otherwise.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		dates:    NewDateFormatter("en-US", nil),
		card:     template.Must(template.New("card").Funcs(templateFuncs()).Parse(strings.TrimSpace(cardTemplate))),
		registry: NewRegistry(),
		logger:   log.ForService("widget"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the template registry in use.
func (r *Renderer) Registry() *Registry { return r.registry }

// FormatDate writes t the way cards do.
func (r *Renderer) FormatDate(t time.Time) string { return r.dates.Format(t) }

// Render renders ts with the template registered for typ, falling back to
// the wall for unknown or empty types. ts is rendered as given; callers cap
// it with Limit first.
func (r *Renderer) Render(typ Type, ts []Testimonial, cfg Config) string {
	return r.registry.Lookup(typ).Render(r, ts, cfg)
}

var defaultRenderer = NewRenderer()

// RenderCard renders one card with the default renderer.
func RenderCard(t Testimonial, cfg Config) string {
	return defaultRenderer.Card(t, cfg)
}

// RenderWall renders the grid template with the default renderer.
func RenderWall(ts []Testimonial, cfg Config) string {
	return defaultRenderer.Render(TypeWall, ts, cfg)
}

// RenderList renders the vertical list template with the default renderer.
func RenderList(ts []Testimonial, cfg Config) string {
	return defaultRenderer.Render(TypeList, ts, cfg)
}

// RenderCarousel renders the carousel template with the default renderer.
func RenderCarousel(ts []Testimonial, cfg Config) string {
	return defaultRenderer.Render(TypeCarousel, ts, cfg)
}
