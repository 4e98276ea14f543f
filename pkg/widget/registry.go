package widget

import (
	_ "embed"
	"html/template"
	"sort"
	"strings"
	"sync"
)

var (
	//go:embed templates/wall.html
	wallTemplate string
	//go:embed templates/list.html
	listTemplate string
	//go:embed templates/carousel.html
	carouselTemplate string
)

// Template is a layout strategy for a sequence of cards.
type Template interface {
	Type() Type
	Render(r *Renderer, ts []Testimonial, cfg Config) string
}

type layoutData struct {
	Cards []template.HTML
}

// layout renders the cards of every record into an html/template shell.
type layout struct {
	typ  Type
	tmpl *template.Template
}

func newLayout(typ Type, src string) *layout {
	return &layout{
		typ:  typ,
		tmpl: template.Must(template.New(string(typ)).Funcs(templateFuncs()).Parse(strings.TrimSpace(src))),
	}
}

func (l *layout) Type() Type { return l.typ }

func (l *layout) Render(r *Renderer, ts []Testimonial, cfg Config) string {
	var sb strings.Builder
	if err := l.tmpl.Execute(&sb, layoutData{Cards: r.Cards(ts, cfg)}); err != nil {
		r.logger.Warnf("rendering %s template: %v", l.typ, err)
		return ""
	}
	return sb.String()
}

// Wall returns the grid template. Its column count lives in the generated
// styles, driven by the same Config.
func Wall() Template { return newLayout(TypeWall, wallTemplate) }

// List returns the vertical list template.
func List() Template { return newLayout(TypeList, listTemplate) }

// Carousel returns the paginated template: one slide and one dot per
// record, the first of each marked active, plus previous/next controls.
// With no records it renders an empty track.
func Carousel() Template { return newLayout(TypeCarousel, carouselTemplate) }

// Registry maps widget types to templates, with a fallback for types it
// does not know.
type Registry struct {
	mu        sync.RWMutex
	templates map[Type]Template
	fallback  Template
}

// NewRegistry returns a registry holding the wall, list and carousel
// templates, with the wall as fallback.
func NewRegistry() *Registry {
	wall := Wall()
	reg := &Registry{
		templates: make(map[Type]Template),
		fallback:  wall,
	}
	reg.Register(wall)
	reg.Register(List())
	reg.Register(Carousel())
	return reg
}

// Register adds t, replacing any template with the same type.
func (r *Registry) Register(t Template) {
	if t == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.Type()] = t
}

// Lookup returns the template for typ or the fallback.
func (r *Registry) Lookup(typ Type) Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.templates[typ]; ok {
		return t
	}
	return r.fallback
}

// Types lists the registered types, sorted.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Type, 0, len(r.templates))
	for typ := range r.templates {
		out = append(out, typ)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
