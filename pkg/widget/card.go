package widget

import (
	_ "embed"
	"html/template"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/card.html
var cardTemplate string

// StarCount is the number of star markers every rating block shows.
const StarCount = 5

type cardData struct {
	Record    Testimonial
	Config    Config
	Rating    int
	Stars     []bool
	AvatarURL string
	Initial   string
	Subtitle  string
	Date      string
}

var upper = cases.Upper(language.Und)

// Initial is the upper-cased first character of name, shown when a
// testimonial has no avatar image.
func Initial(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 || r == utf8.RuneError {
		return ""
	}
	return upper.String(string(r))
}

// Stars returns StarCount markers; the first rating of them are on.
func Stars(rating int) []bool {
	stars := make([]bool, StarCount)
	for i := range stars {
		stars[i] = i < rating
	}
	return stars
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"escape": escapeHTML,
		"inc":    func(i int) int { return i + 1 },
	}
}

func (r *Renderer) cardData(t Testimonial, cfg Config) cardData {
	data := cardData{
		Record:   t,
		Config:   cfg,
		Rating:   t.Rating,
		Stars:    Stars(t.Rating),
		Initial:  Initial(t.AuthorName),
		Subtitle: t.Subtitle(),
	}
	if t.AuthorAvatarURL != nil {
		data.AvatarURL = strings.TrimSpace(*t.AuthorAvatarURL)
	}
	if cfg.ShowDate {
		if created, ok := t.Created(); ok {
			data.Date = r.dates.Format(created)
		}
	}
	return data
}

// Card renders one testimonial: rating, quoted content, author block and
// date, each block subject to cfg.
func (r *Renderer) Card(t Testimonial, cfg Config) string {
	var sb strings.Builder
	if err := r.card.Execute(&sb, r.cardData(t, cfg)); err != nil {
		r.logger.Warnf("rendering card %s: %v", t.ID, err)
		return ""
	}
	return sb.String()
}

// Cards renders every testimonial in ts, in order.
func (r *Renderer) Cards(ts []Testimonial, cfg Config) []template.HTML {
	out := make([]template.HTML, 0, len(ts))
	for _, t := range ts {
		out = append(out, template.HTML(r.Card(t, cfg)))
	}
	return out
}
