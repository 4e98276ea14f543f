package widget

import (
	"time"

	"golang.org/x/text/language"
)

// Numeric short-date layouts keyed by the tags the matcher can pick.
var dateLayouts = []struct {
	tag    language.Tag
	layout string
}{
	{language.AmericanEnglish, "1/2/2006"},
	{language.BritishEnglish, "02/01/2006"},
	{language.German, "2.1.2006"},
	{language.French, "02/01/2006"},
	{language.Spanish, "2/1/2006"},
	{language.Italian, "2/1/2006"},
	{language.Portuguese, "02/01/2006"},
	{language.Dutch, "2-1-2006"},
	{language.Japanese, "2006/1/2"},
	{language.Chinese, "2006/1/2"},
	{language.Korean, "2006. 1. 2."},
}

var dateMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(dateLayouts))
	for i, l := range dateLayouts {
		tags[i] = l.tag
	}
	return language.NewMatcher(tags)
}()

// DateFormatter renders testimonial dates as a local short date.
type DateFormatter struct {
	layout string
	loc    *time.Location
}

// NewDateFormatter picks the closest supported layout for locale (a BCP-47
// tag such as "en-US" or "de") and converts dates into loc. Unknown or
// malformed locales fall back to US English; a nil loc means time.Local.
func NewDateFormatter(locale string, loc *time.Location) DateFormatter {
	if loc == nil {
		loc = time.Local
	}
	layout := dateLayouts[0].layout
	if tag, err := language.Parse(locale); err == nil {
		_, idx, conf := dateMatcher.Match(tag)
		if conf != language.No {
			layout = dateLayouts[idx].layout
		}
	}
	return DateFormatter{layout: layout, loc: loc}
}

// Format renders t in the formatter's locale and zone.
func (f DateFormatter) Format(t time.Time) string {
	layout, loc := f.layout, f.loc
	if layout == "" {
		layout = dateLayouts[0].layout
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(layout)
}

// Layout returns the Go time layout in use.
func (f DateFormatter) Layout() string { return f.layout }
