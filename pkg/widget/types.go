package widget

import (
	"strings"
	"time"
)

// Theme selects the color palette.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Type selects the layout template.
type Type string

const (
	TypeWall     Type = "wall"
	TypeList     Type = "list"
	TypeCarousel Type = "carousel"
)

// Plan is the account plan of the widget owner.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// InheritFont is the font_family value that selects the system font stack.
const InheritFont = "inherit"

// DefaultColumns is used when a configuration carries no usable column count.
const DefaultColumns = 3

// Config is the display configuration of one widget.
type Config struct {
	Theme        Theme  `json:"theme"`
	ShowRating   bool   `json:"show_rating"`
	ShowDate     bool   `json:"show_date"`
	ShowAvatar   bool   `json:"show_avatar"`
	Shadow       bool   `json:"shadow"`
	MaxItems     int    `json:"max_items"`
	Columns      int    `json:"columns"`
	BorderRadius int    `json:"border_radius"`
	FontFamily   string `json:"font_family"`
}

// Testimonial is the public projection of a testimonial. Contact details
// are never part of it.
type Testimonial struct {
	ID              string  `json:"id"`
	AuthorName      string  `json:"author_name"`
	AuthorTitle     *string `json:"author_title"`
	AuthorCompany   *string `json:"author_company"`
	AuthorAvatarURL *string `json:"author_avatar_url"`
	Rating          int     `json:"rating"`
	Content         string  `json:"content"`
	CreatedAt       string  `json:"created_at"`
}

// Widget is the type/config pair of a payload.
type Widget struct {
	Type   Type   `json:"type"`
	Config Config `json:"config"`
}

// Payload is the body served by the widget data endpoint.
type Payload struct {
	Widget       Widget        `json:"widget"`
	Testimonials []Testimonial `json:"testimonials"`
	Plan         Plan          `json:"plan"`
}

// ShowBadge reports whether the attribution badge is shown.
func (p *Payload) ShowBadge() bool {
	return p.Plan == PlanFree
}

// Limit returns at most max records from ts. A non-positive max keeps
// every record.
func Limit(ts []Testimonial, max int) []Testimonial {
	if max <= 0 || len(ts) <= max {
		return ts
	}
	return ts[:max]
}

// Subtitle joins the author title and company with " / ", skipping the
// missing ones. It is empty when neither is set.
func (t Testimonial) Subtitle() string {
	var parts []string
	for _, p := range []*string{t.AuthorTitle, t.AuthorCompany} {
		if p != nil && *p != "" {
			parts = append(parts, *p)
		}
	}
	return strings.Join(parts, " / ")
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Created parses CreatedAt. Timestamps without a zone are read as UTC.
func (t Testimonial) Created() (time.Time, bool) {
	s := strings.TrimSpace(t.CreatedAt)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// StringPtr is a helper for building testimonials with optional fields.
func StringPtr(s string) *string { return &s }
