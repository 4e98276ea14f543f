package widget

import (
	_ "embed"
	"strings"
	"text/template"
)

//go:embed templates/styles.css.tmpl
var stylesTemplate string

// SystemFontStack replaces the "inherit" font family. Host page fonts never
// cross the isolation boundary, so a system stack keeps text legible.
const SystemFontStack = `-apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif`

// StarOnColor is the accent used for filled stars regardless of theme.
const StarOnColor = "#f59e0b"

// Palette is the two-tone color set of a theme.
type Palette struct {
	Background string
	Card       string
	Border     string
	Text       string
	Muted      string
	StarOff    string
}

var palettes = map[Theme]Palette{
	ThemeLight: {
		Background: "#f9fafb",
		Card:       "#ffffff",
		Border:     "#e5e7eb",
		Text:       "#111827",
		Muted:      "#6b7280",
		StarOff:    "#d1d5db",
	},
	ThemeDark: {
		Background: "#111827",
		Card:       "#1f2937",
		Border:     "#374151",
		Text:       "#f9fafb",
		Muted:      "#9ca3af",
		StarOff:    "#4b5563",
	},
}

// PaletteFor returns the palette of theme. Unknown themes get the light one.
func PaletteFor(theme Theme) Palette {
	if p, ok := palettes[theme]; ok {
		return p
	}
	return palettes[ThemeLight]
}

var styles = template.Must(template.New("styles").Parse(stylesTemplate))

type styleData struct {
	Palette       Palette
	StarOn        string
	Font          string
	Radius        int
	Columns       int
	TabletColumns int
	Shadow        bool
}

var fontStripper = strings.NewReplacer("{", "", "}", "", ";", "", "<", "", ">", "")

// FontStack resolves the font_family setting to a CSS font list.
func FontStack(family string) string {
	family = strings.TrimSpace(fontStripper.Replace(family))
	if family == "" || family == InheritFont {
		return SystemFontStack
	}
	return family
}

// GenerateStyles returns the CSS for the isolation root of a widget with
// configuration cfg. The wall grid uses cfg.Columns tracks, collapsing at
// the two breakpoints. With Shadow off no box-shadow declaration is emitted.
func GenerateStyles(cfg Config) string {
	columns := cfg.Columns
	if columns <= 0 {
		columns = DefaultColumns
	}
	radius := cfg.BorderRadius
	if radius < 0 {
		radius = 0
	}
	data := styleData{
		Palette:       PaletteFor(cfg.Theme),
		StarOn:        StarOnColor,
		Font:          FontStack(cfg.FontFamily),
		Radius:        radius,
		Columns:       columns,
		TabletColumns: min(columns, 2),
		Shadow:        cfg.Shadow,
	}
	var sb strings.Builder
	if err := styles.Execute(&sb, data); err != nil {
		return ""
	}
	return sb.String()
}
