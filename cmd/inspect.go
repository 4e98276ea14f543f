package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rubiojr/vouch/pkg/client"
	"github.com/rubiojr/vouch/pkg/config"
	"github.com/rubiojr/vouch/pkg/widget"
	"github.com/urfave/cli/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			Width(14)

	blockStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Margin(0, 0, 1, 2)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Margin(1, 0)
)

// InspectCommand creates the inspect command
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Fetch a widget and summarize what it would render",
		ArgsUsage: "WIDGET_ID",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "api-base",
				Usage: "Origin serving the widget data (defaults to the configured api_base)",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Number of testimonials to show",
				Value:   3,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Request timeout (defaults to the configured fetch_timeout)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			id := c.Args().First()
			if id == "" {
				return errors.New("a widget id is required")
			}
			return inspectWidget(ctx, c.String("config"), id, c.String("api-base"), c.Int("limit"), c.Duration("timeout"))
		},
	}
}

func inspectWidget(ctx context.Context, configPath, id, apiBase string, limit int, timeout time.Duration) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if apiBase == "" {
		apiBase = cfg.APIBase
	}
	renderer, err := newRenderer(cfg)
	if err != nil {
		return err
	}

	payload, err := newClient(cfg, timeout).FetchWidgetData(ctx, apiBase, id)
	if err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("widget %s not found at %s", id, apiBase)
		}
		return fmt.Errorf("fetching widget %s: %w", id, err)
	}

	fmt.Print(formatInspectOutput(id, apiBase, payload, renderer, limit))
	return nil
}

func formatInspectOutput(id, apiBase string, p *widget.Payload, r *widget.Renderer, limit int) string {
	var output strings.Builder
	caser := cases.Title(language.English)
	wcfg := p.Widget.Config

	output.WriteString(titleStyle.Render(fmt.Sprintf("Widget %s", id)))
	output.WriteString("\n")

	shown := widget.Limit(p.Testimonials, wcfg.MaxItems)
	rows := [][2]string{
		{"Source", client.DataURL(apiBase, id)},
		{"Type", caser.String(string(p.Widget.Type))},
		{"Theme", caser.String(string(p.Widget.Config.Theme))},
		{"Plan", caser.String(string(p.Plan))},
		{"Badge", yesNo(p.ShowBadge())},
		{"Testimonials", fmt.Sprintf("%d received, %d rendered", len(p.Testimonials), len(shown))},
		{"Columns", fmt.Sprintf("%d", wcfg.Columns)},
		{"Display", displayFlags(wcfg)},
	}
	if wcfg.FontFamily != "" {
		rows = append(rows, [2]string{"Font", wcfg.FontFamily})
	}
	for _, row := range rows {
		output.WriteString(labelStyle.Render(row[0]))
		output.WriteString(row[1])
		output.WriteString("\n")
	}
	output.WriteString("\n")

	if len(shown) == 0 {
		output.WriteString(noDataStyle.Render("No testimonials to render."))
		output.WriteString("\n")
		return output.String()
	}

	if limit <= 0 || limit > len(shown) {
		limit = len(shown)
	}
	for _, t := range shown[:limit] {
		var block strings.Builder
		block.WriteString(lipgloss.NewStyle().Bold(true).Render(t.AuthorName))
		if sub := t.Subtitle(); sub != "" {
			block.WriteString(" " + metaStyle.Render(sub))
		}
		block.WriteString("\n")
		if wcfg.ShowRating && t.Rating > 0 {
			block.WriteString(strings.Repeat("★", min(t.Rating, 5)) + strings.Repeat("☆", 5-min(t.Rating, 5)))
			block.WriteString("\n")
		}
		block.WriteString(truncate(t.Content, 200))
		if created, ok := t.Created(); ok {
			block.WriteString("\n" + metaStyle.Render(r.FormatDate(created)))
		}
		output.WriteString(blockStyle.Render(block.String()))
		output.WriteString("\n")
	}
	if rest := len(shown) - limit; rest > 0 {
		output.WriteString(metaStyle.Render(fmt.Sprintf("... and %d more", rest)))
		output.WriteString("\n")
	}
	return output.String()
}

func displayFlags(c widget.Config) string {
	var flags []string
	if c.ShowRating {
		flags = append(flags, "rating")
	}
	if c.ShowDate {
		flags = append(flags, "date")
	}
	if c.ShowAvatar {
		flags = append(flags, "avatar")
	}
	if c.Shadow {
		flags = append(flags, "shadow")
	}
	if len(flags) == 0 {
		return "none"
	}
	return strings.Join(flags, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
