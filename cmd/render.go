package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rubiojr/vouch/pkg/bootstrap"
	"github.com/rubiojr/vouch/pkg/config"
	"github.com/rubiojr/vouch/pkg/dom"
	"github.com/rubiojr/vouch/pkg/log"
	"github.com/urfave/cli/v3"
)

// RenderCommand creates the render command
func RenderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "Prerender the widgets embedded in a host page",
		ArgsUsage: "PAGE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write the rendered page to this file instead of stdout",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "URL the page is served from, used to resolve relative script sources",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Give up waiting for widget data after this long",
				Value: 30 * time.Second,
			},
			&cli.StringFlag{
				Name:  "api-base",
				Usage: "Read widget data from this origin regardless of the page scripts",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			page := c.Args().First()
			if page == "" {
				return errors.New("a page file or URL is required")
			}
			return renderPage(ctx, c.String("config"), page, renderOptions{
				out:     c.String("out"),
				baseURL: c.String("base-url"),
				timeout: c.Duration("timeout"),
				apiBase: c.String("api-base"),
			})
		},
	}
}

type renderOptions struct {
	out     string
	baseURL string
	timeout time.Duration
	apiBase string
}

func renderPage(ctx context.Context, configPath, page string, ro renderOptions) error {
	logger := log.ForService("render")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	opts, err := bootstrapOptions(cfg, 0)
	if err != nil {
		return err
	}
	opts.APIBase = ro.apiBase

	if ro.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ro.timeout)
		defer cancel()
	}

	data, pageURL, err := readPage(ctx, page, ro.baseURL)
	if err != nil {
		return err
	}
	doc, err := dom.Parse(bytes.NewReader(data), pageURL)
	if err != nil {
		return err
	}

	sess, err := bootstrap.Prerender(ctx, doc, opts)
	if sess == nil {
		return err
	}
	if err != nil {
		logger.Warnf("%v", err)
	}
	for _, inst := range sess.Instances {
		logger.Debugf("widget %s: %s", inst.WidgetID, inst.State())
	}
	logger.Infof("%d of %d widgets rendered from %s", len(sess.Rendered()), len(sess.Instances), sess.APIBase)

	var w io.Writer = os.Stdout
	if ro.out != "" {
		f, err := os.Create(ro.out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", ro.out, err)
		}
		defer f.Close()
		w = f
	}
	if err := doc.Render(w); err != nil {
		return fmt.Errorf("writing page: %w", err)
	}
	return nil
}
