package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rubiojr/vouch/pkg/config"
	"github.com/rubiojr/vouch/pkg/log"
	"github.com/rubiojr/vouch/pkg/preview"
	"github.com/urfave/cli/v3"
)

// PreviewCommand creates the preview command
func PreviewCommand() *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Serve host pages with their widgets prerendered",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Address to listen on (defaults to preview.listen)",
			},
			&cli.StringFlag{
				Name:  "page",
				Usage: "HTML file served at / (defaults to preview.page)",
			},
			&cli.StringSliceFlag{
				Name:    "widget",
				Aliases: []string{"w"},
				Usage:   "Widget id embedded in the generated host page, repeatable",
			},
			&cli.StringFlag{
				Name:  "script-url",
				Usage: "src written into generated embed directives",
			},
			&cli.BoolFlag{
				Name:  "no-reload",
				Usage: "Do not watch files or push reloads to the browser",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runPreview(ctx, c.String("config"), previewFlags{
				listen:    c.String("listen"),
				page:      c.String("page"),
				widgets:   c.StringSlice("widget"),
				scriptURL: c.String("script-url"),
				noReload:  c.Bool("no-reload"),
			})
		},
	}
}

type previewFlags struct {
	listen    string
	page      string
	widgets   []string
	scriptURL string
	noReload  bool
}

// previewOptions merges the configuration with the command line flags,
// the flags winning.
func previewOptions(cfg *config.Config, pf previewFlags) (preview.Options, error) {
	bopts, err := bootstrapOptions(cfg, 0)
	if err != nil {
		return preview.Options{}, err
	}
	opts := preview.Options{
		Bootstrap:  bopts,
		PagePath:   cfg.Preview.Page,
		Widgets:    cfg.Preview.Widgets,
		ScriptURL:  pf.scriptURL,
		LiveReload: !pf.noReload,
	}
	if pf.page != "" {
		opts.PagePath = pf.page
	}
	if len(pf.widgets) > 0 {
		opts.Widgets = pf.widgets
	}
	if opts.ScriptURL == "" {
		opts.ScriptURL = strings.TrimRight(cfg.APIBase, "/") + "/" + cfg.ScriptName
	}
	return opts, nil
}

func runPreview(ctx context.Context, configPath string, pf previewFlags) error {
	logger := log.ForService("preview")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	opts, err := previewOptions(cfg, pf)
	if err != nil {
		return err
	}

	addr := pf.listen
	if addr == "" {
		addr = cfg.Preview.Listen
	}

	srv := preview.NewServer(opts)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if opts.LiveReload {
		paths := []string{configPath, opts.PagePath}
		err := srv.Watch(ctx, paths, func(path string) {
			if path != configPath {
				return
			}
			newCfg, err := config.LoadConfig(configPath)
			if err != nil {
				logger.Errorf("reloading configuration: %v", err)
				return
			}
			newOpts, err := previewOptions(newCfg, pf)
			if err != nil {
				logger.Errorf("reloading configuration: %v", err)
				return
			}
			srv.SetOptions(newOpts)
			logger.Infof("configuration reloaded")
		})
		if err != nil {
			logger.Warnf("live reload disabled: %v", err)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx, addr)
	}()

	fmt.Println("Press Ctrl+C to stop")

	select {
	case sig := <-sigCh:
		logger.Infof("received %s, shutting down", sig)
		cancel()
		select {
		case err := <-errCh:
			return ignoreClosed(err)
		case <-time.After(10 * time.Second):
			return errors.New("timed out waiting for the server to stop")
		}
	case err := <-errCh:
		return ignoreClosed(err)
	}
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
