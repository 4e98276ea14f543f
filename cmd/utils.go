package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rubiojr/vouch/pkg/bootstrap"
	"github.com/rubiojr/vouch/pkg/client"
	"github.com/rubiojr/vouch/pkg/config"
	"github.com/rubiojr/vouch/pkg/widget"
)

// maxPageSize bounds host pages read from disk or the network.
const maxPageSize = 8 << 20

// newRenderer builds a card renderer writing dates in the configured
// locale and zone.
func newRenderer(cfg *config.Config) (*widget.Renderer, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return widget.NewRenderer(widget.WithDateFormatter(widget.NewDateFormatter(cfg.Locale, loc))), nil
}

func newClient(cfg *config.Config, timeout time.Duration) *client.Client {
	if timeout <= 0 {
		timeout = cfg.FetchTimeout.Duration
	}
	return client.New(client.WithTimeout(timeout))
}

// bootstrapOptions maps the configuration onto a bootstrap run.
func bootstrapOptions(cfg *config.Config, fetchTimeout time.Duration) (bootstrap.Options, error) {
	renderer, err := newRenderer(cfg)
	if err != nil {
		return bootstrap.Options{}, err
	}
	return bootstrap.Options{
		Fetcher:          newClient(cfg, fetchTimeout),
		Renderer:         renderer,
		DefaultAPIBase:   cfg.APIBase,
		ScriptName:       cfg.ScriptName,
		AutoplayInterval: cfg.AutoplayInterval.Duration,
	}, nil
}

func isRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// readPage loads a host page from a file path or an http(s) URL and returns
// it with the URL relative scripts resolve against.
func readPage(ctx context.Context, src, baseURL string) ([]byte, string, error) {
	if isRemote(src) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, "", fmt.Errorf("building request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, "", fmt.Errorf("fetching %s: %w", src, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, "", fmt.Errorf("fetching %s: status %d", src, resp.StatusCode)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
		if err != nil {
			return nil, "", fmt.Errorf("reading %s: %w", src, err)
		}
		if baseURL == "" {
			baseURL = src
		}
		return data, baseURL, nil
	}

	f, err := os.Open(src)
	if err != nil {
		return nil, "", fmt.Errorf("opening page: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxPageSize))
	if err != nil {
		return nil, "", fmt.Errorf("reading page: %w", err)
	}
	if baseURL == "" {
		if abs, err := filepath.Abs(src); err == nil {
			baseURL = "file://" + filepath.ToSlash(abs)
		}
	}
	return data, baseURL, nil
}
