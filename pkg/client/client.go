// Package client reads widget payloads from the data endpoint.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rubiojr/vouch/pkg/log"
	"github.com/rubiojr/vouch/pkg/version"
	"github.com/rubiojr/vouch/pkg/widget"
)

// DefaultTimeout bounds a whole fetch when no other timeout is configured.
const DefaultTimeout = 10 * time.Second

// Client fetches widget data. It performs exactly one request per call:
// no retries, no caching.
type Client struct {
	http      *http.Client
	userAgent string
	logger    *log.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the request timeout of the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.http
			hc.Timeout = d
			c.http = &hc
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New returns a Client with the default timeout.
func New(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: DefaultTimeout},
		userAgent: "vouch/" + version.Version,
		logger:    log.ForService("client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DataURL is the endpoint serving the payload of widgetID under apiBase.
func DataURL(apiBase, widgetID string) string {
	return strings.TrimRight(apiBase, "/") + "/api/widgets/" + url.PathEscape(widgetID) + "/data"
}

// FetchWidgetData performs a single unauthenticated GET for the payload of
// widgetID. Non-2xx responses return a *StatusError; transport failures
// wrap ErrNetwork.
func (c *Client) FetchWidgetData(ctx context.Context, apiBase, widgetID string) (*widget.Payload, error) {
	endpoint := DataURL(apiBase, widgetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debugf("GET %s", endpoint)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: endpoint}
	}

	var payload widget.Payload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding payload from %s: %w", endpoint, err)
	}
	return &payload, nil
}
