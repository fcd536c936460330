// Package api provides an HTTP client for the taskdeck task API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/dohr-michael/taskdeck/internal/config"
)

const requestIDHeader = "X-Request-ID"

// maxErrorBody caps how much of an error response is read for its detail.
const maxErrorBody = 64 << 10

// Options configures a Client.
type Options struct {
	BaseURL string
	Routes  config.Routes
	Timeout time.Duration
	// Token is the bearer credential attached to every request. Empty means anonymous.
	Token string
	// Transport overrides the base round tripper (tests).
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// Client is a typed client for the task API. It is safe for concurrent use.
type Client struct {
	base   *url.URL
	routes config.Routes
	http   *http.Client
	log    *slog.Logger
	opts   Options
}

// New builds a Client. Routes left empty fall back to the defaults.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", opts.BaseURL)
	}

	routes := opts.Routes
	if routes == (config.Routes{}) {
		routes = config.DefaultRoutes()
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	var rt http.RoundTripper = opts.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	if opts.Token != "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"}),
			Base:   rt,
		}
	}
	rt = &loggingTransport{base: rt, log: log}

	return &Client{
		base:   base,
		routes: routes,
		http:   &http.Client{Transport: rt, Timeout: opts.Timeout},
		log:    log,
		opts:   opts,
	}, nil
}

// WithToken returns a copy of the client that authenticates with token.
func (c *Client) WithToken(token string) (*Client, error) {
	opts := c.opts
	opts.Token = token
	opts.Routes = c.routes
	return New(opts)
}

// Authenticated reports whether the client carries a bearer token.
func (c *Client) Authenticated() bool { return c.opts.Token != "" }

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.base.String() }

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(requestIDHeader, uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{
			Status:    resp.StatusCode,
			Detail:    normalizeDetail(data),
			RequestID: req.Header.Get(requestIDHeader),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// expand substitutes the resource id into a route template.
func expand(route string, id int64) string {
	return strings.ReplaceAll(route, "{id}", strconv.FormatInt(id, 10))
}

// loggingTransport stamps a request id and logs every exchange at debug level.
type loggingTransport struct {
	base http.RoundTripper
	log  *slog.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	attrs := []any{
		"method", req.Method,
		"path", req.URL.Path,
		"request_id", req.Header.Get(requestIDHeader),
		"duration", time.Since(start).Round(time.Millisecond),
	}
	if err != nil {
		t.log.Debug("api request failed", append(attrs, "error", err)...)
		return nil, err
	}
	t.log.Debug("api request", append(attrs, "status", resp.StatusCode)...)
	return resp, nil
}
