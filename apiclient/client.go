// Package apiclient is a JSON REST client whose GETs are memoised in a TTLCache.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mindmate/respcache"
	"github.com/mindmate/respcache/keys"
	"github.com/mindmate/respcache/types"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// maxBodySize caps how much of a response body is read and cached.
const maxBodySize = 8 << 20

// Config describes the backend and how hard the client may hit it.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// RatePerSecond limits outbound requests. Zero or negative means unlimited.
	RatePerSecond float64
	Burst         int

	// TTL is how long successful GET responses stay cached. Zero uses the cache default.
	TTL time.Duration
}

// HTTPError is returned for any non-2xx response. It is never cached.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("api: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), body)
}

// Client talks to the backend. GETs go through the cache; everything else goes straight out.
type Client struct {
	base    *url.URL
	http    *http.Client
	cache   *respcache.TTLCache
	limiter *rate.Limiter
	ttl     time.Duration
	maxBody int64
	logger  *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New validates cfg and builds a Client on top of cache.
func New(cfg Config, cache *respcache.TTLCache, logger *slog.Logger, opts ...Option) (*Client, error) {
	if cache == nil {
		return nil, errors.New("apiclient: cache is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "apiclient: parse base url %q", cfg.BaseURL)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("apiclient: base url %q must be absolute", cfg.BaseURL)
	}
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		base:    base,
		http:    &http.Client{Timeout: cfg.Timeout},
		cache:   cache,
		limiter: rate.NewLimiter(limit, burst),
		ttl:     cfg.TTL,
		maxBody: maxBodySize,
		logger:  logger.With("component", "apiclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

/*
Get is a read-through cached GET.
The Query's value is the raw JSON body as a json.RawMessage; use Decode to
turn it into a typed value. Failed requests are reported through the Query and
never cached.
*/
func (c *Client) Get(ctx context.Context, path string, query url.Values, opts ...respcache.PopulateOption) *respcache.Query {
	key := keys.Request(http.MethodGet, path, query)
	loader := types.LoaderFunc(func(ctx context.Context, _ string) (any, error) {
		return c.fetch(ctx, http.MethodGet, path, query, nil)
	})

	if c.ttl > 0 {
		opts = append([]respcache.PopulateOption{respcache.WithTTL(c.ttl)}, opts...)
	}
	return c.cache.GetOrPopulate(ctx, key, loader, opts...)
}

// Decode waits for q and unmarshals its JSON body into T.
func Decode[T any](ctx context.Context, q *respcache.Query) (T, error) {
	var out T

	v, err := q.Wait(ctx)
	if err != nil {
		return out, err
	}
	raw, ok := v.(json.RawMessage)
	if !ok {
		return out, errors.Errorf("apiclient: cached value is %T, not json", v)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, errors.Wrap(err, "apiclient: decode response")
	}
	return out, nil
}

/*
Do sends an uncached request. body, when not nil, is sent as JSON.
A successful write (anything but GET) drops every cached GET under path,
so the next read sees the change.
*/
func (c *Client) Do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	raw, err := c.fetch(ctx, method, path, nil, body)
	if err != nil {
		return nil, err
	}
	if method != http.MethodGet {
		n := c.cache.Invalidate(keys.RequestPrefix(path))
		c.logger.Debug("invalidated cached reads", "method", method, "path", path, "removed", n)
	}
	return raw, nil
}

func (c *Client) fetch(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "apiclient: rate limit")
	}

	u := c.base.JoinPath(path)
	u.RawQuery = query.Encode()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "apiclient: encode request body")
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, errors.Wrapf(err, "apiclient: build %s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "apiclient: %s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, errors.Wrapf(err, "apiclient: read %s %s", method, path)
	}
	if int64(len(data)) > c.maxBody {
		// a truncated body is a failed fetch and must never reach the cache
		return nil, errors.Errorf("apiclient: %s %s: response exceeds %d bytes", method, path, c.maxBody)
	}

	c.logger.Debug("api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(data), nil
}
