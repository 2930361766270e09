package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mindmate/respcache"
	"github.com/mindmate/respcache/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type backend struct {
	srv *httptest.Server

	mu      sync.Mutex
	name    string
	fail    bool
	gets    atomic.Int32
	lastReq *http.Request
}

func newBackend(t *testing.T) *backend {
	b := &backend{name: "Ava"}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.lastReq = r

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/users/42":
			b.gets.Add(1)
			if b.fail {
				http.Error(w, `{"detail":"db down"}`, http.StatusServiceUnavailable)
				return
			}
			_ = json.NewEncoder(w).Encode(profile{ID: "42", Name: b.name})
		case r.Method == http.MethodPut && r.URL.Path == "/api/users/42":
			var p profile
			_ = json.NewDecoder(r.Body).Decode(&p)
			b.name = p.Name
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) last() *http.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastReq
}

func (b *backend) setFail(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail = v
}

func newClient(t *testing.T, b *backend) (*Client, *respcache.TTLCache) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cache := respcache.New(respcache.Config{SweepInterval: -1, Logger: logger})
	t.Cleanup(cache.Close)

	c, err := New(Config{BaseURL: b.srv.URL}, cache, logger)
	require.NoError(t, err)
	return c, cache
}

func TestNewValidatesBaseURL(t *testing.T) {
	cache := respcache.New(respcache.Config{SweepInterval: -1})
	defer cache.Close()

	_, err := New(Config{BaseURL: "/relative"}, cache, nil)
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "http://api"}, nil, nil)
	assert.Error(t, err)
}

func TestGetIsCached(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	c, cache := newClient(t, b)

	p, err := Decode[profile](ctx, c.Get(ctx, "/api/users/42", nil))
	require.NoError(t, err)
	assert.Equal(t, "Ava", p.Name)

	q := c.Get(ctx, "/api/users/42", nil)
	assert.False(t, q.IsLoading())
	p, err = Decode[profile](ctx, q)
	require.NoError(t, err)
	assert.Equal(t, "Ava", p.Name)

	assert.Equal(t, int32(1), b.gets.Load())
	assert.True(t, cache.Has("GET /api/users/42"))
	assert.Equal(t, "application/json", b.last().Header.Get("Accept"))
}

func TestGetErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	c, cache := newClient(t, b)

	b.setFail(true)
	_, err := Decode[profile](ctx, c.Get(ctx, "/api/users/42", nil))
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "db down")
	assert.Equal(t, 0, cache.Size())

	b.setFail(false)
	p, err := Decode[profile](ctx, c.Get(ctx, "/api/users/42", nil))
	require.NoError(t, err)
	assert.Equal(t, "Ava", p.Name)
	assert.Equal(t, int32(2), b.gets.Load())
}

func TestWriteInvalidatesCachedReads(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	c, cache := newClient(t, b)

	_, err := Decode[profile](ctx, c.Get(ctx, "/api/users/42", nil))
	require.NoError(t, err)
	cache.Set("GET /api/users/7", json.RawMessage(`{}`))

	_, err = c.Do(ctx, http.MethodPut, "/api/users/42", profile{Name: "Bea"})
	require.NoError(t, err)
	assert.False(t, cache.Has("GET /api/users/42"))
	assert.True(t, cache.Has("GET /api/users/7"))

	p, err := Decode[profile](ctx, c.Get(ctx, "/api/users/42", nil))
	require.NoError(t, err)
	assert.Equal(t, "Bea", p.Name)
}

func TestQueryIsPartOfTheKey(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	c, cache := newClient(t, b)

	_, _ = c.Get(ctx, "/api/users/42", url.Values{"fields": {"name"}}).Wait(ctx)
	_, _ = c.Get(ctx, "/api/users/42", nil).Wait(ctx)

	assert.Equal(t, int32(2), b.gets.Load())
	assert.Equal(t, 2, cache.Size())
	assert.True(t, cache.Has("GET /api/users/42?fields=name"))
}

func TestOversizedResponseIsNotCached(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	c, cache := newClient(t, b)
	c.maxBody = 16

	q := c.Get(ctx, "/api/users/42", nil)
	_, err := Decode[profile](ctx, q)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 16 bytes")
	assert.False(t, cache.Has("GET /api/users/42"))
	assert.Equal(t, 0, cache.Size())

	c.maxBody = maxBodySize
	p, err := Decode[profile](ctx, c.Get(ctx, "/api/users/42", nil))
	require.NoError(t, err)
	assert.Equal(t, "Ava", p.Name)
	assert.Equal(t, int32(2), b.gets.Load())
}

func TestDoNotFound(t *testing.T) {
	b := newBackend(t)
	c, _ := newClient(t, b)

	_, err := c.Do(context.Background(), http.MethodDelete, "/api/nothing", nil)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestDecodeRejectsNonJSONValue(t *testing.T) {
	ctx := context.Background()
	cache := respcache.New(respcache.Config{SweepInterval: -1})
	defer cache.Close()

	cache.Set("k", 42)
	q := cache.GetOrPopulate(ctx, "k", types.LoaderFunc(func(context.Context, string) (any, error) {
		return 42, nil
	}))
	_, err := Decode[int](ctx, q)
	assert.Error(t, err)
}
