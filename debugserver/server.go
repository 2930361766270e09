// Package debugserver exposes cache state and Prometheus metrics over HTTP.
package debugserver

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/mindmate/respcache"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is an echo instance bound to one cache.
type Server struct {
	echo   *echo.Echo
	cache  *respcache.TTLCache
	addr   string
	logger *slog.Logger
}

// RemovedResponse reports how many entries an operation removed.
type RemovedResponse struct {
	Removed int `json:"removed"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// New wires the routes. gatherer may be nil when metrics are disabled.
func New(addr string, cache *respcache.TTLCache, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:   e,
		cache:  cache,
		addr:   addr,
		logger: logger.With("component", "debugserver"),
	}

	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	g := e.Group("/debug/cache")
	g.GET("", s.stats)
	g.DELETE("", s.clear)
	g.POST("/sweep", s.sweep)
	g.DELETE("/keys", s.invalidate)
	g.DELETE("/keys/:key", s.deleteKey)

	return s
}

// Handler returns the underlying http.Handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.logger.Info("debug server listening", "addr", s.addr)
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// GET /debug/cache
func (s *Server) stats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.cache.Stats())
}

// POST /debug/cache/sweep
func (s *Server) sweep(c echo.Context) error {
	n := s.cache.SweepExpired()
	s.logger.Info("manual sweep", "removed", n)
	return c.JSON(http.StatusOK, RemovedResponse{Removed: n})
}

// DELETE /debug/cache/keys/:key
func (s *Server) deleteKey(c echo.Context) error {
	key, err := url.PathUnescape(c.Param("key"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed key"})
	}
	s.cache.Delete(key)
	return c.NoContent(http.StatusNoContent)
}

// DELETE /debug/cache/keys?pattern=user:42*
func (s *Server) invalidate(c echo.Context) error {
	pattern := c.QueryParam("pattern")
	if pattern == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "pattern is required"})
	}
	n := s.cache.Invalidate(pattern)
	s.logger.Info("invalidated", "pattern", pattern, "removed", n)
	return c.JSON(http.StatusOK, RemovedResponse{Removed: n})
}

// DELETE /debug/cache
func (s *Server) clear(c echo.Context) error {
	s.cache.Clear()
	s.logger.Info("cache cleared")
	return c.NoContent(http.StatusNoContent)
}
