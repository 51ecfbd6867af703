// Package cache implements best-effort cache-aside for JSON read routes and
// glob invalidation for mutating routes. The cache only ever changes latency:
// a missing, slow or failing backend degrades to running the handler.
package cache

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"YourWheels/kv"
)

const (
	CollectionTTL = 300 * time.Second
	ResourceTTL   = 600 * time.Second
	SoldTTL       = 900 * time.Second
	ProfileTTL    = 3600 * time.Second

	DefaultTimeout = 200 * time.Millisecond

	// HeaderCache reports HIT or MISS. It is the only difference between a
	// cached and an uncached response.
	HeaderCache = "X-Cache"

	staleKey = "cache.stale"
)

var (
	lookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yourwheels_cache_requests_total",
		Help: "Cache lookups by result (hit, miss, error).",
	}, []string{"result"})
	invalidated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yourwheels_cache_invalidated_keys_total",
		Help: "Keys removed by pattern invalidation.",
	})
)

type KeyFunc func(c echo.Context) string

type Layer struct {
	store   kv.Store
	timeout time.Duration
	log     *zap.Logger
}

// New returns a cache layer over store. A nil store disables caching.
func New(store kv.Store, timeout time.Duration, log *zap.Logger) *Layer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Layer{store: store, timeout: timeout, log: log.Named("cache")}
}

func (l *Layer) Enabled() bool { return l != nil && l.store != nil }

func (l *Layer) lookup(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	body, err := l.store.Get(ctx, key)
	switch {
	case err == nil:
		lookups.WithLabelValues("hit").Inc()
		return body, true
	case errors.Is(err, kv.ErrMiss):
		lookups.WithLabelValues("miss").Inc()
	default:
		lookups.WithLabelValues("error").Inc()
		l.log.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
	}
	return nil, false
}

func (l *Layer) populate(ctx context.Context, key string, body []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
	defer cancel()

	if err := l.store.Set(ctx, key, body, ttl); err != nil {
		l.log.Warn("cache populate failed", zap.String("key", key), zap.Error(err))
	}
}

// Cache serves the route from the cache when possible and otherwise stores
// the body of a successful response under key for ttl. An empty key skips the
// cache for that request.
func (l *Layer) Cache(key KeyFunc, ttl time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Enabled() {
				return next(c)
			}
			k := key(c)
			if k == "" {
				return next(c)
			}
			ctx := c.Request().Context()

			if body, ok := l.lookup(ctx, k); ok {
				c.Response().Header().Set(HeaderCache, "HIT")
				return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, body)
			}

			c.Response().Header().Set(HeaderCache, "MISS")
			rec := &recorder{ResponseWriter: c.Response().Writer}
			c.Response().Writer = rec
			err := next(c)
			c.Response().Writer = rec.ResponseWriter

			if err == nil && c.Response().Status == http.StatusOK && rec.body.Len() > 0 {
				l.populate(ctx, k, rec.body.Bytes(), ttl)
			}
			return err
		}
	}
}

// Invalidate removes every key matching each pattern. Failures are logged and
// swallowed.
func (l *Layer) Invalidate(ctx context.Context, patterns ...string) {
	if !l.Enabled() {
		return
	}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		n, err := l.store.DeletePattern(opCtx, p)
		cancel()
		if err != nil {
			l.log.Warn("cache invalidation failed", zap.String("pattern", p), zap.Error(err))
			continue
		}
		invalidated.Add(float64(n))
	}
}

// Stale queues patterns for the enclosing InvalidateAfter middleware. Handlers
// use it when the pattern depends on data they loaded, such as a listing's
// seller.
func Stale(c echo.Context, patterns ...string) {
	queued, _ := c.Get(staleKey).([]string)
	c.Set(staleKey, append(queued, patterns...))
}

// InvalidateAfter runs the mutation, and when it succeeded invalidates the
// static patterns plus anything queued with Stale before the response is
// released to the client.
func (l *Layer) InvalidateAfter(patterns ...KeyFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Enabled() {
				return next(c)
			}
			buf := &heldResponse{ResponseWriter: c.Response().Writer}
			c.Response().Writer = buf
			err := next(c)
			c.Response().Writer = buf.ResponseWriter

			if err == nil && c.Response().Status < http.StatusBadRequest {
				all := make([]string, 0, len(patterns))
				for _, p := range patterns {
					all = append(all, p(c))
				}
				queued, _ := c.Get(staleKey).([]string)
				l.Invalidate(c.Request().Context(), append(all, queued...)...)
			}
			if flushErr := buf.release(); flushErr != nil && err == nil {
				return flushErr
			}
			return err
		}
	}
}

// recorder tees the response body into a buffer.
type recorder struct {
	http.ResponseWriter
	body bytes.Buffer
}

func (r *recorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// heldResponse withholds status and body until release.
type heldResponse struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (h *heldResponse) WriteHeader(code int) {
	if h.status == 0 {
		h.status = code
	}
}

func (h *heldResponse) Write(b []byte) (int, error) {
	if h.status == 0 {
		h.status = http.StatusOK
	}
	return h.body.Write(b)
}

func (h *heldResponse) release() error {
	if h.status == 0 {
		return nil
	}
	h.ResponseWriter.WriteHeader(h.status)
	_, err := h.ResponseWriter.Write(h.body.Bytes())
	return err
}
