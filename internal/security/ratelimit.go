package security

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"construction-platform/internal/apierror"
	"construction-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	headerLimit      = "RateLimit-Limit"
	headerRemaining  = "RateLimit-Remaining"
	headerReset      = "RateLimit-Reset"
	headerRetryAfter = "Retry-After"
)

// CounterStore holds fixed-window hit counters shared by every request.
// Implementations must be safe for concurrent use.
type CounterStore interface {
	// Increment adds one hit to key and returns the new count. A key that did
	// not exist starts at 1 and expires after ttl.
	Increment(ctx context.Context, key string, ttl time.Duration) (int, error)
	// Decrement removes one hit from key. Missing keys are ignored.
	Decrement(ctx context.Context, key string) error
}

type LimiterConfig struct {
	// Name prefixes every counter key so limiters sharing a store stay apart.
	Name   string
	Window time.Duration
	Max    int

	Code    apierror.Code
	Message string

	// SkipSuccessful refunds the hit when the response status is below 400,
	// so only failed attempts count toward Max.
	SkipSuccessful bool
}

func (c LimiterConfig) validate() error {
	var errs []error
	if c.Name == "" {
		errs = append(errs, errors.New("limiter name is required"))
	}
	// Windows are aligned on whole milliseconds.
	if c.Window < time.Millisecond {
		errs = append(errs, fmt.Errorf("limiter %q: window must be at least 1ms, got %s", c.Name, c.Window))
	}
	if c.Max <= 0 {
		errs = append(errs, fmt.Errorf("limiter %q: max must be > 0", c.Name))
	}
	if c.Code == "" {
		errs = append(errs, fmt.Errorf("limiter %q: code is required", c.Name))
	}
	return errors.Join(errs...)
}

// APILimit is the global limiter applied to every /api/ route.
func APILimit(window time.Duration, limit int) LimiterConfig {
	return LimiterConfig{
		Name:    "api",
		Window:  window,
		Max:     limit,
		Code:    apierror.CodeRateLimitExceeded,
		Message: "Too many requests, please try again later",
	}
}

// AuthLimit is the credential-stuffing limiter for login and registration.
func AuthLimit(window time.Duration, limit int) LimiterConfig {
	return LimiterConfig{
		Name:           "auth",
		Window:         window,
		Max:            limit,
		Code:           apierror.CodeAuthRateLimitExceeded,
		Message:        "Too many authentication attempts, please try again later",
		SkipSuccessful: true,
	}
}

// Limiter is a fixed-window counter keyed by client address and window start.
type Limiter struct {
	cfg   LimiterConfig
	store CounterStore
	now   func() time.Time
}

func NewLimiter(store CounterStore, cfg LimiterConfig) (*Limiter, error) {
	if store == nil {
		return nil, errors.New("counter store is required")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Message == "" {
		cfg.Message = "Too many requests, please try again later"
	}
	return &Limiter{cfg: cfg, store: store, now: time.Now}, nil
}

// WithClock returns a copy of l reading time from now. Intended for tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	cp := *l
	cp.now = now
	return &cp
}

// window returns the start and end of the fixed window containing t.
func (l *Limiter) window(t time.Time) (time.Time, time.Time) {
	size := l.cfg.Window.Milliseconds()
	start := time.UnixMilli(t.UnixMilli() / size * size)
	return start, start.Add(l.cfg.Window)
}

func (l *Limiter) key(client string, windowStart time.Time) string {
	return l.cfg.Name + ":" + client + ":" + strconv.FormatInt(windowStart.UnixMilli(), 10)
}

// Middleware counts the request against the caller's window and rejects it
// with 429 once the cap is exceeded. A store failure lets the request through.
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		now := l.now()
		start, reset := l.window(now)
		key := l.key(c.ClientIP(), start)

		count, err := l.store.Increment(c.Request.Context(), key, reset.Sub(now))
		if err != nil {
			logger.FromGin(c).Warn("Rate limit store unavailable",
				"limiter", l.cfg.Name,
				"error", err.Error(),
			)
			c.Next()
			return
		}

		resetSecs := int(math.Ceil(reset.Sub(now).Seconds()))
		h := c.Writer.Header()
		h.Set(headerLimit, strconv.Itoa(l.cfg.Max))
		h.Set(headerRemaining, strconv.Itoa(max(l.cfg.Max-count, 0)))
		h.Set(headerReset, strconv.Itoa(resetSecs))

		if count > l.cfg.Max {
			h.Set(headerRetryAfter, strconv.Itoa(resetSecs))
			apierror.Abort(c, http.StatusTooManyRequests, l.cfg.Code, l.cfg.Message)
			return
		}

		c.Next()

		if l.cfg.SkipSuccessful && c.Writer.Status() < http.StatusBadRequest {
			// Detached so a client disconnect does not leave the hit counted.
			if err := l.store.Decrement(context.WithoutCancel(c.Request.Context()), key); err != nil {
				logger.FromGin(c).Warn("Rate limit refund failed",
					"limiter", l.cfg.Name,
					"error", err.Error(),
				)
			}
		}
	}
}

// ForPrefix runs h only for request paths under prefix. Unlike a route group
// it also covers paths that match no route.
func ForPrefix(prefix string, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.HasPrefix(c.Request.URL.Path, prefix) {
			c.Next()
			return
		}
		h(c)
	}
}
