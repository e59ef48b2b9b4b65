package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// RateLimitConfig holds configuration for a specific rate limit
type RateLimitConfig struct {
	Name   string
	Limit  int
	Window time.Duration
	KeyFn  func(*http.Request) string
}

// RateLimit creates a fixed-window rate limiting middleware.
// Requests pass through when limiting is disabled or the counter fails.
func (m *Middleware) RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.cfg.Security.RateLimiting.Enabled || m.counter == nil || cfg.Limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := fmt.Sprintf("ratelimit:%s:%s", cfg.Name, cfg.KeyFn(r))

			count, err := m.counter.Incr(ctx, key)
			if err != nil {
				m.log.Error().Err(err).Msg("failed to increment rate limit counter")
				next.ServeHTTP(w, r)
				return
			}

			if count == 1 {
				if err := m.counter.Expire(ctx, key, cfg.Window); err != nil {
					m.log.Warn().Err(err).Msg("failed to set rate limit expiry")
				}
			}

			ttl, err := m.counter.TTLOf(ctx, key)
			if err != nil || ttl < 0 {
				ttl = cfg.Window
			}
			resetTime := time.Now().Add(ttl).Unix()

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, cfg.Limit-int(count))))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime, 10))

			if int(count) > cfg.Limit {
				w.Header().Set("Retry-After", strconv.FormatInt(int64(ttl.Seconds()), 10))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":{"code":"RATE_LIMITED","message":"Too many requests. Please try again later."}}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SendRateLimit limits send requests per actor using the configured window
func (m *Middleware) SendRateLimit() func(http.Handler) http.Handler {
	return m.RateLimit(RateLimitConfig{
		Name:   "send",
		Limit:  m.cfg.Security.RateLimiting.Limit,
		Window: m.cfg.Security.RateLimiting.Window,
		KeyFn:  ActorOrIPKey,
	})
}

// AuthRateLimit limits API requests per client IP. It runs ahead of Auth so
// a flood of bad credentials is refused before any key hash is computed.
func (m *Middleware) AuthRateLimit() func(http.Handler) http.Handler {
	return m.RateLimit(RateLimitConfig{
		Name:   "auth",
		Limit:  m.cfg.Security.RateLimiting.AuthLimit,
		Window: m.cfg.Security.RateLimiting.Window,
		KeyFn:  IPKey,
	})
}

// IPKey returns the client IP address as the rate limit key
func IPKey(r *http.Request) string {
	return clientIP(r)
}

// ActorOrIPKey keys on the authenticated actor, or the client IP before auth
func ActorOrIPKey(r *http.Request) string {
	if actor, ok := r.Context().Value(ActorKey).(string); ok && actor != "" {
		return "actor:" + actor
	}
	return "ip:" + IPKey(r)
}
