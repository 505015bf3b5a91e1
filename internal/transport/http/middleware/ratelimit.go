package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"nisser/internal/httputil"
	"nisser/internal/observability"
)

// WindowLimiter counts hits per key in fixed windows.
type WindowLimiter interface {
	AllowFixedWindow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit rejects requests past limit per window with 429. Requests are
// keyed by the authenticated user when there is one, else by client IP.
// When the limiter itself fails the request is let through.
func RateLimit(limiter WindowLimiter, name string, limit int, window time.Duration, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			key := "ratelimit:" + name + ":" + clientKey(r)
			allowed, err := limiter.AllowFixedWindow(r.Context(), key, limit, window)
			if err != nil {
				log.Warn("rate limiter unavailable", zap.String("limiter", name), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				observability.RateLimited.WithLabelValues(name).Inc()
				w.Header().Set("Retry-After", retryAfter(window))
				httputil.WriteTooManyRequests(w, "Too many requests, try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if userID, ok := GetUserIDFromContext(r.Context()); ok {
		return "user:" + strconv.FormatInt(userID, 10)
	}

	// RealIP has already rewritten RemoteAddr when running behind a proxy
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

func retryAfter(window time.Duration) string {
	seconds := int64(window / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return strconv.FormatInt(seconds, 10)
}
