package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/surrlabs/surr/internal/logger"
	"github.com/surrlabs/surr/internal/model"
)

// Limiter decides whether a request fits inside its fixed window.
type Limiter interface {
	Allow(ctx context.Context, routeKey, clientID string, limit int, window time.Duration) (model.RateLimitDecision, error)
}

// RateLimit throttles requests per route and client IP.
type RateLimit struct {
	limiter Limiter
	logger  *logger.Logger
}

// NewRateLimit creates a new RateLimit middleware instance.
func NewRateLimit(limiter Limiter, logger *logger.Logger) *RateLimit {
	return &RateLimit{limiter: limiter, logger: logger}
}

// Limit returns a middleware enforcing the given budget per window for the
// wrapped route. The denial body is fixed; it never distinguishes a new
// key from an exhausted window.
func (m *RateLimit) Limit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := m.limiter.Allow(r.Context(), r.URL.Path, clientIP(r), limit, window)
			if err != nil {
				status := http.StatusInternalServerError
				if errors.Is(err, model.ErrRaceExhausted) {
					status = http.StatusServiceUnavailable
				}
				m.logger.Error("rate limit check failed",
					"path", r.URL.Path,
					"error", err.Error())
				writeMessage(w, status, "service unavailable")
				return
			}

			if !decision.Allowed {
				writeMessage(w, http.StatusTooManyRequests, "too many requests, please try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the first X-Forwarded-For hop and falls back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first, _, ok := strings.Cut(forwarded, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(forwarded)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"message":"` + message + `"}`))
}
