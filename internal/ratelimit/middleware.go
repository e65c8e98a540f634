package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/BrunoPirard/gtro-pricing/internal/common"
)

// Config describes one guarded route group: how to derive the limit key
// and the window/quota pair to enforce.
type Config struct {
	Key    func(*http.Request) string
	Window time.Duration
	Max    int
}

// Middleware enforces a Limiter in front of a handler chain. Limiter
// errors fail open: a Redis outage degrades to unlimited quoting rather
// than a hard outage, with the error logged.
type Middleware struct {
	Limiter Limiter
	Config  Config
	Logger  zerolog.Logger
}

// Handle wraps next with the rate limit check and standard headers.
func (m Middleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Config.Key == nil {
			next.ServeHTTP(w, r)
			return
		}
		res, err := m.Limiter.Allow(r.Context(), m.Config.Key(r), m.Config.Window, m.Config.Max)
		if err != nil {
			m.Logger.Warn().Err(err).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.Itoa(m.Config.Max))
		headers.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if !res.Allowed {
			retryAfter := int(time.Until(res.ResetAt).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("Retry-After", strconv.Itoa(retryAfter))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClientIP derives a limit key from the caller address, preferring the
// first X-Forwarded-For hop when the service sits behind a proxy.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
