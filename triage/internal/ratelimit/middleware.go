package ratelimit

import (
	"log/slog"
	"net/http"

	"github.com/telhawk-systems/telhawk-soc/common/httputil"
	"github.com/telhawk-systems/telhawk-soc/common/logging"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/metrics"
)

// Middleware rejects requests over the limit with 429. Requests are keyed
// by route name and client IP. Limiter failures let the request through.
func Middleware(limiter RateLimiter, route string, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := httputil.GetClientIP(r)
			allowed, err := limiter.Allow(r.Context(), route+":"+ip)
			if err != nil {
				logger.WarnContext(r.Context(), "rate limiter unavailable",
					logging.IP(ip),
					logging.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				metrics.RateLimitHits.WithLabelValues(route).Inc()
				httputil.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
