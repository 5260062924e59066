// Package middleware rejects clients that exceed a request budget.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"hostelgate/internal/platform/middleware"
	"hostelgate/internal/ratelimit/bucket"
	dErrors "hostelgate/pkg/domain-errors"
	"hostelgate/pkg/platform/httputil"
	"hostelgate/pkg/requestcontext"
)

// Limiter counts one request for key.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*bucket.Result, error)
}

// Middleware limits requests per client IP. Limiter failures let the request
// through.
type Middleware struct {
	limiter Limiter
	logger  *slog.Logger
	limit   int
	window  time.Duration
	now     func() time.Time
}

func New(limiter Limiter, logger *slog.Logger, limit int, window time.Duration) *Middleware {
	return &Middleware{
		limiter: limiter,
		logger:  logger,
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// ByClientIP limits each client IP within scope. A non-positive limit
// disables the check.
func (m *Middleware) ByClientIP(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)
			if ip == "" {
				ip = middleware.ClientIPFromRequest(r)
			}

			result, err := m.limiter.Allow(ctx, scope+":"+ip, m.limit, m.window)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"scope", scope,
					"error", err,
					"request_id", middleware.GetRequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)
			if !result.Allowed {
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"scope", scope,
					"client_ip", ip,
					"request_id", middleware.GetRequestID(ctx),
				)
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter(m.now())))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many attempts, try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func addRateLimitHeaders(w http.ResponseWriter, result *bucket.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
