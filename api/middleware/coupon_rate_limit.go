package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/angelmondragon/shopcore-backend/api/responses"
	pkgerrors "github.com/angelmondragon/shopcore-backend/pkg/errors"
	"github.com/angelmondragon/shopcore-backend/pkg/logger"
)

type windowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// CouponRateLimit caps coupon apply attempts per user within a fixed window
// so codes cannot be guessed by brute force.
func CouponRateLimit(limiter windowLimiter, limit int, window time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || limit <= 0 || window <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := UserIDFromContext(ctx)
			if userID == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
				return
			}

			allowed, count, err := limiter.FixedWindowAllow(ctx, fmt.Sprintf("coupon_apply:%s", userID), int64(limit), window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"attempts":       count,
						"limit":          limit,
						"window_seconds": int(window.Seconds()),
					})
					logg.Warn(logCtx, "coupon.rate_limit.blocked")
				}
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
				responses.WriteError(ctx, logg, w, pkgerrors.NewReason(pkgerrors.CodeRateLimit, pkgerrors.ReasonCouponRateLimited, "too many coupon attempts"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
