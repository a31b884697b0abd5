package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/shopcore-backend/api/controllers"
	admincontrollers "github.com/angelmondragon/shopcore-backend/api/controllers/admin"
	cartcontrollers "github.com/angelmondragon/shopcore-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/shopcore-backend/api/controllers/orders"
	"github.com/angelmondragon/shopcore-backend/api/middleware"
	"github.com/angelmondragon/shopcore-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/shopcore-backend/internal/checkout"
	"github.com/angelmondragon/shopcore-backend/internal/coupons"
	"github.com/angelmondragon/shopcore-backend/internal/discounts"
	"github.com/angelmondragon/shopcore-backend/internal/orders"
	"github.com/angelmondragon/shopcore-backend/internal/payments"
	"github.com/angelmondragon/shopcore-backend/pkg/config"
	"github.com/angelmondragon/shopcore-backend/pkg/enums"
	"github.com/angelmondragon/shopcore-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/shopcore-backend/pkg/redis"
)

// Cache is the redis surface the HTTP layer needs.
type Cache interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

// Deps carries the services mounted by NewRouter. Nil services answer 500.
type Deps struct {
	DB        controllers.Pinger
	Cache     Cache
	Metrics   prometheus.Gatherer
	Cart      cart.Service
	Coupons   coupons.Service
	Discounts discounts.Service
	Orders    orders.Service
	Checkout  checkoutsvc.Service
	Payments  payments.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	readiness := map[string]controllers.Pinger{"db": deps.DB}
	if deps.Cache != nil {
		readiness["redis"] = deps.Cache
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	var (
		idempotencyStore pkgredis.IdempotencyStore
		limiter          Cache
	)
	if deps.Cache != nil {
		idempotencyStore = deps.Cache
		limiter = deps.Cache
	}

	r.Route("/api/v1", func(r chi.Router) {
		// The gateway redirects the shopper here without a bearer token.
		r.Get("/payment/verify", controllers.PaymentVerify(deps.Payments, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(idempotencyStore, cfg.Redis.IdempotencyTTL, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(deps.Cart, logg))
				r.Delete("/", cartcontrollers.CartClear(deps.Cart, logg))
				r.Post("/items", cartcontrollers.CartAddItem(deps.Cart, logg))
				r.Patch("/items/{itemId}", cartcontrollers.CartUpdateItem(deps.Cart, logg))
				r.Delete("/items/{itemId}", cartcontrollers.CartRemoveItem(deps.Cart, logg))
				r.With(middleware.CouponRateLimit(limiter, cfg.RateLimit.CouponApplyLimit, cfg.RateLimit.CouponApplyWindow, logg)).
					Post("/coupon", cartcontrollers.CartApplyCoupon(deps.Cart, logg))
				r.Delete("/coupon", cartcontrollers.CartRemoveCoupon(deps.Cart, logg))
			})

			r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.List(deps.Orders, logg))
				r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
				r.Post("/{orderId}/cancel", ordercontrollers.Cancel(deps.Orders, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.RoleAdmin, logg))
				r.Route("/orders", func(r chi.Router) {
					r.Get("/", ordercontrollers.AdminList(deps.Orders, logg))
					r.Get("/{orderId}", ordercontrollers.AdminDetail(deps.Orders, logg))
					r.Post("/{orderId}/refund", ordercontrollers.AdminRefund(deps.Orders, logg))
					r.Post("/{orderId}/status", ordercontrollers.AdminAdvanceStatus(deps.Orders, logg))
				})
				r.Route("/coupons", func(r chi.Router) {
					r.Get("/", admincontrollers.CouponList(deps.Coupons, logg))
					r.Post("/", admincontrollers.CouponCreate(deps.Coupons, logg))
					r.Delete("/{couponId}", admincontrollers.CouponDelete(deps.Coupons, logg))
				})
				r.Route("/discounts", func(r chi.Router) {
					r.Get("/", admincontrollers.DiscountList(deps.Discounts, logg))
					r.Post("/", admincontrollers.DiscountCreate(deps.Discounts, logg))
				})
			})
		})
	})

	return r
}
