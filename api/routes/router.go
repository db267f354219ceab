package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/grandmarche/backend/api/controllers"
	"github.com/grandmarche/backend/api/middleware"
	"github.com/grandmarche/backend/internal/audit"
	"github.com/grandmarche/backend/internal/auth"
	"github.com/grandmarche/backend/internal/coupons"
	"github.com/grandmarche/backend/internal/delivery"
	"github.com/grandmarche/backend/internal/disputes"
	"github.com/grandmarche/backend/internal/drivers"
	"github.com/grandmarche/backend/internal/notifications"
	"github.com/grandmarche/backend/internal/orders"
	"github.com/grandmarche/backend/internal/products"
	"github.com/grandmarche/backend/internal/settlement"
	"github.com/grandmarche/backend/pkg/config"
	"github.com/grandmarche/backend/pkg/db"
	"github.com/grandmarche/backend/pkg/enums"
	"github.com/grandmarche/backend/pkg/logger"
	"github.com/grandmarche/backend/pkg/redis"
)

// Services bundles every domain service the router exposes.
type Services struct {
	Auth          auth.Service
	Orders        orders.Service
	Disputes      disputes.Service
	Coupons       coupons.Service
	Settlement    settlement.Service
	Products      products.Service
	Drivers       drivers.Service
	Delivery      delivery.Service
	Notifications notifications.Service
	Audit         audit.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	registry *prometheus.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/register", controllers.AuthRegister(svcs.Auth, logg))
	})

	// Public surface: anonymous checkout and short-code tracking.
	r.Route("/api/public", func(r chi.Router) {
		r.Post("/checkout", controllers.Checkout(svcs.Orders, svcs.Audit, logg))
		r.Get("/products", controllers.ListProducts(svcs.Products, logg, true))
		r.Get("/products/{productId}", controllers.ProductDetail(svcs.Products, logg))
		r.Post("/coupons/validate", controllers.ValidateCoupon(svcs.Coupons, logg))
		r.Post("/disputes", controllers.OpenDispute(svcs.Disputes, logg))
		r.Route("/track/{shortCode}", func(r chi.Router) {
			r.Get("/", controllers.TrackOrder(svcs.Orders, logg))
			r.Get("/notifications", controllers.ListGuestNotifications(svcs.Notifications, logg))
			r.Post("/review", controllers.SubmitReview(svcs.Orders, logg))
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})

		r.Route("/v1/partner", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRolePartner, logg))
			r.Get("/orders", controllers.ListAssignedOrders(svcs.Orders, logg))
			r.Get("/orders/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
			r.Post("/orders/{orderId}/transition", controllers.TransitionOrder(svcs.Orders, svcs.Audit, logg))
			r.Post("/orders/{shortCode}/collection-code", controllers.ValidateCollectionCode(svcs.Orders, svcs.Audit, logg))
			r.Post("/orders/{shortCode}/redeem-refund", controllers.RedeemRefund(svcs.Coupons, logg))
			r.Route("/drivers", func(r chi.Router) {
				r.Post("/", controllers.RegisterDriver(svcs.Drivers, logg))
				r.Get("/", controllers.ListPartnerDrivers(svcs.Drivers, logg))
			})
		})

		r.Route("/v1/operator", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleOperator, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListOrders(svcs.Orders, logg))
				r.Get("/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
				r.Post("/{orderId}/transition", controllers.TransitionOrder(svcs.Orders, svcs.Audit, logg))
				r.Post("/{orderId}/cancel", controllers.CancelOrder(svcs.Orders, svcs.Audit, logg))
			})

			r.Route("/disputes", func(r chi.Router) {
				r.Get("/", controllers.ListDisputes(svcs.Disputes, logg))
				r.Get("/{disputeId}", controllers.DisputeDetail(svcs.Disputes, logg))
				r.Post("/{disputeId}/resolve", controllers.ResolveDispute(svcs.Disputes, svcs.Audit, logg))
			})

			r.Route("/promos", func(r chi.Router) {
				r.Post("/", controllers.CreatePromo(svcs.Coupons, logg))
				r.Get("/", controllers.ListPromos(svcs.Coupons, logg))
				r.Post("/{promoId}/active", controllers.SetPromoActive(svcs.Coupons, logg))
			})
			r.Get("/vouchers", controllers.ListVouchers(svcs.Coupons, logg))

			r.Route("/finance/records", func(r chi.Router) {
				r.Get("/", controllers.ListFinancialRecords(svcs.Settlement, logg))
				r.Post("/{recordId}/toggle", controllers.ToggleFinancialRecord(svcs.Settlement, svcs.Audit, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ListProducts(svcs.Products, logg, false))
				r.Post("/", controllers.CreateProduct(svcs.Products, logg))
				r.Patch("/{productId}", controllers.UpdateProduct(svcs.Products, logg))
				r.Post("/{productId}/restock", controllers.RestockProduct(svcs.Products, logg))
			})

			r.Route("/drivers", func(r chi.Router) {
				r.Get("/", controllers.ListDrivers(svcs.Drivers, logg))
				r.Post("/{driverId}/approve", controllers.ApproveDriver(svcs.Drivers, logg))
				r.Post("/{driverId}/suspend", controllers.SuspendDriver(svcs.Drivers, logg))
				r.Post("/{driverId}/reinstate", controllers.ReinstateDriver(svcs.Drivers, logg))
			})

			r.Route("/zones", func(r chi.Router) {
				r.Post("/", controllers.CreateZone(svcs.Delivery, logg))
				r.Get("/", controllers.ListZones(svcs.Delivery, logg))
				r.Post("/{zoneId}/active", controllers.SetZoneActive(svcs.Delivery, logg))
			})

			r.Get("/audit", controllers.RecentAuditLogs(svcs.Audit, logg))
		})
	})

	return r
}
