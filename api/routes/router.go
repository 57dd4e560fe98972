package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/frostcrinkle/bakery-backend/api/controllers"
	"github.com/frostcrinkle/bakery-backend/api/middleware"
	"github.com/frostcrinkle/bakery-backend/internal/auth"
	"github.com/frostcrinkle/bakery-backend/internal/cart"
	checkoutsvc "github.com/frostcrinkle/bakery-backend/internal/checkout"
	"github.com/frostcrinkle/bakery-backend/internal/notifications"
	"github.com/frostcrinkle/bakery-backend/internal/orders"
	"github.com/frostcrinkle/bakery-backend/internal/payments"
	"github.com/frostcrinkle/bakery-backend/pkg/auth/session"
	"github.com/frostcrinkle/bakery-backend/pkg/config"
	"github.com/frostcrinkle/bakery-backend/pkg/db"
	"github.com/frostcrinkle/bakery-backend/pkg/enums"
	"github.com/frostcrinkle/bakery-backend/pkg/logger"
	"github.com/frostcrinkle/bakery-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	Sessions       session.AccessSessionChecker
	AuthService    auth.Service
	CartService    cart.Service
	Payments       payments.Service
	Checkout       checkoutsvc.Service
	Orders         orders.Service
	Notifications  notifications.Service
	MetricsHandler http.Handler
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	// A nil *redis.Client must stay nil once boxed into the middleware
	// interfaces, otherwise the nil guards there never fire.
	var idemStore redis.IdempotencyStore
	var rlStore middleware.RateLimiterStore
	var redisPing db.Pinger
	if d.Redis != nil {
		idemStore = d.Redis
		rlStore = d.Redis
		redisPing = d.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.CORS(),
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, redisPing))
	})

	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, rlStore, logg)).Post("/register", controllers.AuthRegister(d.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, rlStore, logg)).Post("/login", controllers.AuthLogin(d.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(d.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Get("/cart", controllers.CartFetch(d.CartService, logg))

		r.Route("/payments", func(r chi.Router) {
			r.Post("/intent", controllers.PaymentIntentCreate(d.Payments, logg))
			r.Post("/verify", controllers.PaymentVerify(d.Payments, logg))
		})

		r.Post("/checkout", controllers.Checkout(d.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(d.Orders, logg))
			r.Get("/history", controllers.OrderHistory(d.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(d.Orders, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(d.Notifications, logg))
			r.Get("/recent", controllers.RecentNotifications(d.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(d.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(d.Notifications, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Use(middleware.RequireRole(string(enums.RoleAdmin), logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrdersList(d.Orders, logg))
			r.Post("/{orderId}/status", controllers.AdminOrderStatus(d.Orders, logg))
		})
	})

	return r
}
