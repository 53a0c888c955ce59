package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"myshop-backend/api/controllers"
	webhookcontrollers "myshop-backend/api/controllers/webhooks"
	"myshop-backend/api/middleware"
	"myshop-backend/internal/alerts"
	"myshop-backend/internal/cart"
	"myshop-backend/internal/catalog"
	checkoutsvc "myshop-backend/internal/checkout"
	"myshop-backend/internal/coupons"
	"myshop-backend/internal/deals"
	"myshop-backend/internal/delivery"
	"myshop-backend/internal/orders"
	"myshop-backend/internal/reviews"
	"myshop-backend/internal/users"
	"myshop-backend/pkg/config"
	"myshop-backend/pkg/db"
	"myshop-backend/pkg/enums"
	"myshop-backend/pkg/logger"
	"myshop-backend/pkg/razorpay"
	"myshop-backend/pkg/redis"
)

// Services bundles everything the HTTP surface depends on.
type Services struct {
	Users        users.Service
	Addresses    users.AddressService
	Catalog      catalog.Service
	CatalogAdmin catalog.AdminService
	Cart         cart.Service
	Checkout     checkoutsvc.Service
	Orders       orders.Service
	Coupons      coupons.Service
	Deals        deals.Service
	Alerts       alerts.Service
	Reviews      reviews.Service
	Estimator    *delivery.Estimator
	Gateway      *razorpay.Client
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/razorpay", webhookcontrollers.Razorpay(svcs.Gateway, svcs.Orders, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Users, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Users, logg))
	})

	// Public storefront reads.
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ProductList(svcs.Catalog, logg))
		r.Get("/products/{slug}", controllers.ProductDetail(svcs.Catalog, logg))
		r.Get("/products/{productID}/reviews", controllers.ReviewSummary(svcs.Reviews, logg))
		r.Get("/categories", controllers.CategoryList(svcs.Catalog, logg))
		r.Get("/homepage", controllers.Homepage(svcs.Deals, svcs.Coupons, logg))
		r.Get("/delivery/estimate", controllers.DeliveryEstimate(svcs.Estimator, logg))

		// Buyer surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(redisClient, logg))

			r.Get("/auth/me", controllers.AuthMe(svcs.Users, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(svcs.Cart, logg))
				r.Post("/items", controllers.CartAddItem(svcs.Cart, logg))
				r.Put("/items/{productID}", controllers.CartSetItemQty(svcs.Cart, logg))
				r.Delete("/items/{productID}", controllers.CartRemoveItem(svcs.Cart, logg))
				r.Post("/coupon", controllers.CartApplyCoupon(svcs.Cart, logg))
				r.Delete("/coupon", controllers.CartRemoveCoupon(svcs.Cart, logg))
			})

			r.Post("/checkout", controllers.Checkout(svcs.Checkout, logg))
			r.Post("/payments/confirm", controllers.PaymentConfirm(svcs.Orders, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(svcs.Orders, logg))
				r.Get("/{orderID}", controllers.OrderDetail(svcs.Orders, logg))
				r.Post("/{orderID}/cancel", controllers.OrderRequestCancellation(svcs.Orders, logg))
				r.Post("/{orderID}/return", controllers.OrderRequestReturn(svcs.Orders, logg))
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressList(svcs.Addresses, logg))
				r.Post("/", controllers.AddressCreate(svcs.Addresses, logg))
				r.Put("/{addressID}", controllers.AddressUpdate(svcs.Addresses, logg))
				r.Delete("/{addressID}", controllers.AddressDelete(svcs.Addresses, logg))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistList(svcs.Alerts, logg))
				r.Post("/{productID}/toggle", controllers.WishlistToggle(svcs.Alerts, logg))
			})
			r.Post("/alerts/restock", controllers.RestockSubscribe(svcs.Alerts, logg))
			r.Post("/alerts/price-drop", controllers.PriceDropSubscribe(svcs.Alerts, logg))

			r.Post("/products/{productID}/reviews", controllers.ReviewSubmit(svcs.Reviews, logg))
		})
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(svcs.Orders, logg))
			r.Patch("/{orderID}/status", controllers.AdminOrderUpdateStatus(svcs.Orders, logg))
		})
		r.Route("/cancellations", func(r chi.Router) {
			r.Get("/", controllers.AdminCancellationList(svcs.Orders, logg))
			r.Post("/{requestID}/decision", controllers.AdminCancellationDecide(svcs.Orders, logg))
			r.Post("/bulk-approve", controllers.AdminBulkApproveCancellations(svcs.Orders, logg))
		})
		r.Route("/returns", func(r chi.Router) {
			r.Get("/", controllers.AdminReturnList(svcs.Orders, logg))
			r.Post("/{requestID}/decision", controllers.AdminReturnDecide(svcs.Orders, logg))
			r.Post("/{requestID}/refund-processed", controllers.AdminReturnMarkRefund(svcs.Orders, logg))
			r.Post("/bulk-refunds", controllers.AdminBulkMarkRefunds(svcs.Orders, logg))
		})
		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminProductCreate(svcs.CatalogAdmin, logg))
			r.Patch("/{productID}", controllers.AdminProductUpdate(svcs.CatalogAdmin, logg))
			r.Delete("/{productID}", controllers.AdminProductDeactivate(svcs.CatalogAdmin, logg))
		})
		r.Post("/categories", controllers.AdminCategoryCreate(svcs.CatalogAdmin, logg))
		r.Route("/coupons", func(r chi.Router) {
			r.Get("/", controllers.AdminCouponList(svcs.Coupons, logg))
			r.Post("/", controllers.AdminCouponCreate(svcs.Coupons, logg))
			r.Patch("/{couponID}", controllers.AdminCouponUpdate(svcs.Coupons, logg))
			r.Delete("/{couponID}", controllers.AdminCouponDelete(svcs.Coupons, logg))
		})
		r.Route("/deals", func(r chi.Router) {
			r.Post("/", controllers.AdminDealCreate(svcs.Deals, logg))
			r.Patch("/{dealID}", controllers.AdminDealUpdate(svcs.Deals, logg))
			r.Delete("/{dealID}", controllers.AdminDealDelete(svcs.Deals, logg))
		})
	})

	return r
}
