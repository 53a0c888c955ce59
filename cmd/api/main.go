package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"myshop-backend/api/routes"
	"myshop-backend/internal/alerts"
	"myshop-backend/internal/cart"
	"myshop-backend/internal/catalog"
	"myshop-backend/internal/checkout"
	"myshop-backend/internal/coupons"
	"myshop-backend/internal/deals"
	"myshop-backend/internal/delivery"
	"myshop-backend/internal/inventory"
	"myshop-backend/internal/notifications"
	"myshop-backend/internal/orders"
	"myshop-backend/internal/reviews"
	"myshop-backend/internal/users"
	"myshop-backend/pkg/config"
	"myshop-backend/pkg/db"
	"myshop-backend/pkg/logger"
	"myshop-backend/pkg/mailer"
	"myshop-backend/pkg/migrate"
	"myshop-backend/pkg/razorpay"
	"myshop-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		fatal(logg, "failed to load config", err)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		fatal(logg, "failed to bootstrap database", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		fatal(logg, "failed to run dev migrations", err)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		fatal(logg, "failed to bootstrap redis", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gateway, err := razorpay.NewClient(cfg.Razorpay, logg)
	if err != nil {
		fatal(logg, "failed to create razorpay client", err)
	}

	smtpMailer, err := mailer.NewSMTPMailer(cfg.SMTP, logg)
	if err != nil {
		fatal(logg, "failed to create smtp mailer", err)
	}
	dispatcher, err := notifications.NewDispatcher(smtpMailer, logg)
	if err != nil {
		fatal(logg, "failed to create notification dispatcher", err)
	}

	pincodes, err := delivery.NewPincodeClient(cfg.Delivery)
	if err != nil {
		fatal(logg, "failed to create pincode client", err)
	}
	estimator, err := delivery.NewEstimator(pincodes, logg)
	if err != nil {
		fatal(logg, "failed to create delivery estimator", err)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	couponsRepo := coupons.NewRepository(dbClient.DB())
	dealsRepo := deals.NewRepository(dbClient.DB())
	alertsRepo := alerts.NewRepository(dbClient.DB())
	reviewsRepo := reviews.NewRepository(dbClient.DB())

	usersSvc, err := users.NewService(users.ServiceParams{
		Repo:           usersRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		fatal(logg, "failed to create user service", err)
	}
	addressSvc, err := users.NewAddressService(usersRepo, dbClient)
	if err != nil {
		fatal(logg, "failed to create address service", err)
	}

	alertsSvc, err := alerts.NewService(alertsRepo, catalogRepo, dispatcher, logg)
	if err != nil {
		fatal(logg, "failed to create alert service", err)
	}
	reviewsSvc, err := reviews.NewService(reviewsRepo)
	if err != nil {
		fatal(logg, "failed to create review service", err)
	}
	couponsSvc, err := coupons.NewService(couponsRepo)
	if err != nil {
		fatal(logg, "failed to create coupon service", err)
	}
	dealsSvc, err := deals.NewService(dealsRepo, dbClient)
	if err != nil {
		fatal(logg, "failed to create deal service", err)
	}
	catalogSvc, err := catalog.NewService(catalogRepo, dealsSvc, reviewsSvc)
	if err != nil {
		fatal(logg, "failed to create catalog service", err)
	}
	catalogAdmin, err := catalog.NewAdminService(catalogRepo, dbClient, alertsSvc)
	if err != nil {
		fatal(logg, "failed to create catalog admin service", err)
	}

	cartSvc, err := cart.NewService(cart.ServiceParams{
		Repo:     cartRepo,
		Products: catalogRepo,
		Deals:    dealsSvc,
		Coupons:  couponsSvc,
	})
	if err != nil {
		fatal(logg, "failed to create cart service", err)
	}

	stock := inventory.NewAdjuster()
	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Carts:     cartSvc,
		Addresses: addressSvc,
		Orders:    ordersRepo,
		Stock:     stock,
		Gateway:   gateway,
		Estimator: estimator,
		Tx:        dbClient,
	})
	if err != nil {
		fatal(logg, "failed to create checkout service", err)
	}

	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Repo:      ordersRepo,
		Stock:     stock,
		Gateway:   gateway,
		Carts:     cartSvc,
		Users:     usersRepo,
		Products:  catalogRepo,
		Alerts:    alertsSvc,
		Mail:      dispatcher,
		Estimator: estimator,
		Tx:        dbClient,
		Logger:    logg,
		Now:       time.Now,
	})
	if err != nil {
		fatal(logg, "failed to create order service", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, routes.Services{
			Users:        usersSvc,
			Addresses:    addressSvc,
			Catalog:      catalogSvc,
			CatalogAdmin: catalogAdmin,
			Cart:         cartSvc,
			Checkout:     checkoutSvc,
			Orders:       ordersSvc,
			Coupons:      couponsSvc,
			Deals:        dealsSvc,
			Alerts:       alertsSvc,
			Reviews:      reviewsSvc,
			Estimator:    estimator,
			Gateway:      gateway,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func fatal(logg *logger.Logger, msg string, err error) {
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
