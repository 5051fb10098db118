package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	log "github.com/sirupsen/logrus"

	"foodorder/internal/config"
	"foodorder/internal/handlers"
	"foodorder/internal/mailer"
	"foodorder/internal/metrics"
	"foodorder/internal/middleware"
	"foodorder/internal/notifications"
	"foodorder/internal/repositories"
	"foodorder/internal/services"
	"foodorder/pkg/rabbitmq"
)

// appDeps are the collaborators newApp wires into the HTTP surface.
type appDeps struct {
	cfg         *config.Config
	store       repositories.Store
	mailer      mailer.Mailer
	notifier    services.StatusNotifier
	metrics     *metrics.Metrics
	authLimiter fiber.Handler
}

// newApp builds the services and handlers and returns the Fiber app serving them.
func newApp(d appDeps) *fiber.App {
	cfg := d.cfg

	issuer := services.NewTokenIssuer(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	locks := services.NewKeyedMutex()

	var recorder services.OrderRecorder
	if d.metrics != nil {
		recorder = d.metrics
	}

	authService := services.NewAuthService(d.store, issuer, d.mailer, services.AuthConfig{
		OTPTTL:        cfg.OTPTTL,
		StoreTimeout:  cfg.StoreTimeout,
		MailerTimeout: cfg.MailerTimeout,
	})
	cartService := services.NewCartService(d.store, locks, cfg.StoreTimeout)
	orderService := services.NewOrderService(d.store, locks, d.notifier, recorder, cfg.StoreTimeout)
	reviewService := services.NewReviewService(d.store, cfg.StoreTimeout)
	foodService := services.NewFoodService(d.store, cfg.StoreTimeout)
	addressService := services.NewAddressService(d.store, cfg.StoreTimeout)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		AppName:      "foodorder",
	})

	// --- Middleware ---
	app.Use(logger.New()) // Request logger
	if d.metrics != nil {
		app.Use(d.metrics.Middleware())
		app.Get("/metrics", d.metrics.Handler())
	}

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")
	authRequired := middleware.AuthRequired(issuer)

	handlers.NewAuthHandler(authService, d.authLimiter).RegisterRoutes(apiV1, authRequired)
	handlers.NewFoodHandler(foodService, reviewService).RegisterRoutes(apiV1, authRequired)
	handlers.NewCartHandler(cartService).RegisterRoutes(apiV1, authRequired)
	handlers.NewOrderHandler(orderService, reviewService).RegisterRoutes(apiV1, authRequired)
	handlers.NewAddressHandler(addressService).RegisterRoutes(apiV1, authRequired)

	return app
}

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)

	// --- Database ---
	db, err := repositories.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := repositories.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	store := repositories.NewGORMStore(db)

	m := metrics.New()

	// --- Notifications ---
	push := notifications.NewPushClient(notifications.PushConfig{
		Endpoint: cfg.PushEndpoint,
		AppID:    cfg.PushAppID,
		APIKey:   cfg.PushAPIKey,
	})
	deliver := func(event notifications.OrderStatusEvent) error {
		if cfg.PushAppID == "" {
			log.WithFields(log.Fields{
				"order_id":    event.OrderID,
				"customer_id": event.CustomerID,
				"status":      event.Status,
			}).Info("push disabled, order status event dropped")
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.NotifyTimeout)
		defer cancel()
		return push.Send(ctx, event)
	}

	// Order status events travel through RabbitMQ when it is reachable and
	// are pushed inline otherwise.
	var publisher notifications.Publisher = notifications.PublisherFunc(
		func(ctx context.Context, event notifications.OrderStatusEvent) error {
			return deliver(event)
		})
	mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.OrderStatusQueue})
	if err != nil {
		log.Warnf("RabbitMQ unavailable, pushing notifications inline: %v", err)
	} else {
		defer mqClient.Close()
		publisher = mqClient
		if err := mqClient.ConsumeOrderStatus(deliver); err != nil {
			log.Fatalf("Failed to start RabbitMQ consumer: %v", err)
		}
	}
	dispatcher := notifications.NewDispatcher(publisher, cfg.NotifyTimeout, m)

	// --- Mailer ---
	var otpMailer mailer.Mailer = mailer.LogMailer{}
	if cfg.SMTPHost != "" {
		otpMailer = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	} else {
		log.Warn("SMTP_HOST not set, OTP mails are written to the log")
	}

	limiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)
	stopCleanup := make(chan struct{})
	limiter.StartCleanup(10*time.Minute, stopCleanup)

	app := newApp(appDeps{
		cfg:         cfg,
		store:       store,
		mailer:      otpMailer,
		notifier:    dispatcher,
		metrics:     m,
		authLimiter: limiter.Handler(),
	})

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	close(stopCleanup)
	dispatcher.Wait()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Println("Server gracefully stopped")
}
