package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"ticket-storefront/config"
	"ticket-storefront/handlers"
	"ticket-storefront/internal/apiclient"
	"ticket-storefront/internal/paywidget"
	"ticket-storefront/internal/session"
	"ticket-storefront/monitoring"
	"ticket-storefront/security"
	"ticket-storefront/services"
	"ticket-storefront/utils"
)

const (
	antiBotLimit          = 300
	sessionMetricInterval = 30 * time.Second
)

func Start() error {
	cfg := config.LoadConfig()
	logger := utils.NewLogger(cfg.LogLevel, cfg.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis is optional; without it sessions and limits stay in process.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		rc, err := utils.NewRedisClient(ctx, cfg.RedisURL, logger)
		if err != nil {
			return err
		}
		defer rc.Close()
		redisClient = rc
	}

	var store session.Store
	if redisClient != nil {
		store = session.NewRedisStore(redisClient, cfg.SessionTTL)
	} else {
		logger.Warn("REDIS_URL not set, checkout sessions are kept in memory")
		store = session.NewMemoryStore(cfg.SessionTTL)
	}

	var monitor *monitoring.Monitor
	if cfg.EnableMetrics {
		monitor = monitoring.NewMonitor(redisClient, logger)
		go monitor.Run(ctx, sessionMetricInterval)
	}

	client := apiclient.New(apiclient.Config{
		BaseURL: cfg.APIBaseURL,
		Token:   cfg.APIToken,
		Timeout: cfg.APITimeout,
		Breaker: utils.BreakerSettings{
			Name:        "ticket-api",
			MaxRequests: uint32(cfg.BreakerMaxRequests),
			Timeout:     cfg.BreakerTimeout,
		},
	}, logger, monitor)

	messenger := paywidget.NewPubNubMessenger(paywidget.PubNubConfig{
		PublishKey:   cfg.PubNubPublishKey,
		SubscribeKey: cfg.PubNubSubscribeKey,
		SecretKey:    cfg.PubNubSecretKey,
		UUID:         "ticket-storefront",
	}, logger)
	widget := paywidget.NewChannelWidget(messenger, cfg.PaymentWidgetTimeout, logger)

	limiter := security.NewRateLimiter(redisClient, cfg.DiscountAttemptsPerMinute, time.Minute)
	validate := services.NewValidator()

	storefront := services.NewStorefrontService(client, store, logger)
	discounts := services.NewDiscountService(client, store, limiter, monitor, logger)
	checkout := services.NewCheckoutService(client, widget, widget, store, validate, cfg.CallbackPath, monitor, logger)
	callback := services.NewPaymentCallbackService(client, store, widget, services.TimerScheduler{}, services.CallbackConfig{
		ConfirmationPath: cfg.ConfirmationPath,
		CheckoutPath:     cfg.CheckoutPath,
		RedirectDelay:    cfg.RedirectDelay,
	}, monitor, logger)

	sessions := handlers.Sessions{Store: store, TTL: cfg.SessionTTL, Secure: !cfg.IsDevelopment()}

	e := echo.New()
	handlers.Router{
		Storefront: handlers.NewStorefrontHandler(storefront, sessions, logger),
		Checkout:   handlers.NewCheckoutHandler(checkout, discounts, sessions, cfg.EventsPath, logger),
		Payment:    handlers.NewPaymentHandler(callback, sessions),
		Tickets:    handlers.NewTicketHandler(client, validate, logger),
		Admin:      handlers.NewAdminHandler(client, logger),
		Health:     handlers.NewHealthHandler(redisClient, client.BreakerState),
	}.Register(e, limiter.AntiBotMiddleware(antiBotLimit))

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(e)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(handler, "ticket-storefront"),
		ReadHeaderTimeout: 10 * time.Second,
		// checkout submissions block until the payment widget reports back
		WriteTimeout: cfg.PaymentWidgetTimeout + cfg.APITimeout*3,
	}

	if cfg.EnableMetrics {
		go serveMetrics(cfg.MetricsPort, logger)
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("storefront listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("http server stopped")
			cancel()
		}
	}()

	waitForShutdown(ctx, logger)
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), 15*time.Second)
	defer done()
	return srv.Shutdown(shutdownCtx)
}

func serveMetrics(port string, logger *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	logger.WithField("port", port).Info("metrics listening")
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		logger.WithError(err).Error("metrics server stopped")
	}
}

// waitForShutdown blocks until a signal arrives or ctx is cancelled.
func waitForShutdown(ctx context.Context, logger *logrus.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logger.WithField("signal", sig.String()).Info("shutdown signal received, cleaning up")
	case <-ctx.Done():
	}
}
