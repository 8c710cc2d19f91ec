package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/paystore/internal/cart"
	"github.com/utafrali/paystore/internal/catalog"
	"github.com/utafrali/paystore/internal/checkout"
	widgetmock "github.com/utafrali/paystore/internal/checkout/widget/mock"
	"github.com/utafrali/paystore/internal/config"
	"github.com/utafrali/paystore/internal/event"
	handler "github.com/utafrali/paystore/internal/handler/http"
	ordersredis "github.com/utafrali/paystore/internal/orders/redis"
	"github.com/utafrali/paystore/internal/payment"
	"github.com/utafrali/paystore/pkg/database"
	"github.com/utafrali/paystore/pkg/health"
	"github.com/utafrali/paystore/pkg/httpclient"
	pkgkafka "github.com/utafrali/paystore/pkg/kafka"
	"github.com/utafrali/paystore/pkg/middleware"
	"github.com/utafrali/paystore/pkg/tracing"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg             *config.Config
	logger          *slog.Logger
	rdb             *redis.Client
	producer        *pkgkafka.Producer
	httpServer      *http.Server
	tracingShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracingShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "storefront",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSampleRate,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	// Kafka is optional. Without it the event producer silently drops
	// storefront events.
	var producer *pkgkafka.Producer
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}
	events := event.NewProducer(producer, logger)

	// Outbound HTTP clients. Each downstream gets its own breaker so a
	// catalog outage cannot trip checkout, and vice versa.
	baseClient := httpclient.New(httpclient.DefaultConfig())
	paymentHTTP := httpclient.NewCircuitBreakerClient(
		baseClient, httpclient.DefaultCircuitBreakerConfig("payment"), logger)
	catalogHTTP := httpclient.NewCircuitBreakerClient(
		baseClient, httpclient.DefaultCircuitBreakerConfig("catalog"), logger)

	paymentClient := payment.NewClient(paymentHTTP, cfg.PaymentServiceURL, logger)
	catalogClient := catalog.NewClient(catalogHTTP, cfg.CatalogServiceURL, cfg.Currency, logger)

	// Session state.
	orderRepo := ordersredis.NewOrderRepository(rdb, cfg.OrdersTTL)
	carts := cart.NewManager(cfg.Currency, orderRepo, logger)

	flowCfg := checkout.Config{
		Currency:      cfg.Currency,
		PublicBaseURL: cfg.PublicBaseURL,
		MaxAttempts:   cfg.VerifyMaxAttempts,
		PollInterval:  cfg.VerifyInterval,
	}

	// The inline widget has no server-side implementation outside the
	// browser, so inline-capable providers resolve through the mock.
	widget := widgetmock.NewWidget(checkout.OutcomeConfirmed)

	// Health checks. Redis holds session order history and is critical;
	// kafka only carries fire-and-forget events.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if producer != nil {
		healthHandler.RegisterNonCritical("kafka", producer.Ping)
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins

	router := handler.NewRouter(handler.RouterConfig{
		Cart:     handler.NewCartHandler(carts, catalogClient, logger),
		Catalog:  handler.NewCatalogHandler(catalogClient, logger),
		Checkout: handler.NewCheckoutHandler(carts, paymentClient, widget, events, flowCfg, logger),
		Orders:   handler.NewOrdersHandler(orderRepo, logger),
		Health:   healthHandler,
		CORS:     corsCfg,
		Logger:   logger,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		rdb:             rdb,
		producer:        producer,
		httpServer:      httpServer,
		tracingShutdown: tracingShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	if err := a.tracingShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
