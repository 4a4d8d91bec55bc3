package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yepso-store/api/internal/handlers"
	"github.com/yepso-store/api/internal/notifications"
	"github.com/yepso-store/api/internal/payments"
	"github.com/yepso-store/api/internal/platform/auth"
	"github.com/yepso-store/api/internal/platform/config"
	"github.com/yepso-store/api/internal/platform/idempotency"
	"github.com/yepso-store/api/internal/platform/identity"
	"github.com/yepso-store/api/internal/platform/observability"
	"github.com/yepso-store/api/internal/repositories/memory"
	"github.com/yepso-store/api/internal/repositories/postgres"
	"github.com/yepso-store/api/internal/services"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	db, err := postgres.Connect(ctx, postgres.Options{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("postgres close error", zap.Error(err))
		}
	}()

	if err := postgres.RunMigrations(db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	productRepo := postgres.NewProductRepository(db)
	cartRepo := postgres.NewCartRepository(db)
	orderRepo := postgres.NewOrderRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)

	catalogMirror := memory.NewCatalog()
	cartFallback := memory.NewCartRepository()

	sessionVerifier := identity.NewStaticSessionVerifier(cfg.Session.Tokens, cfg.Session.AdminAccounts)
	resolver, err := identity.NewResolver(identity.ResolverDeps{
		Sessions:   sessionVerifier,
		CookieName: cfg.Session.CartCookieName,
		CookieTTL:  cfg.Session.CartCookieTTL,
	})
	if err != nil {
		logger.Fatal("failed to initialise identity resolver", zap.Error(err))
	}

	idempotencyStore := idempotency.NewMemoryStore()
	idempotencyMiddleware := idempotency.Middleware(
		idempotencyStore,
		idempotency.WithHeader(cfg.Idempotency.Header),
		idempotency.WithTTL(cfg.Idempotency.TTL),
		idempotency.WithLogger(observability.NewPrintfAdapter(logger.Named("idempotency"))),
	)

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	var cleanupWG sync.WaitGroup
	var cleanupTicker *time.Ticker
	if cfg.Idempotency.CleanupInterval > 0 {
		cleanupTicker = time.NewTicker(cfg.Idempotency.CleanupInterval)
		cleanupWG.Add(1)
		go func() {
			defer cleanupWG.Done()
			cleanupLogger := logger.Named("idempotency")
			for {
				select {
				case <-cleanupTicker.C:
					removed, err := idempotencyStore.CleanupExpired(cleanupCtx, time.Now().UTC(), cfg.Idempotency.CleanupBatchSize)
					if err != nil {
						cleanupLogger.Error("idempotency cleanup error", zap.Error(err))
						continue
					}
					if removed > 0 {
						cleanupLogger.Info("idempotency cleanup removed records", zap.Int("count", removed))
					}
				case <-cleanupCtx.Done():
					return
				}
			}
		}()
	}

	razorpayProvider, err := payments.NewRazorpayProvider(payments.RazorpayProviderDeps{
		KeyID:       cfg.Razorpay.KeyID,
		KeySecret:   cfg.Razorpay.KeySecret,
		CallTimeout: cfg.Razorpay.CallTimeout,
		Logger:      observability.EventLogger(logger.Named("razorpay")),
	})
	if err != nil {
		logger.Fatal("failed to initialise razorpay provider", zap.Error(err))
	}
	paymentManager, err := payments.NewManager(map[string]payments.Provider{
		"razorpay": razorpayProvider,
	})
	if err != nil {
		logger.Fatal("failed to initialise payment manager", zap.Error(err))
	}

	var notifier notifications.Notifier
	if cfg.Email.ResendAPIKey != "" {
		resendNotifier, err := notifications.NewResendNotifier(notifications.ResendNotifierDeps{
			APIKey:      cfg.Email.ResendAPIKey,
			FromAddress: cfg.Email.FromAddress,
			SendTimeout: cfg.Email.SendTimeout,
		})
		if err != nil {
			logger.Fatal("failed to initialise resend notifier", zap.Error(err))
		}
		notifier = resendNotifier
	} else {
		logger.Warn("no email provider configured; order confirmations will be logged only")
		notifier = &notifications.LogNotifier{Logger: observability.EventLogger(logger.Named("notifications"))}
	}

	webhookVerifier, err := auth.NewWebhookVerifier(cfg.Razorpay.WebhookSecret)
	if err != nil {
		logger.Fatal("failed to initialise webhook verifier", zap.Error(err))
	}

	productService, err := services.NewProductService(services.ProductServiceDeps{
		Repository: productRepo,
		Mirror:     catalogMirror,
		Logger:     observability.EventLogger(logger.Named("products")),
	})
	if err != nil {
		logger.Fatal("failed to initialise product service", zap.Error(err))
	}

	cartService, err := services.NewCartService(services.CartServiceDeps{
		Repository: cartRepo,
		Fallback:   cartFallback,
		Products:   productService,
		Logger:     observability.EventLogger(logger.Named("cart")),
	})
	if err != nil {
		logger.Fatal("failed to initialise cart service", zap.Error(err))
	}

	checkoutService, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Carts:    cartService,
		Orders:   orderRepo,
		Payments: paymentRepo,
		Provider: paymentManager,
		Notifier: notifier,
		Currency: cfg.Checkout.Currency,
		Logger:   observability.EventLogger(logger.Named("checkout")),
	})
	if err != nil {
		logger.Fatal("failed to initialise checkout service", zap.Error(err))
	}

	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Repository: orderRepo,
		Logger:     observability.EventLogger(logger.Named("orders")),
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}

	webhookService, err := services.NewWebhookService(services.WebhookServiceDeps{
		Verifier: webhookVerifier,
		Orders:   orderRepo,
		Payments: paymentRepo,
		Carts:    cartService,
		Notifier: notifier,
		Logger:   observability.EventLogger(logger.Named("webhooks")),
	})
	if err != nil {
		logger.Fatal("failed to initialise webhook service", zap.Error(err))
	}

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
		resolver.Middleware(),
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithReadyCheck("database", func(ctx context.Context) error {
			return db.PingContext(ctx)
		}),
	)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithProductRoutes(handlers.NewProductHandlers(productService).Routes),
		handlers.WithCartRoutes(handlers.NewCartHandlers(cartService).Routes),
		handlers.WithCheckoutRoutes(handlers.NewCheckoutHandlers(checkoutService).Routes),
		handlers.WithCheckoutMiddlewares(idempotencyMiddleware),
		handlers.WithOrderRoutes(handlers.NewOrderHandlers(orderService).Routes),
		handlers.WithAdminRoutes(handlers.NewAdminProductHandlers(productService).Routes),
		handlers.WithWebhookRoutes(handlers.NewWebhookHandlers(webhookService).Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("yepso storefront api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	if cleanupTicker != nil {
		cleanupTicker.Stop()
	}
	cleanupCancel()
	cleanupWG.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
