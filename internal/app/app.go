package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/hilltop-eats/hilltop/internal/domain/cart"
	"github.com/hilltop-eats/hilltop/internal/domain/checkout"
	"github.com/hilltop-eats/hilltop/internal/domain/user"
	"github.com/hilltop-eats/hilltop/internal/handler"
	"github.com/hilltop-eats/hilltop/internal/payment/stripe"
	"github.com/hilltop-eats/hilltop/internal/referral"
	"github.com/hilltop-eats/hilltop/internal/storage/postgres"
	"github.com/hilltop-eats/hilltop/pkg/health"
	"github.com/hilltop-eats/hilltop/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health probes.
	probes := health.NewTracker()
	probes.Readiness("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	probes.Liveness("goroutines", time.Second, health.GoroutineCeiling(10000))
	probes.Watch(ctx, 10*time.Second)
	probes.SetAccepting(true)

	// Repositories.
	userRepo := postgres.NewUserRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	cartRepo := postgres.NewCartRepository(pool)
	favouriteRepo := postgres.NewFavouriteRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	checkoutStore := postgres.NewCheckoutStore(pool)

	// Referral code negative cache, warmed from the database.
	referralFilter := referral.NewFilter()
	if err := referralFilter.Load(ctx, userRepo); err != nil {
		return errors.Wrap(err, "load referral filter")
	}

	// Domain services.
	userService := user.NewService(userRepo, referralFilter, userRepo)
	cartService := cart.NewService(cartRepo, productRepo)
	processor := stripe.NewClient(stripe.Config{
		SecretKey: cfg.Stripe.SecretKey,
		BaseURL:   cfg.Stripe.BaseURL,
		Timeout:   cfg.Stripe.Timeout,
	})
	checkoutService := checkout.NewService(cartService, favouriteRepo, processor, checkoutStore, cfg.Stripe.Currency)

	// HTTP handlers.
	h := handler.NewHandler(
		handler.Config{
			ImageBaseURL: cfg.ImageBaseURL,
			Tokens: handler.TokenConfig{
				Secret: []byte(cfg.Session.Secret),
				TTL:    cfg.Session.TTL,
			},
		},
		userService,
		userRepo,
		cartService,
		checkoutService,
		favouriteRepo,
		orderRepo,
		productRepo,
		categoryRepo,
	)

	// Mux: health endpoints + API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", probes.HandleLive)
	mux.HandleFunc("/readyz", probes.HandleReady)
	mux.Handle("/api/", http.StripPrefix("/api", h.Routes()))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("hilltop-api", m),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		probes.SetAccepting(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		probes.Close()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
