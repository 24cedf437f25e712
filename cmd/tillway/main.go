package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/tillway/tillway/internal/app"
	"github.com/tillway/tillway/internal/auth"
	"github.com/tillway/tillway/internal/backend"
	"github.com/tillway/tillway/internal/customers"
	"github.com/tillway/tillway/internal/dashboard"
	"github.com/tillway/tillway/internal/guard"
	"github.com/tillway/tillway/internal/observability"
	"github.com/tillway/tillway/internal/platform/tokenstore"
	"github.com/tillway/tillway/internal/products"
	"github.com/tillway/tillway/internal/ready"
	"github.com/tillway/tillway/internal/session"
	"github.com/tillway/tillway/internal/shared"
	"github.com/tillway/tillway/internal/transactions"
	"github.com/tillway/tillway/internal/users"
	"github.com/tillway/tillway/internal/view"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	revocations, cleanup, err := newRevocationStore(ctx, cfg)
	if err != nil {
		logger.Error("revocation store", slog.Any("error", err))
		os.Exit(1)
	}
	defer cleanup()

	validator := session.NewValidator(logger, cfg.TokenLeeway)
	store := session.NewStore(logger, validator, revocations)
	if err := store.Start(ctx); err != nil {
		logger.Error("session watcher", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	gate := ready.NewGate()
	metrics := observability.NewMetrics()
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret, cfg.IsProduction())
	cookie := session.CookieConfig{Name: cfg.TokenCookieName, Secure: cfg.IsProduction()}

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	accessGuard := guard.New(logger, gate, store, metrics, guard.Options{
		LoginPath:   cfg.LoginPath,
		LandingPath: cfg.LandingPath,
		Debounce:    cfg.GuardDebounce,
	})

	client := backend.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout)

	authHandler := auth.NewHandler(logger, client, store, accessGuard, templates, csrfManager, cookie, cfg.LandingPath)
	dashboardHandler := dashboard.NewHandler(logger, client, templates, csrfManager, accessGuard)
	productsHandler := products.NewHandler(logger, client, templates, csrfManager, accessGuard)
	customersHandler := customers.NewHandler(logger, client, templates, csrfManager, accessGuard)
	transactionsHandler := transactions.NewHandler(logger, client, templates, csrfManager, accessGuard)
	usersHandler := users.NewHandler(logger, client, templates, csrfManager, accessGuard)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		Templates:           templates,
		Store:               store,
		Cookie:              cookie,
		CSRF:                csrfManager,
		Guard:               accessGuard,
		Gate:                gate,
		AuthHandler:         authHandler,
		DashboardHandler:    dashboardHandler,
		ProductsHandler:     productsHandler,
		CustomersHandler:    customersHandler,
		TransactionsHandler: transactionsHandler,
		UsersHandler:        usersHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	// Warmup is complete: config loaded, revocation store reachable and the
	// signal watcher subscribed. Access checks are trustworthy from here on.
	gate.Open()
	logger.Info("console ready")

	if err := group.Wait(); err != nil {
		logger.Error("shutdown", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("shut down cleanly")
}

func newRevocationStore(ctx context.Context, cfg *app.Config) (tokenstore.Store, func(), error) {
	switch cfg.StoreDriver {
	case "file":
		store, err := tokenstore.NewFileStore(cfg.TokenFileDir, cfg.WatchPollInterval)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		store, err := tokenstore.NewRedisStore(ctx, client)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		cleanup := func() {
			_ = store.Close()
			_ = client.Close()
		}
		return store, cleanup, nil
	}
}
