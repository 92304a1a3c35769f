// Package server initializes and runs the storefront server. It
// resolves the backing services, wires the application services and the
// HTTP surface, starts the inventory-event consumer, and handles
// graceful shutdown.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"storefront/internal/logging"
	"storefront/internal/server/config"
	"storefront/internal/server/httpapi"
	"storefront/internal/server/providers"
	"storefront/internal/server/queue"
	"storefront/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config    *config.Config
	logger    logging.Logger
	providers *providers.Providers

	authService    *services.AuthService
	catalogService *services.CatalogService
	readiness      *services.ReadinessService
	consumer       *queue.Consumer
}

func NewApp(ctx context.Context, cfg *config.Config) *App {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	p := providers.Resolve(ctx, cfg, logger)

	authService := services.NewAuthService(
		p.Store.Users(),
		p.Cache,
		p.Queue,
		logger,
		[]byte(cfg.SecretKey),
		cfg.TokenValidityDuration,
		cfg.BcryptCost,
		p.Modes.Cache == providers.ModeReal,
	)
	catalogService := services.NewCatalogService(
		p.Store.Products(),
		p.Cache,
		p.Queue,
		logger,
		cfg.CacheTTL,
	)

	return &App{
		config:         cfg,
		logger:         logger,
		providers:      p,
		authService:    authService,
		catalogService: catalogService,
		readiness:      services.NewReadinessService(p, cfg.ProbeTimeout),
		consumer:       queue.NewConsumer(p.Queue, catalogService, logger),
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	router := httpapi.NewRouter(app.authService, app.catalogService, app.readiness, app.logger)

	srv := &http.Server{
		Addr:    app.config.HTTPAddr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "http server error", "error", err)
		cancelFunc()
	}
}

func (app *App) startConsumer(ctx context.Context) {
	app.logger.Info(ctx, "inventory consumer starting", "queue", app.config.QueueName)
	if err := app.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		app.logger.Error(ctx, "inventory consumer stopped", "error", err)
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting storefront server")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startConsumer(ctx)
	}()

	wg.Wait()

	if err := app.providers.Queue.Close(); err != nil {
		app.logger.Error(context.Background(), "queue close error", "error", err)
	}
	if conn := app.providers.Store.Conn(); conn != nil {
		if err := conn.Close(); err != nil {
			app.logger.Error(context.Background(), "store close error", "error", err)
		}
	}

	app.logger.Info(context.Background(), "storefront server stopped")
}
