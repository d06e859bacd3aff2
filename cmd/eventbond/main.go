package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/eventbond/eventbond/internal/app"
	"github.com/eventbond/eventbond/internal/auth"
	"github.com/eventbond/eventbond/internal/authz"
	"github.com/eventbond/eventbond/internal/bookings"
	"github.com/eventbond/eventbond/internal/categories"
	"github.com/eventbond/eventbond/internal/events"
	"github.com/eventbond/eventbond/internal/observability"
	"github.com/eventbond/eventbond/internal/platform/cache"
	"github.com/eventbond/eventbond/internal/platform/db"
	"github.com/eventbond/eventbond/internal/users"
	"github.com/eventbond/eventbond/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	queue := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	usersRepo := users.NewRepository(dbpool)
	bookingsRepo := bookings.NewRepository(dbpool)

	resolver := authz.NewResolver(cfg.JWTSecret, cfg.JWTTTL)
	owners := authz.OwnerRegistry{
		authz.KindUser:    usersRepo.OwnerOf,
		authz.KindBooking: bookingsRepo.OwnerOf,
	}
	guard := authz.NewAuthorizer(logger, resolver, owners, app.NewRuleset())
	guard.SetDenialCounter(metrics)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, guard)

	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, guard)

	eventsRepo := events.NewRepository(dbpool)
	eventsCache := events.NewCache(redisClient, cfg.CacheTTL)
	eventsService := events.NewService(eventsRepo, eventsCache)
	eventsHandler := events.NewHandler(logger, eventsService, guard)

	fileStore, err := events.NewFileStore(cfg.UploadDir)
	if err != nil {
		logger.Error("init upload dir", slog.Any("error", err))
		os.Exit(1)
	}
	imageService := events.NewImageService(logger, eventsRepo, queue)
	imagesHandler := events.NewImageHandler(logger, imageService, fileStore, guard)

	bookingsService := bookings.NewService(logger, bookingsRepo, queue)
	bookingsHandler := bookings.NewHandler(logger, bookingsService, guard)

	categoriesRepo := categories.NewRepository(dbpool)
	categoriesService := categories.NewService(categoriesRepo)
	categoriesHandler := categories.NewHandler(logger, categoriesService, guard)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AuthHandler:       authHandler,
		UsersHandler:      usersHandler,
		EventsHandler:     eventsHandler,
		ImagesHandler:     imagesHandler,
		BookingsHandler:   bookingsHandler,
		CategoriesHandler: categoriesHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
