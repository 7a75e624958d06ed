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

	"github.com/gin-gonic/gin"

	"github.com/coachingcourse/course-service/internal/auth"
	"github.com/coachingcourse/course-service/internal/cache"
	"github.com/coachingcourse/course-service/internal/config"
	"github.com/coachingcourse/course-service/internal/handlers"
	"github.com/coachingcourse/course-service/internal/repositories/postgres"
	"github.com/coachingcourse/course-service/internal/scheduler"
	"github.com/coachingcourse/course-service/internal/services"
	"github.com/coachingcourse/course-service/internal/utils"
	"github.com/coachingcourse/course-service/internal/validator"
	"github.com/coachingcourse/course-service/pkg"
)

const (
	serviceName       = "course-service"
	serverTimeout     = 15 * time.Second
	serverIdleTimeout = 60 * time.Second
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	slogger := utils.NewSlog(cfg.IsProduction())
	logger := utils.NewSlogLogger(slogger)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	logger.Info("starting", "service", serviceName, "environment", cfg.Environment)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := postgres.Migrate(db); err != nil {
		return err
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	repo := postgres.NewRepository(db)
	serviceManager := services.NewServiceManager(services.Dependencies{
		Repo:            repo,
		Tokens:          auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL),
		Cache:           cache.NewRedisCache(redisClient, slogger),
		Publisher:       publisher,
		Logger:          slogger,
		Validator:       validator.New(),
		CatalogCacheTTL: cfg.CatalogCacheTTL,
	})

	expiry, err := scheduler.NewSubscriptionScheduler(cfg.SubscriptionExpiryCron, serviceManager.Subscription(), slogger)
	if err != nil {
		return err
	}
	expiry.Start()

	health := handlers.NewHealthHandler(serviceName, map[string]handlers.Pinger{
		"database": repo,
		"redis": handlers.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
	})

	router := handlers.NewRouter(logger, cfg.CORSAllowedOrigins)
	handlers.NewHandlerManager(serviceManager, health, logger).SetupRoutes(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  serverTimeout,
		WriteTimeout: serverTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	notify := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		notify <- srv.ListenAndServe()
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var serveErr error
	select {
	case s := <-interrupt:
		logger.Info("shutdown signal received", "signal", s.String())
	case err := <-notify:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	expiry.Stop(ctx)
	if err := srv.Shutdown(ctx); err != nil {
		logger.LogError(err, "http server shutdown failed")
	}
	logger.Info("stopped")
	return serveErr
}
