// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/useSafe/File-Allocation-System-2.0/internal/admin"
	"github.com/useSafe/File-Allocation-System-2.0/internal/auth"
	"github.com/useSafe/File-Allocation-System-2.0/internal/browser"
	"github.com/useSafe/File-Allocation-System-2.0/internal/config"
	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
	"github.com/useSafe/File-Allocation-System-2.0/internal/feed"
	"github.com/useSafe/File-Allocation-System-2.0/internal/health"
	"github.com/useSafe/File-Allocation-System-2.0/internal/location"
	"github.com/useSafe/File-Allocation-System-2.0/internal/middleware"
	"github.com/useSafe/File-Allocation-System-2.0/internal/readmodel"
	"github.com/useSafe/File-Allocation-System-2.0/internal/record"
	"github.com/useSafe/File-Allocation-System-2.0/internal/server"
	"github.com/useSafe/File-Allocation-System-2.0/internal/transition"
	"github.com/useSafe/File-Allocation-System-2.0/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log, cfg.IsDevelopment())
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	applied, err := core.Migrate(ctx, db.DB)
	if err != nil {
		return err
	}
	if len(applied) > 0 {
		logger.Info("migrations applied", "versions", applied)
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	bus := feed.NewRedisBus(redis)

	locationSvc := location.NewService(location.NewRepository(db.DB), bus)
	locationHandler := location.NewHandler(locationSvc)

	recordSvc := record.NewService(
		record.NewRepository(db.DB),
		locationSvc,
		bus,
		cfg.Records.BulkDeleteConcurrency,
	)

	model := readmodel.New(locationSvc, recordSvc)
	recordHandler := record.NewHandler(
		recordSvc,
		model,
		cfg.Records.PageSize,
		cfg.Records.MaxPageSize,
	)
	browserHandler := browser.NewHandler(model)

	transitionSvc := transition.NewService(
		transition.NewRedisStore(redis.Client),
		recordSvc,
		cfg.Records.TransitionTTL,
	)
	transitionHandler := transition.NewHandler(transitionSvc)

	hub := feed.NewHub(model, feed.HubConfig{
		WriteTimeout:   cfg.Live.WriteTimeout,
		PingInterval:   cfg.Live.PingInterval,
		SendBuffer:     cfg.Live.SendBuffer,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	userSvc := user.NewService(
		user.NewRepository(db.DB),
		user.Policy{EmailDomain: cfg.Users.EmailDomain},
		bus,
	)
	userHandler := user.NewHandler(userSvc)

	if cfg.Users.AdminPassword != "" {
		created, seedErr := userSvc.EnsurePrimordialAdmin(
			ctx,
			cfg.Users.AdminName,
			cfg.Users.AdminPassword,
		)
		if seedErr != nil {
			return seedErr
		}
		if created {
			logger.Info("primordial admin created",
				"email", "admin@"+cfg.Users.EmailDomain,
			)
		}
	}

	authRepo := auth.NewRepository(db.DB)
	authSvc := auth.NewService(authRepo, jwtManager, userSvc, redis.Client)
	authHandler := auth.NewHandler(authSvc)

	healthHandler := health.NewHandler(db, redis, model)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:     db.Stats,
		RedisStats:  redis.PoolStats,
		DBPing:      db.Ping,
		RedisPing:   redis.Ping,
		LiveClients: hub.Clients,
		Snapshot:    model,
		Sessions:    authSvc,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.Per(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(authSvc)
	adminOnly := middleware.RequireAdmin
	exportLimit := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit:    middleware.PerMinute(cfg.Records.ExportPerMinute, cfg.Records.ExportPerMinute),
		KeyFunc:  middleware.KeyByUserAndEndpoint,
		FailOpen: true,
	}).Handler

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)

		locationHandler.RegisterRoutes(r, authenticator, adminOnly)
		recordHandler.RegisterRoutes(r, authenticator, adminOnly, exportLimit)
		transitionHandler.RegisterRoutes(r, authenticator)
		browserHandler.RegisterRoutes(r, authenticator)
		r.With(authenticator).Get("/live", hub.ServeHTTP)

		userHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	modelCtx, stopModel := context.WithCancel(context.Background())
	modelDone := make(chan struct{})
	go func() {
		defer close(modelDone)
		if runErr := model.Run(modelCtx, bus); runErr != nil {
			logger.Error("read model stopped", "error", runErr)
		}
	}()

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := hub.Shutdown(shutdownCtx); err != nil {
		logger.Error("live feed shutdown error", "error", err)
	}

	stopModel()
	<-modelDone

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig, addSource bool) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: addSource}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
