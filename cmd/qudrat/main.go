package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/qudrat-academy/qudrat/cmd/qudrat/cli"
	"github.com/qudrat-academy/qudrat/internal/access"
	"github.com/qudrat-academy/qudrat/internal/app"
	"github.com/qudrat-academy/qudrat/internal/auth"
	"github.com/qudrat-academy/qudrat/internal/catalog"
	"github.com/qudrat-academy/qudrat/internal/content"
	"github.com/qudrat-academy/qudrat/internal/observability"
	"github.com/qudrat-academy/qudrat/internal/platform/cache"
	"github.com/qudrat-academy/qudrat/internal/platform/db"
	"github.com/qudrat-academy/qudrat/internal/progress"
	"github.com/qudrat-academy/qudrat/internal/shared"
	"github.com/qudrat-academy/qudrat/internal/users"
	"github.com/qudrat-academy/qudrat/jobs"
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

	if len(os.Args) > 1 {
		if err := runCommand(ctx, cfg, logger, os.Args[1:]); err != nil {
			logger.Error("command failed", slog.String("command", os.Args[1]), slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	if err := serve(ctx, stop, cfg, logger); err != nil {
		logger.Error("server", slog.Any("error", err))
		os.Exit(1)
	}
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger) error {
	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer dbpool.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, dbpool, logger); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	jobClient := jobs.NewClient(redisOpts, logger)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	guard := access.Middleware{Logger: logger, Recorder: metrics}

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	catalogService := catalog.NewService(catalog.NewRepository(dbpool), catalog.NewCache(redisClient, cfg.CatalogCacheTTL), logger)
	contentService := content.NewService(content.NewRepository(dbpool), catalogService, logger)
	progressService := progress.NewService(progress.NewRepository(dbpool), contentService, catalogService, jobClient, logger)
	usersService := users.NewService(users.NewRepository(dbpool), logger)
	authService := auth.NewService(auth.NewRepository(dbpool))

	if err := catalogService.Warmup(ctx); err != nil {
		logger.Warn("catalog warmup", slog.Any("error", err))
	}

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Principals:     auth.PrincipalMiddleware{Logger: logger, Tokens: tokens, Resolver: usersService, Sessions: authService},
		Guard:          guard,

		AuthHandler:     auth.NewHandler(logger, authService, usersService, tokens, sessionManager, csrfManager, guard),
		CatalogHandler:  catalog.NewHandler(logger, catalogService, contentService),
		ContentHandler:  content.NewHandler(logger, contentService),
		ProgressHandler: progress.NewHandler(logger, progressService),
		UsersHandler:    users.NewHandler(logger, usersService),
		JobHandler:      jobs.NewHandler(inspector, logger),
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	return nil
}

func runCommand(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) error {
	switch args[0] {
	case "migrate":
		pool, err := db.New(ctx, cfg.PGDSN, 2)
		if err != nil {
			return err
		}
		defer pool.Close()
		return db.Migrate(ctx, pool, logger)
	case "jobs":
		jobsCLI := cli.NewJobsCLI(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer func() {
			if err := jobsCLI.Close(); err != nil {
				logger.Warn("jobs cli close", slog.Any("error", err))
			}
		}()
		return jobsCLI.Run(ctx, os.Stdout, args[1:])
	default:
		return fmt.Errorf("unknown command %q (want migrate or jobs)", args[0])
	}
}
