package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-auth/internal/app"
	"github.com/odyssey-erp/odyssey-auth/internal/auth"
	"github.com/odyssey-erp/odyssey-auth/internal/observability"
	"github.com/odyssey-erp/odyssey-auth/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-auth/internal/platform/db"
	"github.com/odyssey-erp/odyssey-auth/internal/rbac"
	"github.com/odyssey-erp/odyssey-auth/internal/users"
	"github.com/odyssey-erp/odyssey-auth/jobs"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending migrations before serving")
	return cmd
}

func runServe(ctx context.Context, migrate bool) error {
	if app.SkipRuntime(nil, "http") {
		return nil
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer pool.Close()
	if migrate {
		if err := db.Migrate(ctx, pool); err != nil {
			return err
		}
	}

	redisClient, err := cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	ledger, err := newLedger(cfg, pool, redisClient)
	if err != nil {
		return err
	}
	issuer, err := auth.NewTokenIssuer(cfg.TokenConfig())
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	usersRepo := users.NewRepository(pool)

	authService := auth.NewService(usersRepo, hasher, issuer, ledger, observability.NewAuthMetrics(metrics.Registerer()), logger)
	usersService := users.NewService(usersRepo, hasher, logger)

	inspector := asynq.NewInspector(cfg.RedisOptions().AsynqOpt())
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		AuthService:  authService,
		AuthHandler:  auth.NewHandler(logger, authService, cfg.LoginRateLimit),
		UsersHandler: users.NewHandler(logger, usersService, rbac.Middleware{Logger: logger}),
		JobHandler:   jobs.NewHandler(inspector, logger),
		Metrics:      metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("revocation_backend", cfg.RevocationBackend),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func newLedger(cfg *app.Config, pool *pgxpool.Pool, client *redis.Client) (auth.Ledger, error) {
	switch cfg.RevocationBackend {
	case app.RevocationBackendRedis:
		return auth.NewRedisLedger(client), nil
	case app.RevocationBackendPostgres:
		return auth.NewPGLedger(pool), nil
	default:
		return nil, fmt.Errorf("unknown revocation backend %q", cfg.RevocationBackend)
	}
}
