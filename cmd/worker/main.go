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

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-auth/internal/app"
	"github.com/odyssey-erp/odyssey-auth/internal/auth"
	jobmetrics "github.com/odyssey-erp/odyssey-auth/internal/jobs"
	"github.com/odyssey-erp/odyssey-auth/internal/observability"
	"github.com/odyssey-erp/odyssey-auth/internal/platform/db"
	"github.com/odyssey-erp/odyssey-auth/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Default().Error("worker run", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if app.SkipRuntime(nil, "worker") {
		return nil
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	workerCfg := jobs.WorkerConfig{
		RedisOpts:   cfg.RedisOptions().AsynqOpt(),
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
	}

	if app.RevocationPurgeEnabled(cfg.RevocationBackend) {
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			return err
		}
		defer pool.Close()

		job := jobs.NewRevocationPurgeJob(auth.NewPGLedger(pool), logger, jobmetrics.NewMetrics(metrics.Registerer()))
		reg, err := purgeRegistration(job, cfg.RevocationPurgeCron)
		if err != nil {
			return err
		}
		workerCfg.Handlers = append(workerCfg.Handlers, reg.handler)
		workerCfg.Cron = append(workerCfg.Cron, reg.cron)
	} else {
		logger.Info("revocation purge disabled", slog.String("revocation_backend", cfg.RevocationBackend))
	}

	worker, err := jobs.NewWorker(workerCfg)
	if err != nil {
		return fmt.Errorf("init worker: %w", err)
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return worker.Run(gctx)
	})
	if cfg.WorkerMetricsAddr != "" {
		server := &http.Server{
			Addr:              cfg.WorkerMetricsAddr,
			Handler:           metrics.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		group.Go(func() error {
			logger.Info("serving worker metrics", slog.String("addr", cfg.WorkerMetricsAddr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		group.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}
	return group.Wait()
}

type registration struct {
	handler jobs.TaskHandler
	cron    jobs.CronRegistration
}

func purgeRegistration(job *jobs.RevocationPurgeJob, spec string) (registration, error) {
	task, err := jobs.NewPurgeRevocationsTask(jobs.PurgeRevocationsPayload{})
	if err != nil {
		return registration{}, fmt.Errorf("build purge task: %w", err)
	}
	return registration{
		handler: jobs.TaskHandler{Type: jobs.TaskPurgeRevocations, Handler: job.Handle},
		cron:    jobs.CronRegistration{Spec: spec, Task: task},
	}, nil
}
