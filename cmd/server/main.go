package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"taskdeck/internal/audit"
	"taskdeck/internal/jwttoken"
	"taskdeck/internal/platform/config"
	"taskdeck/internal/platform/httpserver"
	"taskdeck/internal/platform/logger"
	"taskdeck/internal/platform/metrics"
	platformredis "taskdeck/internal/platform/redis"
	taskhandler "taskdeck/internal/tasks/handler"
	taskmetrics "taskdeck/internal/tasks/metrics"
	taskservice "taskdeck/internal/tasks/service"
	taskstore "taskdeck/internal/tasks/store"
	httptransport "taskdeck/internal/transport/http"
)

const tokenIssuer = "taskdeck"

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tasks, cleanup, err := buildTaskStore(ctx, cfg, log)
	if err != nil {
		log.Error("task store init failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	httpMetrics := metrics.New()
	mutationMetrics := taskmetrics.New()

	inbox := make(chan audit.Event, 128)
	auditWorker := audit.NewWorker(audit.NewInMemoryStore(), inbox)

	svc := taskservice.New(tasks,
		taskservice.WithMetrics(mutationMetrics),
		taskservice.WithAudit(audit.NewPublisher(inbox, log)),
	)

	verifier := jwttoken.NewService(cfg.JWTSigningKey, tokenIssuer, cfg.TokenTTL)
	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:        log,
		Metrics:       httpMetrics,
		TaskHandler:   taskhandler.New(svc, log, verifier),
		AllowedOrigin: cfg.AllowedOrigin,
	})

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return auditWorker.Run(groupCtx)
	})

	group.Go(func() error {
		log.Info("starting taskdeck", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownWindow)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// buildTaskStore picks a backend from the environment: Postgres when
// DATABASE_URL is set, Redis when REDIS_URL is set, in-memory otherwise.
func buildTaskStore(ctx context.Context, cfg config.Server, log *slog.Logger) (taskstore.Store, func(), error) {
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store := taskstore.NewPostgres(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info("task store: postgres")
		return store, pool.Close, nil
	}

	if cfg.Redis.URL != "" {
		client, err := platformredis.New(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		log.Info("task store: redis")
		return taskstore.NewRedis(client.Client), func() { _ = client.Close() }, nil
	}

	log.Info("task store: in-memory")
	return taskstore.NewInMemory(), func() {}, nil
}
