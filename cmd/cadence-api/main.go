// Cadence API — HTTP API для schedules, истории runs и календаря.
//
// Если задан sweep.token, POST /api/v1/sweeps выполняет sweep
// синхронно в этом процессе (под advisory lock в PostgreSQL).
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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Cadence/internal/agent"
	"github.com/shaiso/Cadence/internal/api"
	"github.com/shaiso/Cadence/internal/config"
	"github.com/shaiso/Cadence/internal/mq"
	"github.com/shaiso/Cadence/internal/repo"
	"github.com/shaiso/Cadence/internal/scheduler"
	"github.com/shaiso/Cadence/internal/telemetry"
	"github.com/shaiso/Cadence/internal/trigger"
	"github.com/shaiso/Cadence/internal/webhook"
)

var startTime = time.Now()

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(cfg.Log.Level, cfg.Log.Format)
	logger.Info("starting cadence-api")

	if err := run(cfg, logger); err != nil {
		logger.Error("cadence-api failed", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := repo.NewPool(ctx, repo.PoolConfig{DSN: cfg.DB.URL, MaxConns: cfg.DB.MaxConns})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	if err := repo.EnsureSchema(ctx, pool); err != nil {
		return err
	}
	logger.Info("connected to database")

	eval, err := scheduler.NewEvaluator(cfg.Scheduler.Timezone)
	if err != nil {
		return err
	}

	scheduleRepo := repo.NewScheduleRepo(pool)
	runRepo := repo.NewRunRepo(pool)

	handlerCfg := api.Config{
		Schedules:  scheduleRepo,
		Runs:       runRepo,
		Evaluator:  eval,
		Projector:  scheduler.NewProjector(eval, cfg.Scheduler.MaxOccurrences),
		SweepToken: cfg.Sweep.Token,
		Logger:     logger,
	}

	if cfg.Sweep.Token != "" {
		// События runs.finished — best-effort: без RabbitMQ API продолжает работать.
		var events scheduler.RunEventPublisher
		conn, err := mq.NewConnection(mq.ConnectionConfig{URL: cfg.RabbitMQ.URL, Logger: logger})
		if err != nil {
			logger.Warn("rabbitmq unavailable, run events disabled", "error", err)
		} else {
			defer conn.Close()
			if err := mq.SetupTopology(ctx, conn); err != nil {
				return err
			}
			events = mq.NewPublisher(conn, logger)
		}

		metrics := scheduler.NewMetrics(prometheus.DefaultRegisterer)
		executor := scheduler.NewExecutor(scheduler.ExecutorConfig{
			Runs:         runRepo,
			Schedules:    scheduleRepo,
			Engine:       agent.NewHTTPEngine(agent.HTTPEngineConfig{URL: cfg.Agent.URL, Token: cfg.Agent.Token}),
			Webhook:      webhook.NewClient(webhook.Config{Timeout: cfg.Webhook.Timeout, Logger: logger}),
			Events:       events,
			Logger:       logger,
			Metrics:      metrics,
			Tools:        cfg.Agent.Tools,
			MaxSteps:     cfg.Agent.MaxSteps,
			SummaryLimit: cfg.Scheduler.SummaryLimit,
		})
		handlerCfg.Sweeps = trigger.NewRunner(trigger.Config{
			Sweeper: scheduler.New(scheduler.Config{
				Schedules:   scheduleRepo,
				Executor:    executor,
				Evaluator:   eval,
				Logger:      logger,
				Metrics:     metrics,
				Concurrency: cfg.Scheduler.Concurrency,
			}),
			Locker: repo.NewAdvisoryLock(pool, repo.SweepLockKey),
			Logger: logger,
		})
		logger.Info("sweep endpoint enabled")
	}

	handler := api.NewHandler(handlerCfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, "db: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime).Round(time.Second))
	})
	mux.Handle("/metrics", promhttp.Handler())
	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.API.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}
