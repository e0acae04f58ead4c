// Cadence sweeper — исполнитель sweeps.
//
// Источники триггера:
//   - очередь sweeps.requested (сообщения от cadence-tick или внешних систем)
//   - локальный таймер, если задан sweep.interval (например "@every 1m")
//
// Одновременно выполняется не больше одного sweep на кластер:
// Runner берёт pg_try_advisory_lock, занятый lock — пропуск.
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
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Cadence/internal/agent"
	"github.com/shaiso/Cadence/internal/config"
	"github.com/shaiso/Cadence/internal/mq"
	"github.com/shaiso/Cadence/internal/repo"
	"github.com/shaiso/Cadence/internal/scheduler"
	"github.com/shaiso/Cadence/internal/telemetry"
	"github.com/shaiso/Cadence/internal/trigger"
	"github.com/shaiso/Cadence/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(cfg.Log.Level, cfg.Log.Format).With("component", "sweeper")
	logger.Info("starting cadence-sweeper")

	if err := run(cfg, logger); err != nil {
		logger.Error("cadence-sweeper failed", "error", err)
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

	conn, err := mq.NewConnection(mq.ConnectionConfig{URL: cfg.RabbitMQ.URL, Logger: logger})
	if err != nil {
		return fmt.Errorf("connect to rabbitmq: %w", err)
	}
	defer conn.Close()
	if err := mq.SetupTopology(ctx, conn); err != nil {
		return err
	}
	logger.Info("connected to rabbitmq")

	eval, err := scheduler.NewEvaluator(cfg.Scheduler.Timezone)
	if err != nil {
		return err
	}

	scheduleRepo := repo.NewScheduleRepo(pool)
	metrics := scheduler.NewMetrics(prometheus.DefaultRegisterer)

	executor := scheduler.NewExecutor(scheduler.ExecutorConfig{
		Runs:         repo.NewRunRepo(pool),
		Schedules:    scheduleRepo,
		Engine:       agent.NewHTTPEngine(agent.HTTPEngineConfig{URL: cfg.Agent.URL, Token: cfg.Agent.Token}),
		Webhook:      webhook.NewClient(webhook.Config{Timeout: cfg.Webhook.Timeout, Logger: logger}),
		Events:       mq.NewPublisher(conn, logger),
		Logger:       logger,
		Metrics:      metrics,
		Tools:        cfg.Agent.Tools,
		MaxSteps:     cfg.Agent.MaxSteps,
		SummaryLimit: cfg.Scheduler.SummaryLimit,
	})

	runner := trigger.NewRunner(trigger.Config{
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

	// RequeueOnError=false: упавший sweep уходит в DLQ, а не крутится в очереди.
	// Следующий триггер всё равно подхватит пропущенные срабатывания.
	consumer := mq.NewConsumer(conn, logger, mq.ConsumerConfig{
		Queue:          mq.QueueSweepsRequested,
		Handler:        runner.MessageHandler(),
		RequeueOnError: false,
	})

	var timer *trigger.Cron
	if cfg.Sweep.Interval != "" {
		timer, err = trigger.NewCron(runner, cfg.Sweep.Interval, eval.Location())
		if err != nil {
			return err
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !conn.IsConnected() {
			http.Error(w, "rabbitmq disconnected", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.Sweeper.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("consuming", "queue", mq.QueueSweepsRequested)
		return consumer.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if timer != nil {
		timer.Start()
		logger.Info("local sweep timer started", "interval", cfg.Sweep.Interval)

		g.Go(func() error {
			<-gctx.Done()
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer stopCancel()
			timer.Stop(stopCtx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
