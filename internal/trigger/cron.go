package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SourceCron — источник триггера для локального таймера.
const SourceCron = "cron"

// Cron — локальный периодический триггер на robfig/cron.
// Запуски не перекрываются: пока идёт sweep, очередной тик пропускается.
type Cron struct {
	cron   *cron.Cron
	runner *Runner
	logger *slog.Logger
}

// NewCron создаёт Cron для расписания interval ("@every 1m", "*/5 * * * *").
func NewCron(runner *Runner, interval string, loc *time.Location) (*Cron, error) {
	if loc == nil {
		loc = time.UTC
	}
	adapter := cronLogger{logger: runner.logger}

	c := &Cron{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(adapter),
			cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
		),
		runner: runner,
		logger: runner.logger,
	}

	if _, err := c.cron.AddFunc(interval, c.tick); err != nil {
		return nil, fmt.Errorf("sweep interval %q: %w", interval, err)
	}
	return c, nil
}

func (c *Cron) tick() {
	out, err := c.runner.Trigger(context.Background(), time.Time{}, SourceCron)
	if err != nil {
		c.logger.Error("scheduled sweep failed", "error", err)
		return
	}
	if out.Report != nil {
		c.logger.Debug("scheduled sweep done", "executed", out.Report.Executed)
	}
}

// Start запускает таймер в фоне.
func (c *Cron) Start() { c.cron.Start() }

// Stop останавливает таймер и ждёт завершения текущего sweep.
func (c *Cron) Stop(ctx context.Context) {
	done := c.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		c.logger.Warn("sweep still running at shutdown")
	}
}

// cronLogger адаптирует slog к cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
