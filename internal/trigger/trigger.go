// Package trigger запускает sweeps по внешним сигналам: HTTP-запрос,
// сообщение sweeps.requested или локальный cron-таймер.
//
// Все источники сходятся в Runner.Trigger, который при наличии Locker
// не даёт двум sweeps выполняться одновременно.
package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Cadence/internal/scheduler"
	"github.com/shaiso/Cadence/internal/telemetry"
)

// Sweeper — один проход планировщика. Реализуется *scheduler.Scheduler.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (*scheduler.SweepReport, error)
}

// Locker — взаимное исключение sweeps между процессами.
// Реализуется *repo.AdvisoryLock.
type Locker interface {
	TryDo(ctx context.Context, fn func(ctx context.Context) error) (bool, error)
}

// Outcome — результат одного триггера.
type Outcome struct {
	Report *scheduler.SweepReport

	// Skipped — sweep не выполнялся: его уже выполняет другой процесс.
	Skipped bool
}

// Runner выполняет sweep по триггеру.
type Runner struct {
	sweeper Sweeper
	locker  Locker
	logger  *slog.Logger
	now     func() time.Time
}

// Config — конфигурация Runner.
type Config struct {
	Sweeper Sweeper
	Locker  Locker // опционально
	Logger  *slog.Logger
	Now     func() time.Time // default: time.Now
}

// NewRunner создаёт Runner.
func NewRunner(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.Discard()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{sweeper: cfg.Sweeper, locker: cfg.Locker, logger: logger, now: now}
}

// Trigger выполняет sweep на момент at (нулевой at — текущее время).
func (r *Runner) Trigger(ctx context.Context, at time.Time, source string) (Outcome, error) {
	if at.IsZero() {
		at = r.now()
	}
	logger := r.logger.With("source", source, "at", at)

	var report *scheduler.SweepReport
	sweep := func(ctx context.Context) error {
		var err error
		report, err = r.sweeper.Sweep(ctx, at)
		return err
	}

	if r.locker == nil {
		if err := sweep(ctx); err != nil {
			return Outcome{}, fmt.Errorf("sweep: %w", err)
		}
		return Outcome{Report: report}, nil
	}

	acquired, err := r.locker.TryDo(ctx, sweep)
	if err != nil {
		return Outcome{}, fmt.Errorf("sweep: %w", err)
	}
	if !acquired {
		logger.Info("sweep already running elsewhere, skipping")
		return Outcome{Skipped: true}, nil
	}
	return Outcome{Report: report}, nil
}
