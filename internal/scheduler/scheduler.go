package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Cadence/internal/domain"
	"github.com/shaiso/Cadence/internal/telemetry"
)

// JobExecutor — выполнение одной попытки schedule.
// Реализуется *Executor.
type JobExecutor interface {
	Execute(ctx context.Context, sched *domain.Schedule) (ExecutionResult, error)
}

// ScheduleResult — итог обработки одного due schedule в рамках sweep.
type ScheduleResult struct {
	ScheduleID uuid.UUID  `json:"schedule_id"`
	Name       string     `json:"name"`
	Succeeded  bool       `json:"succeeded"`
	RunID      *uuid.UUID `json:"run_id,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// SweepReport — отчёт одного sweep.
type SweepReport struct {
	// Checked — сколько включённых schedules проверено.
	Checked int `json:"checked"`

	// Executed — сколько due schedules дошли до записи run (есть run id).
	Executed int `json:"executed"`

	// Results — итоги по каждому due schedule.
	Results []ScheduleResult `json:"results"`
}

// Scheduler — batch runner: один вызов Sweep — полный stateless проход
// по включённым schedules. Вызывается внешним периодическим триггером.
//
// Два пересекающихся sweep могут оба посчитать schedule due и выполнить
// его дважды: атомарного захвата last_run_at нет. Развёртывание
// предполагает единственный триггер.
type Scheduler struct {
	schedules   ScheduleStore
	executor    JobExecutor
	eval        *Evaluator
	logger      *slog.Logger
	metrics     *Metrics
	concurrency int
}

// Config — конфигурация Scheduler.
type Config struct {
	Schedules ScheduleStore
	Executor  JobExecutor
	Evaluator *Evaluator
	Logger    *slog.Logger
	Metrics   *Metrics // опционально

	// Concurrency — сколько schedules выполнять одновременно (default: 1, последовательно).
	Concurrency int
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.Discard()
	}

	return &Scheduler{
		schedules:   cfg.Schedules,
		executor:    cfg.Executor,
		eval:        cfg.Evaluator,
		logger:      logger,
		metrics:     cfg.Metrics,
		concurrency: concurrency,
	}
}

// Sweep выполняет один проход планировщика.
//
// 1. Загружает включённые schedules
// 2. Отбирает due через Evaluator.IsDue
// 3. Выполняет каждый due schedule через Executor
//
// Ошибка одного schedule не прерывает обработку остальных.
// Возвращает error только если не удалось загрузить schedules.
func (s *Scheduler) Sweep(ctx context.Context, now time.Time) (*SweepReport, error) {
	started := time.Now()

	// 1. Загружаем включённые schedules
	schedules, err := s.schedules.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("list enabled schedules: %w", err)
	}

	// 2. Отбираем due
	var due []*domain.Schedule
	for i := range schedules {
		sched := &schedules[i]
		if s.eval.IsDue(sched.CronExpr, sched.LastRunAt, now) {
			due = append(due, sched)
		}
	}

	s.logger.Debug("sweep checked schedules", "checked", len(schedules), "due", len(due))

	// 3. Выполняем
	results := make([]ScheduleResult, len(due))
	if s.concurrency == 1 {
		for i, sched := range due {
			results[i] = s.runOne(ctx, sched)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(s.concurrency)
		for i, sched := range due {
			g.Go(func() error {
				results[i] = s.runOne(ctx, sched)
				return nil
			})
		}
		_ = g.Wait()
	}

	report := &SweepReport{
		Checked: len(schedules),
		Results: results,
	}

	var failed int
	for _, r := range results {
		if r.RunID != nil {
			report.Executed++
		}
		if !r.Succeeded {
			failed++
		}
	}

	s.metrics.observeSweep(report.Checked, report.Executed, time.Since(started).Seconds())
	s.logger.Info("sweep completed",
		"checked", report.Checked,
		"executed", report.Executed,
		"failed", failed,
		"duration", time.Since(started),
	)

	return report, nil
}

// runOne выполняет один schedule, изолируя ошибки и паники.
func (s *Scheduler) runOne(ctx context.Context, sched *domain.Schedule) (result ScheduleResult) {
	result = ScheduleResult{ScheduleID: sched.ID, Name: sched.Name}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic while executing schedule",
				"schedule_id", sched.ID,
				"panic", r,
			)
			result.Succeeded = false
			result.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	res, err := s.executor.Execute(ctx, sched)
	if res.RunID != uuid.Nil {
		runID := res.RunID
		result.RunID = &runID
	}
	if err != nil {
		s.logger.Error("failed to execute schedule",
			"schedule_id", sched.ID,
			"schedule_name", sched.Name,
			"error", err,
		)
		result.Error = err.Error()
		return result
	}

	result.Succeeded = res.Succeeded
	if !res.Succeeded {
		result.Error = "run failed"
	}
	return result
}
