package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shaiso/Cadence/internal/agent"
	"github.com/shaiso/Cadence/internal/domain"
	"github.com/shaiso/Cadence/internal/telemetry"
	"github.com/shaiso/Cadence/internal/webhook"
)

// DefaultSummaryLimit — длина сохраняемого результата в рунах.
const DefaultSummaryLimit = 500

// SystemInstruction — фиксированная системная инструкция для engine.
const SystemInstruction = "You are running a scheduled task on behalf of the user. " +
	"Complete the task using the available tools and reply with a concise result. " +
	"Nobody is available to answer follow-up questions."

// ScheduleStore — доступ к schedules, нужный планировщику.
type ScheduleStore interface {
	ListEnabled(ctx context.Context) ([]domain.Schedule, error)
	MarkRun(ctx context.Context, id uuid.UUID, at time.Time) error
}

// RunStore — доступ к runs, нужный Executor'у.
type RunStore interface {
	Create(ctx context.Context, run *domain.Run) error
	Finish(ctx context.Context, run *domain.Run) error
}

// Deliverer — доставка webhook. Транспортная ошибка возвращается как 0.
type Deliverer interface {
	Post(ctx context.Context, url string, body any) int
}

// RunEventPublisher — публикация события о завершённом run (опционально).
type RunEventPublisher interface {
	PublishRunFinished(ctx context.Context, run *domain.Run) error
}

// ExecutionResult — итог одной попытки.
type ExecutionResult struct {
	Succeeded bool
	RunID     uuid.UUID
}

// Executor выполняет одну попытку schedule.
//
//  1. Создаёт run в статусе RUNNING (ошибка фатальна для попытки)
//  2. Вызывает engine с prompt, системной инструкцией и инструментами владельца
//  3. Доставляет webhook с результатом (best-effort, ошибка → статус 0)
//  4. Закрывает run как COMPLETED или FAILED
//  5. Всегда сдвигает last_run_at schedule на время начала попытки
//
// Ошибка engine не повторяется в пределах того же срабатывания:
// schedule будет снова due только на следующем срабатывании.
type Executor struct {
	runs         RunStore
	schedules    ScheduleStore
	engine       agent.Engine
	webhook      Deliverer
	events       RunEventPublisher
	logger       *slog.Logger
	metrics      *Metrics
	tools        []string
	maxSteps     int
	summaryLimit int
	now          func() time.Time
}

// ExecutorConfig — конфигурация Executor.
type ExecutorConfig struct {
	Runs      RunStore
	Schedules ScheduleStore
	Engine    agent.Engine
	Webhook   Deliverer
	Events    RunEventPublisher // опционально
	Logger    *slog.Logger
	Metrics   *Metrics // опционально

	// Tools — инструменты, доступные engine (в рамках владельца).
	Tools []string

	MaxSteps     int // default: agent.DefaultMaxSteps
	SummaryLimit int // default: DefaultSummaryLimit

	// Now — источник времени (для тестов). Default: time.Now.
	Now func() time.Time
}

// NewExecutor создаёт Executor.
func NewExecutor(cfg ExecutorConfig) *Executor {
	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = agent.DefaultMaxSteps
	}
	summaryLimit := cfg.SummaryLimit
	if summaryLimit <= 0 {
		summaryLimit = DefaultSummaryLimit
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.Discard()
	}

	return &Executor{
		runs:         cfg.Runs,
		schedules:    cfg.Schedules,
		engine:       cfg.Engine,
		webhook:      cfg.Webhook,
		events:       cfg.Events,
		logger:       logger,
		metrics:      cfg.Metrics,
		tools:        cfg.Tools,
		maxSteps:     maxSteps,
		summaryLimit: summaryLimit,
		now:          now,
	}
}

// Execute выполняет одну попытку schedule.
//
// Возвращает error только при ошибке хранилища. Ошибка engine
// отражается в run (FAILED) и в ExecutionResult.Succeeded.
func (e *Executor) Execute(ctx context.Context, sched *domain.Schedule) (ExecutionResult, error) {
	startedAt := e.now()

	// 1. Открываем run
	run := domain.NewRun(sched.ID, startedAt)
	if err := e.runs.Create(ctx, run); err != nil {
		return ExecutionResult{}, fmt.Errorf("create run: %w", err)
	}

	logger := telemetry.WithRunID(telemetry.WithScheduleID(e.logger, sched.ID.String()), run.ID.String())
	logger.Info("run started", "schedule_name", sched.Name, "owner_id", sched.OwnerID)

	// Учёт доводим до конца, даже если вызывающий отменил ctx.
	// Engine тоже не прерываем на середине: отмена sweep не съедает срабатывание.
	bookkeeping := context.WithoutCancel(ctx)

	// 2. Вызываем engine
	resp, engineErr := e.invoke(bookkeeping, agent.Request{
		Prompt:       sched.Prompt,
		System:       SystemInstruction,
		Capabilities: agent.Capabilities{OwnerID: sched.OwnerID, Tools: e.tools},
		MaxSteps:     e.maxSteps,
	})

	if engineErr != nil {
		logger.Warn("engine failed", "error", engineErr)
		_ = run.MarkFailed(e.now(), engineErr.Error())
	} else {
		// 3. Доставляем webhook
		executedAt := e.now()
		status := e.webhook.Post(bookkeeping, sched.WebhookURL, webhook.Envelope{
			JobName:    sched.Name,
			Prompt:     sched.Prompt,
			Response:   resp.Text,
			ExecutedAt: executedAt.UTC().Format(time.RFC3339),
			ToolsUsed:  agent.ToolNames(resp.Steps),
			Status:     string(domain.RunStatusCompleted),
		})
		e.metrics.observeWebhook(status)
		if status == webhook.StatusTransportError {
			logger.Warn("webhook delivery failed", "url", sched.WebhookURL)
		}

		// 4. Закрываем run
		_ = run.MarkCompleted(e.now(), Truncate(resp.Text, e.summaryLimit), status)
	}

	finishErr := e.runs.Finish(bookkeeping, run)
	if finishErr != nil {
		logger.Error("failed to finish run", "error", finishErr)
		finishErr = fmt.Errorf("finish run: %w", finishErr)
	}

	// 5. Сдвигаем last_run_at безусловно
	markErr := e.schedules.MarkRun(bookkeeping, sched.ID, startedAt)
	if markErr != nil {
		logger.Error("failed to update last_run_at", "error", markErr)
		markErr = fmt.Errorf("mark schedule run: %w", markErr)
	} else {
		sched.RecordAttempt(startedAt)
	}

	e.metrics.observeRun(string(run.Status))
	logger.Info("run finished", "status", run.Status, "duration", run.Duration())

	if e.events != nil {
		if err := e.events.PublishRunFinished(bookkeeping, run); err != nil {
			// Не фатально: run уже записан в БД.
			logger.Warn("failed to publish run.finished", "error", err)
		}
	}

	result := ExecutionResult{
		Succeeded: run.Status == domain.RunStatusCompleted,
		RunID:     run.ID,
	}
	if err := errors.Join(finishErr, markErr); err != nil {
		return result, err
	}
	return result, nil
}

// invoke вызывает engine. Паника и пустой ответ считаются ошибкой engine,
// чтобы run всё равно был закрыт, а last_run_at сдвинут.
func (e *Executor) invoke(ctx context.Context, req agent.Request) (resp *agent.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = fmt.Errorf("%w: panic: %v", agent.ErrEngine, r)
		}
	}()

	resp, err = e.engine.Invoke(ctx, req)
	if err == nil && resp == nil {
		return nil, fmt.Errorf("%w: empty response", agent.ErrEngine)
	}
	return resp, err
}

// Truncate обрезает строку до limit рун, добавляя "..." при обрезке.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}
