package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Cadence/internal/domain"
	"github.com/shaiso/Cadence/internal/repo"
	"github.com/shaiso/Cadence/internal/scheduler"
	"github.com/shaiso/Cadence/internal/telemetry"
	"github.com/shaiso/Cadence/internal/trigger"
)

// ScheduleStore — операции над schedules, нужные API. Реализуется *repo.ScheduleRepo.
type ScheduleStore interface {
	Create(ctx context.Context, s *domain.Schedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Schedule, error)
	List(ctx context.Context, filter repo.ScheduleFilter) ([]domain.Schedule, error)
	SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RunStore — чтение истории выполнения. Реализуется *repo.RunRepo.
type RunStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error)
	ListBySchedule(ctx context.Context, scheduleID uuid.UUID, limit int) ([]domain.Run, error)
}

// SweepTrigger — запуск sweep по HTTP. Реализуется *trigger.Runner.
type SweepTrigger interface {
	Trigger(ctx context.Context, at time.Time, source string) (trigger.Outcome, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	schedules  ScheduleStore
	runs       RunStore
	sweeps     SweepTrigger
	eval       *scheduler.Evaluator
	projector  *scheduler.Projector
	sweepToken string
	logger     *slog.Logger
	now        func() time.Time
}

// Config — конфигурация для создания Handler.
type Config struct {
	Schedules ScheduleStore
	Runs      RunStore
	Sweeps    SweepTrigger // nil — POST /api/v1/sweeps отвечает 503
	Evaluator *scheduler.Evaluator
	Projector *scheduler.Projector

	// SweepToken — bearer-токен внешнего триггера. Пустой — эндпоинт закрыт.
	SweepToken string

	Logger *slog.Logger
	Now    func() time.Time // default: time.Now
}

// log возвращает логгер запроса (с request_id), если его положил Logging.
func (h *Handler) log(r *http.Request) *slog.Logger {
	return telemetry.FromContext(r.Context(), h.logger)
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.Discard()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		schedules:  cfg.Schedules,
		runs:       cfg.Runs,
		sweeps:     cfg.Sweeps,
		eval:       cfg.Evaluator,
		projector:  cfg.Projector,
		sweepToken: cfg.SweepToken,
		logger:     logger,
		now:        now,
	}
}
