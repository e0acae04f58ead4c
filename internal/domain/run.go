package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run — запись об одной попытке выполнения schedule.
//
// История append-only: run никогда не удаляется и не переиспользуется.
// Каждая попытка создаёт новый run в статусе RUNNING, который
// ровно один раз переходит в COMPLETED или FAILED.
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// ScheduleID — ссылка на schedule.
	ScheduleID uuid.UUID `json:"schedule_id"`

	// Status — текущий статус.
	Status RunStatus `json:"status"`

	// StartedAt — время начала попытки.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt — время завершения. Nil, пока run выполняется.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Summary — усечённый результат engine (только для COMPLETED).
	Summary *string `json:"summary,omitempty"`

	// Error — текст ошибки (только для FAILED).
	Error *string `json:"error,omitempty"`

	// WebhookStatus — HTTP-код доставки webhook.
	// 0 — сетевая ошибка доставки, nil — доставка не выполнялась.
	WebhookStatus *int `json:"webhook_status,omitempty"`
}

// NewRun создаёт run в статусе RUNNING.
func NewRun(scheduleID uuid.UUID, startedAt time.Time) *Run {
	return &Run{
		ID:         uuid.New(),
		ScheduleID: scheduleID,
		Status:     RunStatusRunning,
		StartedAt:  startedAt,
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// IsFinished возвращает true, если run завершён.
func (r *Run) IsFinished() bool {
	return r.Status.IsTerminal()
}

// MarkCompleted переводит run в статус COMPLETED.
func (r *Run) MarkCompleted(at time.Time, summary string, webhookStatus int) error {
	if r.IsFinished() {
		return ErrRunFinished
	}
	r.Status = RunStatusCompleted
	r.FinishedAt = &at
	r.Summary = &summary
	r.WebhookStatus = &webhookStatus
	return nil
}

// MarkFailed переводит run в статус FAILED с ошибкой.
func (r *Run) MarkFailed(at time.Time, errText string) error {
	if r.IsFinished() {
		return ErrRunFinished
	}
	r.Status = RunStatusFailed
	r.FinishedAt = &at
	r.Error = &errText
	return nil
}
