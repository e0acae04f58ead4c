package domain

import (
	"time"

	"github.com/google/uuid"
)

// Schedule — пользовательская задача с расписанием запуска.
//
// Schedule связывает:
// - Prompt — текст задачи, который передаётся в task execution engine
// - CronExpr — выражение повторения (5 полей: минуты часы дни месяцы дни_недели)
// - WebhookURL — куда доставлять результат выполнения
//
// LastRunAt изменяется только Executor'ом, владелец его не трогает.
type Schedule struct {
	// ID — уникальный идентификатор schedule.
	ID uuid.UUID `json:"id"`

	// OwnerID — идентификатор владельца.
	// Набор инструментов engine ограничивается этим владельцем.
	OwnerID string `json:"owner_id"`

	// Name — отображаемое имя.
	Name string `json:"name"`

	// Prompt — текст задачи (непрозрачен для планировщика).
	Prompt string `json:"prompt"`

	// CronExpr — cron-выражение.
	// Примеры:
	//   "0 9 * * *"     — каждый день в 9:00
	//   "0 9 * * 1"     — каждый понедельник в 9:00
	//   "0 9 1,15 * *"  — 1-го и 15-го числа в 9:00
	CronExpr string `json:"cron_expr"`

	// WebhookURL — адрес доставки результата.
	WebhookURL string `json:"webhook_url"`

	// Enabled — флаг активности.
	// Если false, schedule не проверяется на due и не проецируется в календарь.
	Enabled bool `json:"enabled"`

	// LastRunAt — время последней попытки выполнения (успешной или нет).
	// Nil, если schedule ещё ни разу не запускался.
	LastRunAt *time.Time `json:"last_run_at,omitempty"`

	// CreatedAt — время создания schedule.
	CreatedAt time.Time `json:"created_at"`
}

// HasRun возвращает true, если schedule уже запускался.
func (s *Schedule) HasRun() bool {
	return s.LastRunAt != nil
}

// RecordAttempt фиксирует попытку выполнения.
// Вызывается Executor'ом независимо от результата.
func (s *Schedule) RecordAttempt(at time.Time) {
	s.LastRunAt = &at
}
