package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Cadence/internal/domain"
	"github.com/shaiso/Cadence/internal/recurrence"
	"github.com/shaiso/Cadence/internal/scheduler"
)

// Schedule DTOs

// CreateScheduleRequest — запрос на создание schedule.
// Расписание задаётся либо cron_expr, либо preset (+ time).
type CreateScheduleRequest struct {
	OwnerID    string `json:"owner_id"`
	Name       string `json:"name"`
	Prompt     string `json:"prompt"`
	WebhookURL string `json:"webhook_url"`
	CronExpr   string `json:"cron_expr,omitempty"`
	Preset     string `json:"preset,omitempty"`
	Time       string `json:"time,omitempty"`
	Enabled    *bool  `json:"enabled,omitempty"` // default: true
}

// SetEnabledRequest — запрос на включение/выключение schedule.
type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// ScheduleResponse — ответ с schedule.
type ScheduleResponse struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Name        string     `json:"name"`
	Prompt      string     `json:"prompt"`
	CronExpr    string     `json:"cron_expr"`
	Description string     `json:"description"`
	WebhookURL  string     `json:"webhook_url"`
	Enabled     bool       `json:"enabled"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
	NextRunAt   *time.Time `json:"next_run_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ScheduleFromDomain конвертирует domain.Schedule в ScheduleResponse.
// next_run_at заполняется только для включённых schedules с валидным выражением.
func ScheduleFromDomain(s *domain.Schedule, eval *scheduler.Evaluator, now time.Time) ScheduleResponse {
	resp := ScheduleResponse{
		ID:          s.ID,
		OwnerID:     s.OwnerID,
		Name:        s.Name,
		Prompt:      s.Prompt,
		CronExpr:    s.CronExpr,
		Description: recurrence.Describe(s.CronExpr),
		WebhookURL:  s.WebhookURL,
		Enabled:     s.Enabled,
		LastRunAt:   s.LastRunAt,
		CreatedAt:   s.CreatedAt,
	}
	if s.Enabled && eval != nil {
		if next, err := eval.NextFireAfter(s.CronExpr, now); err == nil {
			resp.NextRunAt = &next
		}
	}
	return resp
}

// Run DTOs

// RunResponse — ответ с run.
type RunResponse struct {
	ID            uuid.UUID  `json:"id"`
	ScheduleID    uuid.UUID  `json:"schedule_id"`
	Status        string     `json:"status"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	DurationMs    int64      `json:"duration_ms,omitempty"`
	Summary       *string    `json:"summary,omitempty"`
	Error         *string    `json:"error,omitempty"`
	WebhookStatus *int       `json:"webhook_status,omitempty"`
}

// RunFromDomain конвертирует domain.Run в RunResponse.
func RunFromDomain(r *domain.Run) RunResponse {
	return RunResponse{
		ID:            r.ID,
		ScheduleID:    r.ScheduleID,
		Status:        r.Status.String(),
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
		DurationMs:    r.Duration().Milliseconds(),
		Summary:       r.Summary,
		Error:         r.Error,
		WebhookStatus: r.WebhookStatus,
	}
}

// Calendar DTOs

// OccurrenceResponse — одно срабатывание в календаре.
type OccurrenceResponse struct {
	ScheduleID  uuid.UUID `json:"schedule_id"`
	Name        string    `json:"name"`
	CronExpr    string    `json:"cron_expr"`
	Description string    `json:"description"`
	At          time.Time `json:"at"`
}

// OccurrencesFromDomain конвертирует срабатывания.
func OccurrencesFromDomain(occs []domain.Occurrence) []OccurrenceResponse {
	result := make([]OccurrenceResponse, len(occs))
	for i, o := range occs {
		result[i] = OccurrenceResponse{
			ScheduleID:  o.ScheduleID,
			Name:        o.Name,
			CronExpr:    o.CronExpr,
			Description: o.Description,
			At:          o.At,
		}
	}
	return result
}

// CalendarResponse — проекция месяца.
type CalendarResponse struct {
	Month       string               `json:"month"`
	Timezone    string               `json:"timezone"`
	Occurrences []OccurrenceResponse `json:"occurrences"`
}

// Sweep DTOs

// TriggerSweepRequest — необязательное тело POST /api/v1/sweeps.
type TriggerSweepRequest struct {
	At *time.Time `json:"at,omitempty"`
}

// SweepResponse — отчёт sweep.
type SweepResponse struct {
	Skipped  bool                       `json:"skipped"`
	Checked  int                        `json:"checked"`
	Executed int                        `json:"executed"`
	Results  []scheduler.ScheduleResult `json:"results"`
}
