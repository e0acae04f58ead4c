package repo

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Cadence/internal/domain"
)

// scheduleRow — строка таблицы schedules в том виде, в каком её отдаёт БД.
type scheduleRow struct {
	ID         uuid.UUID  `db:"id"`
	OwnerID    string     `db:"owner_id"`
	Name       string     `db:"name"`
	Prompt     string     `db:"prompt"`
	CronExpr   string     `db:"cron_expr"`
	WebhookURL string     `db:"webhook_url"`
	Enabled    bool       `db:"enabled"`
	LastRunAt  *time.Time `db:"last_run_at"`
	CreatedAt  time.Time  `db:"created_at"`
}

func (r scheduleRow) toDomain() domain.Schedule {
	return domain.Schedule{
		ID:         r.ID,
		OwnerID:    r.OwnerID,
		Name:       r.Name,
		Prompt:     r.Prompt,
		CronExpr:   r.CronExpr,
		WebhookURL: r.WebhookURL,
		Enabled:    r.Enabled,
		LastRunAt:  utcPtr(r.LastRunAt),
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

// runRow — строка таблицы schedule_runs.
type runRow struct {
	ID            uuid.UUID  `db:"id"`
	ScheduleID    uuid.UUID  `db:"schedule_id"`
	Status        string     `db:"status"`
	StartedAt     time.Time  `db:"started_at"`
	FinishedAt    *time.Time `db:"finished_at"`
	Summary       *string    `db:"summary"`
	Error         *string    `db:"error"`
	WebhookStatus *int32     `db:"webhook_status"`
}

func (r runRow) toDomain() (domain.Run, error) {
	status, ok := domain.ParseRunStatus(r.Status)
	if !ok {
		return domain.Run{}, ErrInvalidState
	}

	run := domain.Run{
		ID:         r.ID,
		ScheduleID: r.ScheduleID,
		Status:     status,
		StartedAt:  r.StartedAt.UTC(),
		FinishedAt: utcPtr(r.FinishedAt),
		Summary:    r.Summary,
		Error:      r.Error,
	}
	if r.WebhookStatus != nil {
		code := int(*r.WebhookStatus)
		run.WebhookStatus = &code
	}
	return run, nil
}

// utcPtr нормализует nullable время в UTC.
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
