package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Cadence/internal/domain"
)

const scheduleColumns = `id, owner_id, name, prompt, cron_expr, webhook_url, enabled, last_run_at, created_at`

// ScheduleRepo — репозиторий для работы с schedules.
type ScheduleRepo struct {
	pool *pgxpool.Pool
}

// NewScheduleRepo создаёт новый ScheduleRepo.
func NewScheduleRepo(pool *pgxpool.Pool) *ScheduleRepo {
	return &ScheduleRepo{pool: pool}
}

// Create создаёт новый schedule.
func (r *ScheduleRepo) Create(ctx context.Context, s *domain.Schedule) error {
	query := `
		INSERT INTO schedules (` + scheduleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.OwnerID,
		s.Name,
		s.Prompt,
		s.CronExpr,
		s.WebhookURL,
		s.Enabled,
		s.LastRunAt,
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

// GetByID возвращает schedule по ID.
func (r *ScheduleRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Schedule, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get schedule by id: %w", err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[scheduleRow])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan schedule: %w", err)
	}

	s := row.toDomain()
	return &s, nil
}

// ScheduleFilter — параметры фильтрации schedules.
type ScheduleFilter struct {
	OwnerID string
	Enabled *bool
	Limit   int
	Offset  int
}

// List возвращает список schedules с фильтрацией.
func (r *ScheduleRepo) List(ctx context.Context, filter ScheduleFilter) ([]domain.Schedule, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT ` + scheduleColumns + `
		FROM schedules
		WHERE ($1::text IS NULL OR owner_id = $1)
		  AND ($2::boolean IS NULL OR enabled = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(filter.OwnerID),
		filter.Enabled,
		limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return collectSchedules(rows)
}

// ListEnabled возвращает все включённые schedules.
// Порядок стабилен (по created_at), чтобы отчёт sweep был воспроизводим.
func (r *ScheduleRepo) ListEnabled(ctx context.Context) ([]domain.Schedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM schedules
		WHERE enabled = true
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list enabled schedules: %w", err)
	}
	return collectSchedules(rows)
}

// SetEnabled включает/выключает schedule.
func (r *ScheduleRepo) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	result, err := r.pool.Exec(ctx, `UPDATE schedules SET enabled = $2 WHERE id = $1`, id, enabled)
	if err != nil {
		return fmt.Errorf("set enabled: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkRun выставляет last_run_at. Единственное место, где он меняется.
func (r *ScheduleRepo) MarkRun(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := r.pool.Exec(ctx, `UPDATE schedules SET last_run_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("mark schedule run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет schedule (каскадно удалит историю runs).
func (r *ScheduleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectSchedules(rows pgx.Rows) ([]domain.Schedule, error) {
	raw, err := pgx.CollectRows(rows, pgx.RowToStructByName[scheduleRow])
	if err != nil {
		return nil, fmt.Errorf("scan schedule: %w", err)
	}

	schedules := make([]domain.Schedule, 0, len(raw))
	for _, row := range raw {
		schedules = append(schedules, row.toDomain())
	}
	return schedules, nil
}
