package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Cadence/internal/domain"
)

const runColumns = `id, schedule_id, status, started_at, finished_at, summary, error, webhook_status`

// RunRepo — репозиторий истории выполнения (append-only).
type RunRepo struct {
	pool *pgxpool.Pool
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

// Create вставляет run в статусе RUNNING.
func (r *RunRepo) Create(ctx context.Context, run *domain.Run) error {
	query := `
		INSERT INTO schedule_runs (id, schedule_id, status, started_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query, run.ID, run.ScheduleID, run.Status.String(), run.StartedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Finish записывает терминальное состояние run.
// Повторно закрыть уже завершённый run нельзя: ErrInvalidState.
func (r *RunRepo) Finish(ctx context.Context, run *domain.Run) error {
	if !run.IsFinished() {
		return ErrInvalidState
	}

	query := `
		UPDATE schedule_runs
		SET status = $2, finished_at = $3, summary = $4, error = $5, webhook_status = $6
		WHERE id = $1 AND status = 'running'
	`
	result, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Status.String(),
		run.FinishedAt,
		run.Summary,
		run.Error,
		run.WebhookStatus,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

// GetByID возвращает run по ID.
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+runColumns+` FROM schedule_runs WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get run by id: %w", err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[runRow])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	run, err := row.toDomain()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", row.ID, err)
	}
	return &run, nil
}

// ListBySchedule возвращает историю schedule, новые сверху.
func (r *RunRepo) ListBySchedule(ctx context.Context, scheduleID uuid.UUID, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT ` + runColumns + `
		FROM schedule_runs
		WHERE schedule_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, scheduleID, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	raw, err := pgx.CollectRows(rows, pgx.RowToStructByName[runRow])
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	runs := make([]domain.Run, 0, len(raw))
	for _, row := range raw {
		run, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", row.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}
