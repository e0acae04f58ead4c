package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SweepLockKey — ключ advisory lock, сериализующего sweeps.
const SweepLockKey int64 = 424242

// AdvisoryLock — session-level pg_advisory_lock на выделенном соединении.
// Несколько процессов, делящих одну БД, не выполнят sweep одновременно.
type AdvisoryLock struct {
	pool *pgxpool.Pool
	key  int64
}

// NewAdvisoryLock создаёт AdvisoryLock.
func NewAdvisoryLock(pool *pgxpool.Pool, key int64) *AdvisoryLock {
	return &AdvisoryLock{pool: pool, key: key}
}

// TryDo выполняет fn, если удалось взять lock. Если lock занят другим
// процессом, fn не вызывается и возвращается false.
func (l *AdvisoryLock) TryDo(ctx context.Context, fn func(ctx context.Context) error) (bool, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire conn: %w", err)
	}
	defer conn.Release()

	var ok bool
	if err := conn.QueryRow(ctx, "select pg_try_advisory_lock($1)", l.key).Scan(&ok); err != nil {
		return false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !ok {
		return false, nil
	}
	defer func() {
		_, _ = conn.Exec(context.WithoutCancel(ctx), "select pg_advisory_unlock($1)", l.key)
	}()

	return true, fn(ctx)
}
