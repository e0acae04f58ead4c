package scheduler

import "time"

// IsDue проверяет, есть ли у выражения необработанное срабатывание.
//
//   - невалидное выражение — не due (schedule молча пропускается)
//   - нет ни одного срабатывания <= now (например "0 0 30 2 *") — не due
//   - lastRunAt == nil — schedule ни разу не запускался, due
//   - иначе due, если последнее срабатывание <= now строго позже lastRunAt
//
// Чистый предикат: lastRunAt не изменяется.
func (e *Evaluator) IsDue(expr string, lastRunAt *time.Time, now time.Time) bool {
	it, err := e.Parse(expr, now)
	if err != nil {
		return false
	}

	prev, err := it.Prev()
	if err != nil {
		return false
	}
	if lastRunAt == nil {
		return true
	}
	return prev.After(*lastRunAt)
}
