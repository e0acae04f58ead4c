package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser — парсер cron-выражений (5 полей, стандартная семантика
// day-of-month/day-of-week: если оба поля ограничены, достаточно совпадения любого).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// prevHorizon — насколько далеко назад ищется предыдущее срабатывание.
// Покрывает выражения вида "0 0 29 2 *" (раз в 4 года) с запасом.
const prevHorizon = 8 * 366 * 24 * time.Hour

// Evaluator вычисляет время срабатывания cron-выражений в одной
// фиксированной зоне для всей системы. Due-detection и проекция
// календаря используют один Evaluator и поэтому всегда согласованы.
type Evaluator struct {
	loc *time.Location
}

// NewEvaluator создаёт Evaluator для IANA-зоны ("UTC", "Europe/Moscow").
// Пустая строка означает UTC.
func NewEvaluator(timezone string) (*Evaluator, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidTimezone, timezone, err)
	}
	return &Evaluator{loc: loc}, nil
}

// Location возвращает зону Evaluator'а.
func (e *Evaluator) Location() *time.Location {
	return e.loc
}

// Validate проверяет cron-выражение.
func (e *Evaluator) Validate(expr string) error {
	_, err := parseSpec(expr)
	return err
}

// Parse разбирает выражение и возвращает итератор с курсором в ref.
func (e *Evaluator) Parse(expr string, ref time.Time) (*Iterator, error) {
	sched, err := parseSpec(expr)
	if err != nil {
		return nil, err
	}
	return &Iterator{
		sched:  sched,
		loc:    e.loc,
		cursor: ref.In(e.loc),
	}, nil
}

// PreviousFireBefore возвращает последнее срабатывание <= t.
func (e *Evaluator) PreviousFireBefore(expr string, t time.Time) (time.Time, error) {
	it, err := e.Parse(expr, t)
	if err != nil {
		return time.Time{}, err
	}
	return it.Prev()
}

// NextFireAfter возвращает первое срабатывание > t.
func (e *Evaluator) NextFireAfter(expr string, t time.Time) (time.Time, error) {
	it, err := e.Parse(expr, t)
	if err != nil {
		return time.Time{}, err
	}
	return it.Next()
}

// parseSpec принимает только классические пять полей.
// Дескрипторы (@daily, @every) и префиксы TZ= отклоняются:
// зона задаётся на уровне Evaluator.
func parseSpec(expr string) (cron.Schedule, error) {
	if len(strings.Fields(expr)) != 5 {
		return nil, fmt.Errorf("%w %q: expected 5 fields", ErrInvalidExpression, expr)
	}
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidExpression, expr, err)
	}
	return sched, nil
}

// Iterator обходит срабатывания выражения относительно курсора.
//
// Next возвращает первое срабатывание строго после курсора и
// переносит курсор на него. Prev возвращает последнее срабатывание
// не позже курсора и переносит курсор сразу перед ним, так что
// повторные вызовы Prev идут назад во времени.
type Iterator struct {
	sched  cron.Schedule
	loc    *time.Location
	cursor time.Time
}

// Next возвращает следующее срабатывание.
func (it *Iterator) Next() (time.Time, error) {
	next := it.sched.Next(it.cursor)
	if next.IsZero() {
		return time.Time{}, ErrExhausted
	}
	it.cursor = next
	return next, nil
}

// Prev возвращает предыдущее срабатывание.
//
// robfig/cron умеет только Next, поэтому Prev ищет точку lo, для которой
// Next(lo) <= курсор: окно назад удваивается от минуты до prevHorizon,
// затем граница сужается бинарным поиском до минуты. Срабатывания
// приходятся на целые минуты, так что Next(lo) — искомое время.
func (it *Iterator) Prev() (time.Time, error) {
	target := it.cursor
	firesBy := func(from time.Time) bool {
		n := it.sched.Next(from)
		return !n.IsZero() && !n.After(target)
	}

	var lo time.Time
	found := false
	for window := time.Minute; ; window *= 2 {
		if window > prevHorizon {
			window = prevHorizon
		}
		candidate := target.Add(-window)
		if firesBy(candidate) {
			lo = candidate
			found = true
			break
		}
		if window == prevHorizon {
			break
		}
	}
	if !found {
		return time.Time{}, ErrExhausted
	}

	hi := target
	for hi.Sub(lo) > time.Minute {
		mid := lo.Add(hi.Sub(lo) / 2)
		if firesBy(mid) {
			lo = mid
		} else {
			hi = mid
		}
	}

	prev := it.sched.Next(lo).In(it.loc)
	it.cursor = prev.Add(-time.Nanosecond)
	return prev, nil
}
