package scheduler

import (
	"sort"
	"time"

	"github.com/shaiso/Cadence/internal/domain"
	"github.com/shaiso/Cadence/internal/recurrence"
)

// DefaultMaxOccurrences — предел проекции на один schedule.
const DefaultMaxOccurrences = 40

// Projector перечисляет срабатывания schedules в диапазоне [start, end)
// для календаря. Ничего не выполняет и ничего не пишет, безопасен
// для конкурентного использования.
type Projector struct {
	eval           *Evaluator
	maxOccurrences int
}

// NewProjector создаёт Projector. maxOccurrences <= 0 означает DefaultMaxOccurrences.
func NewProjector(eval *Evaluator, maxOccurrences int) *Projector {
	if maxOccurrences <= 0 {
		maxOccurrences = DefaultMaxOccurrences
	}
	return &Projector{eval: eval, maxOccurrences: maxOccurrences}
}

// Project возвращает срабатывания schedule в [start, end) по возрастанию.
//
// Выключенный schedule и невалидное выражение дают пустой результат:
// один сломанный schedule не должен ломать весь календарь.
func (p *Projector) Project(s *domain.Schedule, start, end time.Time) []domain.Occurrence {
	if s == nil || !s.Enabled || !start.Before(end) {
		return nil
	}

	it, err := p.eval.Parse(s.CronExpr, start.Add(-time.Minute))
	if err != nil {
		return nil
	}

	description := recurrence.Describe(s.CronExpr)

	var result []domain.Occurrence
	for len(result) < p.maxOccurrences {
		at, err := it.Next()
		if err != nil {
			break
		}
		if !at.Before(end) {
			break
		}
		if at.Before(start) {
			continue
		}
		result = append(result, domain.Occurrence{
			ScheduleID:  s.ID,
			Name:        s.Name,
			CronExpr:    s.CronExpr,
			Description: description,
			At:          at,
		})
	}
	return result
}

// ProjectMonth проецирует несколько schedules на календарный месяц
// в зоне Evaluator'а и объединяет результат по времени.
func (p *Projector) ProjectMonth(schedules []domain.Schedule, year int, month time.Month) []domain.Occurrence {
	start := time.Date(year, month, 1, 0, 0, 0, 0, p.eval.Location())
	end := start.AddDate(0, 1, 0)

	var merged []domain.Occurrence
	for i := range schedules {
		merged = append(merged, p.Project(&schedules[i], start, end)...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].At.Before(merged[j].At)
	})
	return merged
}
