package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cadence/internal/agent"
	"github.com/shaiso/Cadence/internal/domain"
)

var errStore = errors.New("store unavailable")

// memScheduleStore — ScheduleStore в памяти.
type memScheduleStore struct {
	mu        sync.Mutex
	schedules []domain.Schedule
	listErr   error
	markErr   error
	marks     map[uuid.UUID]time.Time
}

func newMemScheduleStore(schedules ...domain.Schedule) *memScheduleStore {
	return &memScheduleStore{schedules: schedules, marks: make(map[uuid.UUID]time.Time)}
}

func (s *memScheduleStore) ListEnabled(_ context.Context) ([]domain.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var result []domain.Schedule
	for _, sched := range s.schedules {
		if sched.Enabled {
			result = append(result, sched)
		}
	}
	return result, nil
}

func (s *memScheduleStore) MarkRun(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return s.markErr
	}
	s.marks[id] = at
	for i := range s.schedules {
		if s.schedules[i].ID == id {
			s.schedules[i].LastRunAt = &at
		}
	}
	return nil
}

// memRunStore — RunStore в памяти.
type memRunStore struct {
	mu        sync.Mutex
	runs      map[uuid.UUID]domain.Run
	created   []uuid.UUID
	createErr error
	finishErr error
}

func newMemRunStore() *memRunStore {
	return &memRunStore{runs: make(map[uuid.UUID]domain.Run)}
}

func (s *memRunStore) Create(_ context.Context, run *domain.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.runs[run.ID] = *run
	s.created = append(s.created, run.ID)
	return nil
}

func (s *memRunStore) Finish(_ context.Context, run *domain.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finishErr != nil {
		return s.finishErr
	}
	s.runs[run.ID] = *run
	return nil
}

func (s *memRunStore) get(id uuid.UUID) domain.Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

// fakeEngine — Engine с детерминированным ответом.
type fakeEngine struct {
	mu       sync.Mutex
	resp     *agent.Response
	err      error
	panics   any // != nil — Invoke паникует этим значением
	requests []agent.Request
	ctxErrs  []error
}

func (e *fakeEngine) Invoke(ctx context.Context, req agent.Request) (*agent.Response, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requests = append(e.requests, req)
	e.ctxErrs = append(e.ctxErrs, ctx.Err())
	if e.panics != nil {
		panic(e.panics)
	}
	if e.err != nil {
		return nil, e.err
	}
	return e.resp, nil
}

func (e *fakeEngine) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.requests)
}

// fakeDeliverer — Deliverer, запоминающий доставки.
type fakeDeliverer struct {
	mu     sync.Mutex
	status int
	urls   []string
	bodies []any
}

func (d *fakeDeliverer) Post(_ context.Context, url string, body any) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.urls = append(d.urls, url)
	d.bodies = append(d.bodies, body)
	return d.status
}

// fakePublisher — RunEventPublisher.
type fakePublisher struct {
	mu   sync.Mutex
	runs []domain.Run
	err  error
}

func (p *fakePublisher) PublishRunFinished(_ context.Context, run *domain.Run) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runs = append(p.runs, *run)
	return p.err
}

// fixedClock возвращает функцию времени, которая всегда отдаёт t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newSchedule(name, expr string) domain.Schedule {
	return domain.Schedule{
		ID:         uuid.New(),
		OwnerID:    "owner-1",
		Name:       name,
		Prompt:     "summarize my inbox",
		CronExpr:   expr,
		WebhookURL: "https://hooks.example.com/" + name,
		Enabled:    true,
		CreatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func mustEvaluator(tz string) *Evaluator {
	eval, err := NewEvaluator(tz)
	if err != nil {
		panic(err)
	}
	return eval
}
