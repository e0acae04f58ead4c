package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shaiso/Cadence/internal/agent"
	"github.com/shaiso/Cadence/internal/domain"
	"github.com/shaiso/Cadence/internal/webhook"
)

type executorFixture struct {
	schedules *memScheduleStore
	runs      *memRunStore
	engine    *fakeEngine
	hooks     *fakeDeliverer
	events    *fakePublisher
	exec      *Executor
}

func newExecutorFixture(sched domain.Schedule, now time.Time) *executorFixture {
	f := &executorFixture{
		schedules: newMemScheduleStore(sched),
		runs:      newMemRunStore(),
		engine: &fakeEngine{resp: &agent.Response{
			Text: "You have 3 unread emails.",
			Steps: []agent.Step{
				{ToolCalls: []agent.ToolCall{{ToolName: "gmail_search"}, {ToolName: "gmail_read"}}},
				{ToolCalls: []agent.ToolCall{{ToolName: "gmail_search"}}},
			},
		}},
		hooks:  &fakeDeliverer{status: 200},
		events: &fakePublisher{},
	}
	f.exec = NewExecutor(ExecutorConfig{
		Runs:      f.runs,
		Schedules: f.schedules,
		Engine:    f.engine,
		Webhook:   f.hooks,
		Events:    f.events,
		Tools:     []string{"gmail_search", "gmail_read"},
		Now:       fixedClock(now),
	})
	return f
}

func TestExecutor_Success(t *testing.T) {
	sched := newSchedule("inbox", "0 9 * * 1")
	f := newExecutorFixture(sched, monday)

	res, err := f.exec.Execute(context.Background(), &sched)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Succeeded {
		t.Fatal("expected success")
	}

	// engine получил prompt, системную инструкцию и инструменты владельца
	if f.engine.calls() != 1 {
		t.Fatalf("expected 1 engine call, got %d", f.engine.calls())
	}
	req := f.engine.requests[0]
	if req.Prompt != sched.Prompt || req.System != SystemInstruction {
		t.Errorf("unexpected request: %+v", req)
	}
	if req.MaxSteps != agent.DefaultMaxSteps {
		t.Errorf("expected max steps %d, got %d", agent.DefaultMaxSteps, req.MaxSteps)
	}
	if req.Capabilities.OwnerID != "owner-1" || len(req.Capabilities.Tools) != 2 {
		t.Errorf("unexpected capabilities: %+v", req.Capabilities)
	}

	// webhook
	if len(f.hooks.urls) != 1 || f.hooks.urls[0] != sched.WebhookURL {
		t.Fatalf("expected one delivery to %s, got %v", sched.WebhookURL, f.hooks.urls)
	}
	env, ok := f.hooks.bodies[0].(webhook.Envelope)
	if !ok {
		t.Fatalf("expected webhook.Envelope body, got %T", f.hooks.bodies[0])
	}
	if env.JobName != "inbox" || env.Prompt != sched.Prompt || env.Response != "You have 3 unread emails." {
		t.Errorf("unexpected envelope: %+v", env)
	}
	if env.Status != "completed" {
		t.Errorf("expected status completed, got %q", env.Status)
	}
	if env.ExecutedAt != "2026-10-19T09:01:00Z" {
		t.Errorf("unexpected executed_at %q", env.ExecutedAt)
	}
	if strings.Join(env.ToolsUsed, ",") != "gmail_search,gmail_read" {
		t.Errorf("tools_used should be deduplicated in order, got %v", env.ToolsUsed)
	}

	// run
	run := f.runs.get(res.RunID)
	if run.Status != domain.RunStatusCompleted {
		t.Errorf("expected completed run, got %s", run.Status)
	}
	if run.Summary == nil || *run.Summary != "You have 3 unread emails." {
		t.Errorf("unexpected summary %v", run.Summary)
	}
	if run.WebhookStatus == nil || *run.WebhookStatus != 200 {
		t.Errorf("unexpected webhook status %v", run.WebhookStatus)
	}
	if run.FinishedAt == nil || run.Error != nil {
		t.Errorf("completed run should have finished_at and no error: %+v", run)
	}

	// last_run_at = время начала попытки
	if at, ok := f.schedules.marks[sched.ID]; !ok || !at.Equal(monday) {
		t.Errorf("expected last_run_at %s, got %s", monday, at)
	}
	if sched.LastRunAt == nil || !sched.LastRunAt.Equal(monday) {
		t.Errorf("in-memory schedule should record attempt, got %v", sched.LastRunAt)
	}

	if len(f.events.runs) != 1 || f.events.runs[0].ID != res.RunID {
		t.Errorf("expected run.finished event, got %v", f.events.runs)
	}
}

func TestExecutor_EngineFailure(t *testing.T) {
	sched := newSchedule("inbox", "0 9 * * 1")
	f := newExecutorFixture(sched, monday)
	f.engine.err = errors.New("model timeout")

	res, err := f.exec.Execute(context.Background(), &sched)
	if err != nil {
		t.Fatalf("engine failure must not be returned as error: %v", err)
	}
	if res.Succeeded {
		t.Fatal("expected failure")
	}

	run := f.runs.get(res.RunID)
	if run.Status != domain.RunStatusFailed {
		t.Errorf("expected failed run, got %s", run.Status)
	}
	if run.Error == nil || !strings.Contains(*run.Error, "model timeout") {
		t.Errorf("expected error text, got %v", run.Error)
	}
	if run.WebhookStatus != nil || run.Summary != nil {
		t.Errorf("failed run should have no webhook status and no summary: %+v", run)
	}
	if len(f.hooks.urls) != 0 {
		t.Errorf("webhook must not be called on engine failure")
	}

	// Неудачная попытка всё равно сдвигает last_run_at.
	if _, ok := f.schedules.marks[sched.ID]; !ok {
		t.Error("last_run_at must be advanced on failure")
	}
}

func TestExecutor_WebhookTransportFailure(t *testing.T) {
	sched := newSchedule("inbox", "0 9 * * 1")
	f := newExecutorFixture(sched, monday)
	f.hooks.status = webhook.StatusTransportError

	res, err := f.exec.Execute(context.Background(), &sched)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Succeeded {
		t.Fatal("webhook failure must not fail the run")
	}

	run := f.runs.get(res.RunID)
	if run.Status != domain.RunStatusCompleted {
		t.Errorf("expected completed run, got %s", run.Status)
	}
	if run.WebhookStatus == nil || *run.WebhookStatus != 0 {
		t.Errorf("expected webhook status 0, got %v", run.WebhookStatus)
	}
}

func TestExecutor_WebhookErrorStatus(t *testing.T) {
	sched := newSchedule("inbox", "0 9 * * 1")
	f := newExecutorFixture(sched, monday)
	f.hooks.status = 503

	res, _ := f.exec.Execute(context.Background(), &sched)
	run := f.runs.get(res.RunID)
	if run.Status != domain.RunStatusCompleted || *run.WebhookStatus != 503 {
		t.Errorf("expected completed run with webhook status 503, got %s / %v", run.Status, run.WebhookStatus)
	}
}

func TestExecutor_SummaryTruncated(t *testing.T) {
	sched := newSchedule("inbox", "0 9 * * 1")
	f := newExecutorFixture(sched, monday)
	long := strings.Repeat("я", 700)
	f.engine.resp = &agent.Response{Text: long}

	res, err := f.exec.Execute(context.Background(), &sched)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	run := f.runs.get(res.RunID)
	want := strings.Repeat("я", DefaultSummaryLimit) + "..."
	if run.Summary == nil || *run.Summary != want {
		t.Errorf("summary not truncated to %d runes", DefaultSummaryLimit)
	}

	// В webhook уходит полный текст.
	env := f.hooks.bodies[0].(webhook.Envelope)
	if env.Response != long {
		t.Error("webhook should carry the full response")
	}
	if env.ToolsUsed == nil {
		t.Error("tools_used should be an empty list, not null")
	}
}

func TestExecutor_CreateRunFails(t *testing.T) {
	sched := newSchedule("inbox", "0 9 * * 1")
	f := newExecutorFixture(sched, monday)
	f.runs.createErr = errStore

	_, err := f.exec.Execute(context.Background(), &sched)
	if !errors.Is(err, errStore) {
		t.Fatalf("expected store error, got %v", err)
	}
	if f.engine.calls() != 0 {
		t.Error("engine must not be called when run cannot be created")
	}
	if len(f.hooks.urls) != 0 {
		t.Error("webhook must not be called when run cannot be created")
	}
	if _, ok := f.schedules.marks[sched.ID]; ok {
		t.Error("last_run_at must not change when run cannot be created")
	}
}

func TestExecutor_FinishFails(t *testing.T) {
	sched := newSchedule("inbox", "0 9 * * 1")
	f := newExecutorFixture(sched, monday)
	f.runs.finishErr = errStore

	res, err := f.exec.Execute(context.Background(), &sched)
	if !errors.Is(err, errStore) {
		t.Fatalf("expected store error, got %v", err)
	}
	if !res.Succeeded {
		t.Error("engine succeeded, result should say so")
	}
	if _, ok := f.schedules.marks[sched.ID]; !ok {
		t.Error("last_run_at must still be advanced")
	}
}

func TestExecutor_MarkRunFails(t *testing.T) {
	sched := newSchedule("inbox", "0 9 * * 1")
	f := newExecutorFixture(sched, monday)
	f.schedules.markErr = errStore

	_, err := f.exec.Execute(context.Background(), &sched)
	if !errors.Is(err, errStore) {
		t.Fatalf("expected store error, got %v", err)
	}
	if sched.LastRunAt != nil {
		t.Error("in-memory schedule must not record attempt when store failed")
	}
}

func TestExecutor_CancelledContextStillRecords(t *testing.T) {
	sched := newSchedule("inbox", "0 9 * * 1")
	f := newExecutorFixture(sched, monday)
	f.engine.err = context.Canceled

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.exec.Execute(ctx, &sched)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if f.runs.get(res.RunID).Status != domain.RunStatusFailed {
		t.Error("cancelled attempt should be recorded as failed")
	}
	if _, ok := f.schedules.marks[sched.ID]; !ok {
		t.Error("last_run_at must be advanced")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncated", 5, "trunc..."},
		{"привет мир", 6, "привет..."},
		{"anything", 0, "anything"},
		{"", 3, ""},
	}

	for _, tt := range tests {
		if got := Truncate(tt.in, tt.limit); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestExecutor_EngineMisbehaves(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(e *fakeEngine)
		wantErr string
	}{
		{"panic", func(e *fakeEngine) { e.panics = "boom" }, "panic: boom"},
		{"nil response", func(e *fakeEngine) { e.resp = nil }, "empty response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched := newSchedule("inbox", "0 9 * * 1")
			f := newExecutorFixture(sched, monday)
			tt.setup(f.engine)

			res, err := f.exec.Execute(context.Background(), &sched)
			if err != nil {
				t.Fatalf("engine failure must not be returned as error: %v", err)
			}
			if res.Succeeded {
				t.Fatal("expected failure")
			}

			run := f.runs.get(res.RunID)
			if run.Status != domain.RunStatusFailed {
				t.Errorf("expected failed run, got %s", run.Status)
			}
			if run.Error == nil || !strings.Contains(*run.Error, tt.wantErr) ||
				!strings.Contains(*run.Error, agent.ErrEngine.Error()) {
				t.Errorf("unexpected run error: %v", run.Error)
			}
			if len(f.hooks.urls) != 0 {
				t.Error("webhook must not be called")
			}
			if got, ok := f.schedules.marks[sched.ID]; !ok || !got.Equal(monday) {
				t.Errorf("last_run_at = %v (set=%v), want %v", got, ok, monday)
			}
		})
	}
}

func TestExecutor_EngineNotCancelledWithCaller(t *testing.T) {
	sched := newSchedule("inbox", "0 9 * * 1")
	f := newExecutorFixture(sched, monday)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.exec.Execute(ctx, &sched)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(f.engine.ctxErrs) != 1 || f.engine.ctxErrs[0] != nil {
		t.Errorf("engine must see a live context, got %v", f.engine.ctxErrs)
	}
	if !res.Succeeded {
		t.Error("expected completed run")
	}
}
