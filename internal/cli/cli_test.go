package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
)

type recorded struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]any
}

// fakeAPI отвечает заранее заданными телами по "METHOD PATH".
type fakeAPI struct {
	t         *testing.T
	responses map[string]fakeResponse

	mu       sync.Mutex
	requests []recorded
}

type fakeResponse struct {
	status int
	body   string
}

func newFakeAPI(t *testing.T, responses map[string]fakeResponse) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{t: t, responses: responses}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, srv
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recorded{
		method: r.Method,
		path:   r.URL.Path,
		query:  r.URL.RawQuery,
		auth:   r.Header.Get("Authorization"),
	}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		if err := json.Unmarshal(data, &rec.body); err != nil {
			f.t.Errorf("request body is not JSON: %s", data)
		}
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()

	resp, ok := f.responses[r.Method+" "+r.URL.Path]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"code":"NOT_FOUND","message":"not found"}}`)
		return
	}
	if resp.status == 0 {
		resp.status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	_, _ = io.WriteString(w, resp.body)
}

func (f *fakeAPI) last() recorded {
	f.t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		f.t.Fatal("no requests recorded")
	}
	return f.requests[len(f.requests)-1]
}

// execute запускает команду так же, как cmd/cadence-cli, и возвращает stdout и stderr.
func execute(t *testing.T, baseURL, token string, jsonMode bool, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	clientFn := func() *Client { return NewClient(baseURL, token) }
	outputFn := func() *Output { return NewOutputTo(jsonMode, &stdout, &stderr) }

	root := &cobra.Command{Use: "cadence", SilenceUsage: true, SilenceErrors: true}
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.AddCommand(
		NewScheduleCmd(clientFn, outputFn),
		NewRunCmd(clientFn, outputFn),
		NewCalendarCmd(clientFn, outputFn),
		NewPresetsCmd(clientFn, outputFn),
		NewSweepCmd(clientFn, outputFn),
	)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

const scheduleJSON = `{"id":"5b0c","owner_id":"u1","name":"digest","prompt":"Summarize","cron_expr":"0 9 * * 1",` +
	`"description":"Every Monday at 09:00","webhook_url":"https://hooks.example.com/x","enabled":true,` +
	`"next_run_at":"2026-10-26T09:00:00Z","created_at":"2026-10-01T00:00:00Z"}`

func TestScheduleList(t *testing.T) {
	api, srv := newFakeAPI(t, map[string]fakeResponse{
		"GET /api/v1/schedules": {body: `{"data":[` + scheduleJSON + `],"total":1}`},
	})

	stdout, _, err := execute(t, srv.URL, "", false, "schedule", "list", "--owner", "u1", "--enabled=false", "--limit", "5")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	req := api.last()
	if req.query != "enabled=false&limit=5&owner_id=u1" {
		t.Errorf("query = %q", req.query)
	}
	for _, want := range []string{"NAME", "digest", "0 9 * * 1", "Every Monday at 09:00", "2026-10-26T09:00:00Z"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
}

func TestScheduleListWithoutEnabledFlag(t *testing.T) {
	api, srv := newFakeAPI(t, map[string]fakeResponse{
		"GET /api/v1/schedules": {body: `{"data":[]}`},
	})

	if _, _, err := execute(t, srv.URL, "", false, "schedule", "list"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if q := api.last().query; q != "" {
		t.Errorf("query = %q, want empty", q)
	}
}

func TestScheduleCreateWithPreset(t *testing.T) {
	api, srv := newFakeAPI(t, map[string]fakeResponse{
		"POST /api/v1/schedules": {status: http.StatusCreated, body: `{"data":` + scheduleJSON + `}`},
	})

	stdout, stderr, err := execute(t, srv.URL, "", true,
		"schedule", "create",
		"--owner", "u1", "--name", "digest", "--prompt", "Summarize",
		"--webhook", "https://hooks.example.com/x",
		"--preset", "weekly_monday", "--time", "9am", "--disabled",
	)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	body := api.last().body
	if body["preset"] != "weekly_monday" || body["time"] != "9am" {
		t.Errorf("body = %v", body)
	}
	if _, ok := body["cron_expr"]; ok {
		t.Errorf("cron_expr must be omitted, body = %v", body)
	}
	if body["enabled"] != false {
		t.Errorf("enabled = %v, want false", body["enabled"])
	}
	if !strings.Contains(stderr, "Schedule created: 5b0c") {
		t.Errorf("stderr = %q", stderr)
	}

	var got ScheduleResponse
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	if got.CronExpr != "0 9 * * 1" {
		t.Errorf("cron_expr = %q", got.CronExpr)
	}
}

func TestScheduleCreateRequiresExpression(t *testing.T) {
	api, srv := newFakeAPI(t, nil)

	_, _, err := execute(t, srv.URL, "", false,
		"schedule", "create",
		"--owner", "u1", "--name", "digest", "--prompt", "p", "--webhook", "https://x",
	)
	if err == nil || !strings.Contains(err.Error(), "--cron or --preset") {
		t.Fatalf("err = %v", err)
	}
	if len(api.requests) != 0 {
		t.Errorf("no request expected, got %d", len(api.requests))
	}
}

func TestScheduleCreateCronAndPresetExclusive(t *testing.T) {
	_, srv := newFakeAPI(t, nil)

	_, _, err := execute(t, srv.URL, "", false,
		"schedule", "create",
		"--owner", "u1", "--name", "digest", "--prompt", "p", "--webhook", "https://x",
		"--cron", "0 9 * * *", "--preset", "daily",
	)
	if err == nil {
		t.Fatal("expected error for --cron with --preset")
	}
}

func TestScheduleShowAPIError(t *testing.T) {
	_, srv := newFakeAPI(t, nil)

	_, _, err := execute(t, srv.URL, "", false, "schedule", "show", "missing")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Code != "NOT_FOUND" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestScheduleShow(t *testing.T) {
	_, srv := newFakeAPI(t, map[string]fakeResponse{
		"GET /api/v1/schedules/5b0c": {body: `{"data":` + scheduleJSON + `}`},
	})

	stdout, _, err := execute(t, srv.URL, "", false, "schedule", "show", "5b0c")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, want := range []string{"Owner:", "u1", "Last run:", "Next run:", "2026-10-26T09:00:00Z"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
}

func TestScheduleToggleAndDelete(t *testing.T) {
	api, srv := newFakeAPI(t, map[string]fakeResponse{
		"PUT /api/v1/schedules/5b0c/enabled": {body: `{"data":` + scheduleJSON + `}`},
		"DELETE /api/v1/schedules/5b0c":      {status: http.StatusNoContent},
	})

	_, stderr, err := execute(t, srv.URL, "", false, "schedule", "disable", "5b0c")
	if err != nil {
		t.Fatalf("disable: %v", err)
	}
	if api.last().body["enabled"] != false {
		t.Errorf("body = %v", api.last().body)
	}
	if !strings.Contains(stderr, "Schedule disabled: 5b0c") {
		t.Errorf("stderr = %q", stderr)
	}

	if _, _, err := execute(t, srv.URL, "", false, "schedule", "enable", "5b0c"); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if api.last().body["enabled"] != true {
		t.Errorf("body = %v", api.last().body)
	}

	_, stderr, err = execute(t, srv.URL, "", false, "schedule", "delete", "5b0c")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(stderr, "Schedule deleted: 5b0c") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestScheduleRunsAndRunShow(t *testing.T) {
	runJSON := `{"id":"r1","schedule_id":"5b0c","status":"completed","started_at":"2026-10-19T09:00:00Z",` +
		`"finished_at":"2026-10-19T09:00:02Z","duration_ms":2000,"summary":"3 unread","webhook_status":200}`
	api, srv := newFakeAPI(t, map[string]fakeResponse{
		"GET /api/v1/schedules/5b0c/runs": {body: `{"data":[` + runJSON + `],"total":1}`},
		"GET /api/v1/runs/r1":             {body: `{"data":` + runJSON + `}`},
	})

	stdout, _, err := execute(t, srv.URL, "", false, "schedule", "runs", "5b0c", "--limit", "10")
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if api.last().query != "limit=10" {
		t.Errorf("query = %q", api.last().query)
	}
	for _, want := range []string{"completed", "2000", "200"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}

	stdout, _, err = execute(t, srv.URL, "", false, "run", "show", "r1")
	if err != nil {
		t.Fatalf("run show: %v", err)
	}
	if !strings.Contains(stdout, "3 unread") || !strings.Contains(stdout, "Error:") {
		t.Errorf("stdout = %s", stdout)
	}
}

func TestScheduleNext(t *testing.T) {
	api, srv := newFakeAPI(t, map[string]fakeResponse{
		"GET /api/v1/schedules/5b0c/occurrences": {body: `{"data":[` +
			`{"schedule_id":"5b0c","name":"digest","cron_expr":"0 9 * * 1","description":"Every Monday at 09:00","at":"2026-10-26T09:00:00Z"}` +
			`],"total":1}`},
	})

	stdout, _, err := execute(t, srv.URL, "", false, "schedule", "next", "5b0c", "--days", "7")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if api.last().query != "days=7" {
		t.Errorf("query = %q", api.last().query)
	}
	if !strings.Contains(stdout, "2026-10-26T09:00:00Z") {
		t.Errorf("stdout = %s", stdout)
	}
}

func TestCalendar(t *testing.T) {
	api, srv := newFakeAPI(t, map[string]fakeResponse{
		"GET /api/v1/calendar": {body: `{"data":{"month":"2026-10","timezone":"UTC","occurrences":[` +
			`{"schedule_id":"5b0c","name":"digest","at":"2026-10-05T09:00:00Z"},` +
			`{"schedule_id":"5b0c","name":"digest","at":"2026-10-12T09:00:00Z"}]}}`},
	})

	stdout, stderr, err := execute(t, srv.URL, "", false, "calendar", "--owner", "u1", "--month", "2026-10")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if api.last().query != "month=2026-10&owner_id=u1" {
		t.Errorf("query = %q", api.last().query)
	}
	if strings.Count(stdout, "digest") != 2 {
		t.Errorf("stdout = %s", stdout)
	}
	if !strings.Contains(stderr, "2026-10 (UTC): 2 occurrences") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestCalendarValidatesMonth(t *testing.T) {
	api, srv := newFakeAPI(t, nil)

	_, _, err := execute(t, srv.URL, "", false, "calendar", "--owner", "u1", "--month", "October")
	if err == nil || !strings.Contains(err.Error(), "YYYY-MM") {
		t.Fatalf("err = %v", err)
	}
	if len(api.requests) != 0 {
		t.Errorf("no request expected")
	}
}

func TestPresets(t *testing.T) {
	_, srv := newFakeAPI(t, map[string]fakeResponse{
		"GET /api/v1/presets": {body: `{"data":[{"id":"daily","template":"M H * * *","label":"Daily at 09:00"}],"total":1}`},
	})

	stdout, _, err := execute(t, srv.URL, "", false, "presets")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(stdout, "Daily at 09:00") {
		t.Errorf("stdout = %s", stdout)
	}
}

func TestSweep(t *testing.T) {
	api, srv := newFakeAPI(t, map[string]fakeResponse{
		"POST /api/v1/sweeps": {body: `{"data":{"skipped":false,"checked":3,"executed":2,"results":[` +
			`{"schedule_id":"a","name":"ok","succeeded":true,"run_id":"r1"},` +
			`{"schedule_id":"b","name":"bad","succeeded":false,"error":"engine down"}]}}`},
	})

	stdout, stderr, err := execute(t, srv.URL, "s3cret", false, "sweep", "--at", "2026-10-19T09:01:00Z")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	req := api.last()
	if req.auth != "Bearer s3cret" {
		t.Errorf("Authorization = %q", req.auth)
	}
	if req.body["at"] != "2026-10-19T09:01:00Z" {
		t.Errorf("body = %v", req.body)
	}
	if !strings.Contains(stdout, "engine down") || !strings.Contains(stdout, "failed") {
		t.Errorf("stdout = %s", stdout)
	}
	if !strings.Contains(stderr, "Checked 3, executed 2") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestSweepSkipped(t *testing.T) {
	api, srv := newFakeAPI(t, map[string]fakeResponse{
		"POST /api/v1/sweeps": {body: `{"data":{"skipped":true,"checked":0,"executed":0,"results":null}}`},
	})

	stdout, stderr, err := execute(t, srv.URL, "s3cret", false, "sweep")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, ok := api.last().body["at"]; ok {
		t.Errorf("at must be omitted, body = %v", api.last().body)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want empty", stdout)
	}
	if !strings.Contains(stderr, "skipped") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestSweepUnauthorized(t *testing.T) {
	_, srv := newFakeAPI(t, map[string]fakeResponse{
		"POST /api/v1/sweeps": {status: http.StatusUnauthorized, body: `{"error":{"code":"UNAUTHORIZED","message":"invalid token"}}`},
	})

	_, _, err := execute(t, srv.URL, "wrong", false, "sweep")
	if err == nil || err.Error() != "UNAUTHORIZED: invalid token" {
		t.Fatalf("err = %v", err)
	}
}

func TestSweepInvalidAt(t *testing.T) {
	_, srv := newFakeAPI(t, nil)

	_, _, err := execute(t, srv.URL, "", false, "sweep", "--at", "tomorrow")
	if err == nil || !strings.Contains(err.Error(), "RFC3339") {
		t.Fatalf("err = %v", err)
	}
}

func TestAPIErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL, "").Presets(context.Background())
	if err == nil || err.Error() != "API error: HTTP 502" {
		t.Fatalf("err = %v", err)
	}
}

func TestOutputTable(t *testing.T) {
	var buf bytes.Buffer
	out := NewOutputTo(false, &buf, io.Discard)

	out.Table([]string{"ID", "NAME"}, [][]string{{"1", "alpha"}, {"22", "b"}})

	want := "ID  NAME\n--  ----\n1   alpha\n22  b\n"
	if buf.String() != want {
		t.Errorf("table =\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestOutputJSONMode(t *testing.T) {
	var buf bytes.Buffer
	out := NewOutputTo(true, &buf, io.Discard)

	out.Print([]string{"ID"}, [][]string{{"1"}}, map[string]int{"id": 1})

	if strings.TrimSpace(buf.String()) != "{\n  \"id\": 1\n}" {
		t.Errorf("json = %q", buf.String())
	}
}
