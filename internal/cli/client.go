package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// ScheduleResponse — schedule из API.
type ScheduleResponse struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	Name        string `json:"name"`
	Prompt      string `json:"prompt"`
	CronExpr    string `json:"cron_expr"`
	Description string `json:"description"`
	WebhookURL  string `json:"webhook_url"`
	Enabled     bool   `json:"enabled"`
	LastRunAt   string `json:"last_run_at,omitempty"`
	NextRunAt   string `json:"next_run_at,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// RunResponse — run из API.
type RunResponse struct {
	ID            string `json:"id"`
	ScheduleID    string `json:"schedule_id"`
	Status        string `json:"status"`
	StartedAt     string `json:"started_at"`
	FinishedAt    string `json:"finished_at,omitempty"`
	DurationMs    int64  `json:"duration_ms,omitempty"`
	Summary       string `json:"summary,omitempty"`
	Error         string `json:"error,omitempty"`
	WebhookStatus *int   `json:"webhook_status,omitempty"`
}

// OccurrenceResponse — срабатывание из API.
type OccurrenceResponse struct {
	ScheduleID  string `json:"schedule_id"`
	Name        string `json:"name"`
	CronExpr    string `json:"cron_expr"`
	Description string `json:"description"`
	At          string `json:"at"`
}

// CalendarResponse — проекция месяца.
type CalendarResponse struct {
	Month       string               `json:"month"`
	Timezone    string               `json:"timezone"`
	Occurrences []OccurrenceResponse `json:"occurrences"`
}

// PresetResponse — пресет расписания.
type PresetResponse struct {
	ID       string `json:"id"`
	Template string `json:"template"`
	Label    string `json:"label"`
}

// SweepResult — итог одного schedule в sweep.
type SweepResult struct {
	ScheduleID string `json:"schedule_id"`
	Name       string `json:"name"`
	Succeeded  bool   `json:"succeeded"`
	RunID      string `json:"run_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// SweepResponse — отчёт sweep.
type SweepResponse struct {
	Skipped  bool          `json:"skipped"`
	Checked  int           `json:"checked"`
	Executed int           `json:"executed"`
	Results  []SweepResult `json:"results"`
}

// --- Request types ---

// CreateScheduleRequest — создание schedule.
type CreateScheduleRequest struct {
	OwnerID    string `json:"owner_id"`
	Name       string `json:"name"`
	Prompt     string `json:"prompt"`
	WebhookURL string `json:"webhook_url"`
	CronExpr   string `json:"cron_expr,omitempty"`
	Preset     string `json:"preset,omitempty"`
	Time       string `json:"time,omitempty"`
	Enabled    *bool  `json:"enabled,omitempty"`
}

// ListSchedulesOpts — параметры фильтрации schedules.
type ListSchedulesOpts struct {
	OwnerID string
	Enabled *bool
	Limit   int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError — ошибка, которую вернул API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// --- Client ---

// Client — HTTP-клиент для Cadence API.
type Client struct {
	baseURL    string
	sweepToken string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL, sweepToken string) *Client {
	return &Client{
		baseURL:    baseURL,
		sweepToken: sweepToken,
		httpClient: &http.Client{Timeout: 5 * time.Minute}, // sweep синхронный и может быть долгим
	}
}

// --- Schedules ---

// ListSchedules возвращает schedules.
func (c *Client) ListSchedules(ctx context.Context, opts ListSchedulesOpts) ([]ScheduleResponse, error) {
	params := url.Values{}
	if opts.OwnerID != "" {
		params.Set("owner_id", opts.OwnerID)
	}
	if opts.Enabled != nil {
		params.Set("enabled", strconv.FormatBool(*opts.Enabled))
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}

	var schedules []ScheduleResponse
	err := c.get(ctx, "/api/v1/schedules", params, &schedules)
	return schedules, err
}

// CreateSchedule создаёт schedule.
func (c *Client) CreateSchedule(ctx context.Context, req CreateScheduleRequest) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.send(ctx, http.MethodPost, "/api/v1/schedules", req, &schedule)
	return &schedule, err
}

// GetSchedule возвращает schedule по ID.
func (c *Client) GetSchedule(ctx context.Context, id string) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.get(ctx, "/api/v1/schedules/"+url.PathEscape(id), nil, &schedule)
	return &schedule, err
}

// DeleteSchedule удаляет schedule.
func (c *Client) DeleteSchedule(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/api/v1/schedules/"+url.PathEscape(id), nil, nil)
}

// SetScheduleEnabled включает или выключает schedule.
func (c *Client) SetScheduleEnabled(ctx context.Context, id string, enabled bool) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	body := map[string]bool{"enabled": enabled}
	err := c.send(ctx, http.MethodPut, "/api/v1/schedules/"+url.PathEscape(id)+"/enabled", body, &schedule)
	return &schedule, err
}

// ListOccurrences возвращает ближайшие срабатывания schedule.
func (c *Client) ListOccurrences(ctx context.Context, id string, days int) ([]OccurrenceResponse, error) {
	params := url.Values{}
	if days > 0 {
		params.Set("days", strconv.Itoa(days))
	}
	var occs []OccurrenceResponse
	err := c.get(ctx, "/api/v1/schedules/"+url.PathEscape(id)+"/occurrences", params, &occs)
	return occs, err
}

// --- Runs ---

// ListRuns возвращает историю schedule.
func (c *Client) ListRuns(ctx context.Context, scheduleID string, limit int) ([]RunResponse, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var runs []RunResponse
	err := c.get(ctx, "/api/v1/schedules/"+url.PathEscape(scheduleID)+"/runs", params, &runs)
	return runs, err
}

// GetRun возвращает run по ID.
func (c *Client) GetRun(ctx context.Context, id string) (*RunResponse, error) {
	var run RunResponse
	err := c.get(ctx, "/api/v1/runs/"+url.PathEscape(id), nil, &run)
	return &run, err
}

// --- Calendar, presets, sweeps ---

// Calendar возвращает проекцию месяца ("" — текущий).
func (c *Client) Calendar(ctx context.Context, ownerID, month string) (*CalendarResponse, error) {
	params := url.Values{"owner_id": {ownerID}}
	if month != "" {
		params.Set("month", month)
	}
	var cal CalendarResponse
	err := c.get(ctx, "/api/v1/calendar", params, &cal)
	return &cal, err
}

// Presets возвращает каталог пресетов.
func (c *Client) Presets(ctx context.Context) ([]PresetResponse, error) {
	var presets []PresetResponse
	err := c.get(ctx, "/api/v1/presets", nil, &presets)
	return presets, err
}

// Sweep запускает sweep. Нулевой at — текущее время сервера.
func (c *Client) Sweep(ctx context.Context, at time.Time) (*SweepResponse, error) {
	body := map[string]any{}
	if !at.IsZero() {
		body["at"] = at.UTC().Format(time.RFC3339)
	}
	var report SweepResponse
	err := c.send(ctx, http.MethodPost, "/api/v1/sweeps", body, &report)
	return &report, err
}

// --- HTTP helpers ---

func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}
	return c.send(ctx, http.MethodGet, path, nil, result)
}

// send выполняет запрос и разворачивает {"data": ...} в result.
// Списочные ответы имеют ту же обёртку, total игнорируется.
func (c *Client) send(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.sweepToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.sweepToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkError(resp); err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNoContent || result == nil {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return json.Unmarshal(dr.Data, result)
}

func checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode}
	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
		apiErr.Code = er.Error.Code
		apiErr.Message = er.Error.Message
	}
	return apiErr
}
