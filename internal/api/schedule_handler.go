package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Cadence/internal/domain"
	"github.com/shaiso/Cadence/internal/recurrence"
	"github.com/shaiso/Cadence/internal/repo"
)

// ListSchedules возвращает список schedules с фильтрацией.
// GET /api/v1/schedules?owner_id=...&enabled=...&limit=...&offset=...
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repo.ScheduleFilter{
		OwnerID: q.Get("owner_id"),
		Limit:   parseIntDefault(q.Get("limit"), 50),
		Offset:  parseIntDefault(q.Get("offset"), 0),
	}

	if enabledStr := q.Get("enabled"); enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			BadRequest(w, "invalid enabled")
			return
		}
		filter.Enabled = &enabled
	}

	schedules, err := h.schedules.List(r.Context(), filter)
	if HandleRepoError(w, h.log(r), err, "") {
		return
	}

	now := h.now()
	result := make([]ScheduleResponse, len(schedules))
	for i := range schedules {
		result[i] = ScheduleFromDomain(&schedules[i], h.eval, now)
	}

	List(w, result, len(result))
}

// CreateSchedule создаёт schedule.
// POST /api/v1/schedules
func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	expr, msg := h.resolveExpression(req)
	if msg != "" {
		BadRequest(w, msg)
		return
	}
	if msg := validateScheduleFields(req); msg != "" {
		BadRequest(w, msg)
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	schedule := &domain.Schedule{
		ID:         uuid.New(),
		OwnerID:    strings.TrimSpace(req.OwnerID),
		Name:       strings.TrimSpace(req.Name),
		Prompt:     req.Prompt,
		CronExpr:   expr,
		WebhookURL: req.WebhookURL,
		Enabled:    enabled,
		CreatedAt:  h.now().UTC(),
	}

	if err := h.schedules.Create(r.Context(), schedule); err != nil {
		InternalError(w, h.log(r), err)
		return
	}

	h.log(r).Info("schedule created",
		"schedule_id", schedule.ID,
		"owner_id", schedule.OwnerID,
		"cron_expr", schedule.CronExpr,
	)
	Created(w, ScheduleFromDomain(schedule, h.eval, h.now()))
}

// resolveExpression выбирает cron-выражение из cron_expr или preset+time.
// Возвращает текст ошибки валидации или "".
func (h *Handler) resolveExpression(req CreateScheduleRequest) (string, string) {
	expr := strings.TrimSpace(req.CronExpr)

	switch {
	case expr != "" && req.Preset != "":
		return "", "cron_expr and preset are mutually exclusive"
	case req.Preset != "":
		preset, ok := recurrence.NormalizePreset(req.Preset)
		if !ok {
			return "", "unknown preset: " + req.Preset
		}
		built, ok := recurrence.BuildExpression(preset, req.Time)
		if !ok {
			return "", "invalid time: " + req.Time
		}
		expr = built
	case expr == "":
		return "", "either cron_expr or preset is required"
	case req.Time != "":
		return "", "time is only valid with preset"
	}

	if err := h.eval.Validate(expr); err != nil {
		return "", err.Error()
	}
	return expr, ""
}

func validateScheduleFields(req CreateScheduleRequest) string {
	switch {
	case strings.TrimSpace(req.OwnerID) == "":
		return "owner_id is required"
	case strings.TrimSpace(req.Name) == "":
		return "name is required"
	case strings.TrimSpace(req.Prompt) == "":
		return "prompt is required"
	}

	u, err := url.Parse(req.WebhookURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "webhook_url must be an absolute http(s) URL"
	}
	return ""
}

// GetSchedule возвращает schedule по ID.
// GET /api/v1/schedules/{id}
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "invalid schedule id")
	if !ok {
		return
	}

	schedule, err := h.schedules.GetByID(r.Context(), id)
	if HandleRepoError(w, h.log(r), err, "schedule not found") {
		return
	}

	Success(w, ScheduleFromDomain(schedule, h.eval, h.now()))
}

// DeleteSchedule удаляет schedule вместе с историей.
// DELETE /api/v1/schedules/{id}
func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "invalid schedule id")
	if !ok {
		return
	}

	if HandleRepoError(w, h.log(r), h.schedules.Delete(r.Context(), id), "schedule not found") {
		return
	}

	NoContent(w)
}

// SetScheduleEnabled включает или выключает schedule.
// PUT /api/v1/schedules/{id}/enabled
func (h *Handler) SetScheduleEnabled(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "invalid schedule id")
	if !ok {
		return
	}

	var req SetEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if HandleRepoError(w, h.log(r), h.schedules.SetEnabled(r.Context(), id, req.Enabled), "schedule not found") {
		return
	}

	schedule, err := h.schedules.GetByID(r.Context(), id)
	if HandleRepoError(w, h.log(r), err, "schedule not found") {
		return
	}

	Success(w, ScheduleFromDomain(schedule, h.eval, h.now()))
}

// ListScheduleOccurrences возвращает ближайшие срабатывания schedule.
// GET /api/v1/schedules/{id}/occurrences?from=RFC3339&days=N
func (h *Handler) ListScheduleOccurrences(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "invalid schedule id")
	if !ok {
		return
	}

	from := h.now()
	if s := r.URL.Query().Get("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			BadRequest(w, "invalid from, expected RFC3339")
			return
		}
		from = t
	}

	days := parseIntDefault(r.URL.Query().Get("days"), 30)
	if days < 1 || days > 366 {
		BadRequest(w, "days must be between 1 and 366")
		return
	}

	schedule, err := h.schedules.GetByID(r.Context(), id)
	if HandleRepoError(w, h.log(r), err, "schedule not found") {
		return
	}

	occs := h.projector.Project(schedule, from, from.AddDate(0, 0, days))
	List(w, OccurrencesFromDomain(occs), len(occs))
}

// pathID разбирает {id} из пути. При ошибке отвечает 400.
func pathID(w http.ResponseWriter, r *http.Request, msg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, msg)
		return uuid.Nil, false
	}
	return id, true
}

// parseIntDefault парсит неотрицательный int с дефолтным значением.
func parseIntDefault(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	return v
}
