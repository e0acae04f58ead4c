package api

import (
	"net/http"
)

// ListScheduleRuns возвращает историю выполнения schedule, новые сверху.
// GET /api/v1/schedules/{id}/runs?limit=...
func (h *Handler) ListScheduleRuns(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "invalid schedule id")
	if !ok {
		return
	}

	// 404 для несуществующего schedule, а не пустой список
	if _, err := h.schedules.GetByID(r.Context(), id); HandleRepoError(w, h.log(r), err, "schedule not found") {
		return
	}

	limit := min(parseIntDefault(r.URL.Query().Get("limit"), 50), 500)

	runs, err := h.runs.ListBySchedule(r.Context(), id, limit)
	if HandleRepoError(w, h.log(r), err, "") {
		return
	}

	result := make([]RunResponse, len(runs))
	for i := range runs {
		result[i] = RunFromDomain(&runs[i])
	}

	List(w, result, len(result))
}

// GetRun возвращает run по ID.
// GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "invalid run id")
	if !ok {
		return
	}

	run, err := h.runs.GetByID(r.Context(), id)
	if HandleRepoError(w, h.log(r), err, "run not found") {
		return
	}

	Success(w, RunFromDomain(run))
}
