package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)
	route := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, chain(fn))
	}

	// Schedules
	route("GET /api/v1/schedules", h.ListSchedules)
	route("POST /api/v1/schedules", h.CreateSchedule)
	route("GET /api/v1/schedules/{id}", h.GetSchedule)
	route("DELETE /api/v1/schedules/{id}", h.DeleteSchedule)
	route("PUT /api/v1/schedules/{id}/enabled", h.SetScheduleEnabled)
	route("GET /api/v1/schedules/{id}/occurrences", h.ListScheduleOccurrences)

	// Runs
	route("GET /api/v1/schedules/{id}/runs", h.ListScheduleRuns)
	route("GET /api/v1/runs/{id}", h.GetRun)

	// Calendar и пресеты
	route("GET /api/v1/calendar", h.GetCalendar)
	route("GET /api/v1/presets", h.ListPresets)

	// Внешний триггер
	mux.Handle("POST /api/v1/sweeps", chain(BearerAuth(h.sweepToken)(http.HandlerFunc(h.TriggerSweep))))
}
