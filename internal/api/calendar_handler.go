package api

import (
	"net/http"
	"time"

	"github.com/shaiso/Cadence/internal/recurrence"
	"github.com/shaiso/Cadence/internal/repo"
)

// calendarScheduleLimit — сколько schedules владельца учитывается в календаре.
const calendarScheduleLimit = 1000

// GetCalendar проецирует включённые schedules владельца на месяц.
// GET /api/v1/calendar?owner_id=...&month=YYYY-MM
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		BadRequest(w, "owner_id is required")
		return
	}

	loc := h.eval.Location()
	month := h.now().In(loc)
	if s := r.URL.Query().Get("month"); s != "" {
		t, err := time.ParseInLocation("2006-01", s, loc)
		if err != nil {
			BadRequest(w, "invalid month, expected YYYY-MM")
			return
		}
		month = t
	}

	enabled := true
	schedules, err := h.schedules.List(r.Context(), repo.ScheduleFilter{
		OwnerID: ownerID,
		Enabled: &enabled,
		Limit:   calendarScheduleLimit,
	})
	if HandleRepoError(w, h.log(r), err, "") {
		return
	}

	occs := h.projector.ProjectMonth(schedules, month.Year(), month.Month())

	Success(w, CalendarResponse{
		Month:       month.Format("2006-01"),
		Timezone:    loc.String(),
		Occurrences: OccurrencesFromDomain(occs),
	})
}

// ListPresets возвращает каталог пресетов расписаний.
// GET /api/v1/presets
func (h *Handler) ListPresets(w http.ResponseWriter, _ *http.Request) {
	presets := recurrence.Presets()
	List(w, presets, len(presets))
}
