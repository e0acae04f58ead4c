package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
)

// TriggerSweep выполняет sweep синхронно и возвращает отчёт.
// POST /api/v1/sweeps (Authorization: Bearer <SWEEP_TOKEN>)
func (h *Handler) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	if h.sweeps == nil {
		Unavailable(w, "sweeps are not enabled on this instance")
		return
	}

	var req TriggerSweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(w, "invalid request body")
		return
	}

	var at time.Time
	if req.At != nil {
		at = *req.At
	}

	out, err := h.sweeps.Trigger(r.Context(), at, "http")
	if err != nil {
		InternalError(w, h.log(r), err)
		return
	}

	resp := SweepResponse{Skipped: out.Skipped}
	if out.Report != nil {
		resp.Checked = out.Report.Checked
		resp.Executed = out.Report.Executed
		resp.Results = out.Report.Results
	}
	Success(w, resp)
}
