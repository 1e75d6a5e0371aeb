package handlers

import (
	"net/http"
	"time"
)

const reportDateLayout = "2006-01-02"

// defaultReportLookback bounds the report listing when the caller gives no
// range.
const defaultReportLookback = 12 * 7 * 24 * time.Hour

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	end := time.Now().UTC()
	start := end.Add(-defaultReportLookback)
	if raw := query.Get("start"); raw != "" {
		parsed, err := time.Parse(reportDateLayout, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid start date. Use YYYY-MM-DD")
			return
		}
		start = parsed
	}
	if raw := query.Get("end"); raw != "" {
		parsed, err := time.Parse(reportDateLayout, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid end date. Use YYYY-MM-DD")
			return
		}
		end = parsed
	}

	reports, err := h.reports.ListReports(r.Context(), start, end)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, reports)
}

func (h *Handler) RunReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.GenerateWeeklyReport(r.Context(), time.Now().UTC())
	if err != nil {
		h.log.Errorf("report run failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, report)
}
