package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/syncsphere/server/internal/api/respond"
	"github.com/syncsphere/server/internal/api/validate"
	"github.com/syncsphere/server/internal/services"
)

// ReportHandler exposes read-side rollups.
type ReportHandler struct {
	svc *services.ReportService
}

func NewReportHandler(svc *services.ReportService) *ReportHandler { return &ReportHandler{svc: svc} }

// FocusAreaReport GET /api/users/{userId}/reports/focus-areas?at=
// Aggregates the user day containing at (default: now).
func (h *ReportHandler) FocusAreaReport(w http.ResponseWriter, r *http.Request) {
	at := time.Now().UTC()
	if v := r.URL.Query().Get("at"); v != "" {
		t, err := validate.RFC3339("at", v)
		if err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
		at = t
	}
	report, err := h.svc.FocusAreaReportAt(r.Context(), mux.Vars(r)["userId"], at)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, report)
}

// ListSegments GET /api/users/{userId}/segments?from=&to=
func (h *ReportHandler) ListSegments(w http.ResponseWriter, r *http.Request) {
	var from, to *time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := validate.RFC3339("from", v)
		if err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
		from = &t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := validate.RFC3339("to", v)
		if err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
		to = &t
	}
	segs, err := h.svc.ListSegments(r.Context(), mux.Vars(r)["userId"], from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"segments": segs, "count": len(segs)})
}
