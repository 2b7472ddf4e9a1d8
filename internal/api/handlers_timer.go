package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/syncsphere/server/internal/api/respond"
	"github.com/syncsphere/server/internal/api/validate"
	"github.com/syncsphere/server/internal/model"
	"github.com/syncsphere/server/internal/services"
)

// TimerHandler is a thin HTTP transport over TimerService.
type TimerHandler struct {
	svc *services.TimerService
}

func NewTimerHandler(svc *services.TimerService) *TimerHandler { return &TimerHandler{svc: svc} }

// RecordSegment POST /api/users/{userId}/timer/segments
// A timer stop or sync event. Sessions that straddle the user's reset
// instant come back as multiple segments, one per day bucket.
func (h *TimerHandler) RecordSegment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FocusAreaID *string   `json:"focusAreaId"`
		Start       time.Time `json:"start"`
		End         time.Time `json:"end"`
		Type        string    `json:"type"`
		Label       *string   `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Chronological(req.Start, req.End); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	segs, err := h.svc.RecordSegment(r.Context(), services.RecordSegmentRequest{
		UserID:      mux.Vars(r)["userId"],
		FocusAreaID: req.FocusAreaID,
		Start:       req.Start,
		End:         req.End,
		Type:        req.Type,
		Label:       req.Label,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, map[string]interface{}{"segments": segs, "count": len(segs)})
}

// UpsertDailyTotal PUT /api/users/{userId}/timer/daily
// The simple-timer flow: overwrites one bucket wholesale.
func (h *TimerHandler) UpsertDailyTotal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Day            time.Time  `json:"day"`
		TotalSeconds   int64      `json:"totalSeconds"`
		IsRunning      bool       `json:"isRunning"`
		StartTimestamp *time.Time `json:"startTimestamp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.Day.IsZero() {
		respond.WriteBadRequest(w, "day is required")
		return
	}
	total, err := h.svc.UpsertDailyTotal(r.Context(), mux.Vars(r)["userId"], req.Day, req.TotalSeconds, req.IsRunning, req.StartTimestamp)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, total)
}

// ListDailyTotals GET /api/users/{userId}/timer/daily?from=&to=
func (h *TimerHandler) ListDailyTotals(w http.ResponseWriter, r *http.Request) {
	req := model.ListDailyTotalsRequest{UserID: mux.Vars(r)["userId"]}
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := validate.RFC3339("from", v)
		if err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
		req.From = &t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := validate.RFC3339("to", v)
		if err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
		req.To = &t
	}
	lst, err := h.svc.GetDailyTotals(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"dailyTotals": lst, "count": len(lst)})
}

// StartTimer POST /api/users/{userId}/timer/start
func (h *TimerHandler) StartTimer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		At *time.Time `json:"at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	at := time.Now().UTC()
	if req.At != nil {
		at = req.At.UTC()
	}
	total, err := h.svc.StartTimer(r.Context(), mux.Vars(r)["userId"], at)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, total)
}

// StopTimer POST /api/users/{userId}/timer/stop
func (h *TimerHandler) StopTimer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		At          *time.Time `json:"at"`
		FocusAreaID *string    `json:"focusAreaId"`
		Label       *string    `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	at := time.Now().UTC()
	if req.At != nil {
		at = req.At.UTC()
	}
	segs, err := h.svc.StopTimer(r.Context(), mux.Vars(r)["userId"], at, req.FocusAreaID, req.Label)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"segments": segs, "count": len(segs)})
}
