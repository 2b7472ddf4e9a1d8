package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/syncsphere/server/internal/api/respond"
	"github.com/syncsphere/server/internal/api/validate"
	"github.com/syncsphere/server/internal/model"
	"github.com/syncsphere/server/internal/services"
)

// UserHandler is a thin HTTP transport over UserService.
type UserHandler struct {
	svc *services.UserService
}

func NewUserHandler(svc *services.UserService) *UserHandler { return &UserHandler{svc: svc} }

// CreateUser POST /api/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      string  `json:"userId"`
		Email       string  `json:"email"`
		DisplayName *string `json:"displayName"`
		TimeZone    string  `json:"timeZone"`
		ResetHour   int     `json:"resetHour"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.UserID(req.UserID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.Email(req.Email); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.ResetHour(req.ResetHour); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	u := &model.User{
		UserID:      req.UserID,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		TimeZone:    req.TimeZone,
		ResetHour:   req.ResetHour,
	}
	out, err := h.svc.CreateUser(r.Context(), u)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// GetUser GET /api/users/{userId}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.GetUser(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, u)
}

// UpdateDaySettings PATCH /api/users/{userId}/day-settings
func (h *UserHandler) UpdateDaySettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TimeZone  string `json:"timeZone"`
		ResetHour int    `json:"resetHour"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.NonEmpty("timeZone", req.TimeZone); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.ResetHour(req.ResetHour); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	u, err := h.svc.UpdateDaySettings(r.Context(), mux.Vars(r)["userId"], req.TimeZone, req.ResetHour)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, u)
}

// DeleteUser DELETE /api/users/{userId}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteUser(r.Context(), mux.Vars(r)["userId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateFocusArea POST /api/users/{userId}/focus-areas
func (h *UserHandler) CreateFocusArea(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string  `json:"name"`
		Color *string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Name(req.Name); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	fa := &model.FocusArea{UserID: mux.Vars(r)["userId"], Name: req.Name, Color: req.Color}
	out, err := h.svc.CreateFocusArea(r.Context(), fa)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListFocusAreas GET /api/users/{userId}/focus-areas
func (h *UserHandler) ListFocusAreas(w http.ResponseWriter, r *http.Request) {
	lst, err := h.svc.ListFocusAreas(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"focusAreas": lst, "count": len(lst)})
}

// DeleteFocusArea DELETE /api/users/{userId}/focus-areas/{focusAreaId}
func (h *UserHandler) DeleteFocusArea(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.svc.DeleteFocusArea(r.Context(), vars["userId"], vars["focusAreaId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
