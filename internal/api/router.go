package api

import (
	"github.com/gorilla/mux"

	"github.com/syncsphere/server/internal/api/recovery"
	"github.com/syncsphere/server/internal/services"
)

// NewRouter wires HTTP routes to handlers.
func NewRouter(users *services.UserService, timer *services.TimerService, reports *services.ReportService) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware)

	// Users and focus areas
	userHandler := NewUserHandler(users)
	root.HandleFunc("/api/users", userHandler.CreateUser).Methods("POST")
	root.HandleFunc("/api/users/{userId}", userHandler.GetUser).Methods("GET")
	root.HandleFunc("/api/users/{userId}", userHandler.DeleteUser).Methods("DELETE")
	root.HandleFunc("/api/users/{userId}/day-settings", userHandler.UpdateDaySettings).Methods("PATCH")
	root.HandleFunc("/api/users/{userId}/focus-areas", userHandler.CreateFocusArea).Methods("POST")
	root.HandleFunc("/api/users/{userId}/focus-areas", userHandler.ListFocusAreas).Methods("GET")
	root.HandleFunc("/api/users/{userId}/focus-areas/{focusAreaId}", userHandler.DeleteFocusArea).Methods("DELETE")

	// Timer
	timerHandler := NewTimerHandler(timer)
	root.HandleFunc("/api/users/{userId}/timer/segments", timerHandler.RecordSegment).Methods("POST")
	root.HandleFunc("/api/users/{userId}/timer/daily", timerHandler.UpsertDailyTotal).Methods("PUT")
	root.HandleFunc("/api/users/{userId}/timer/daily", timerHandler.ListDailyTotals).Methods("GET")
	root.HandleFunc("/api/users/{userId}/timer/start", timerHandler.StartTimer).Methods("POST")
	root.HandleFunc("/api/users/{userId}/timer/stop", timerHandler.StopTimer).Methods("POST")

	// Reports
	reportHandler := NewReportHandler(reports)
	root.HandleFunc("/api/users/{userId}/reports/focus-areas", reportHandler.FocusAreaReport).Methods("GET")
	root.HandleFunc("/api/users/{userId}/segments", reportHandler.ListSegments).Methods("GET")

	// Health
	healthHandler := NewHealthHandler()
	root.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	return root
}
