package scheduling

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/YeyeJames/jiale15/pkg/api"
	"github.com/YeyeJames/jiale15/pkg/types"
)

// RegisterRoutes mounts the schedule endpoints. Front desk staff use all
// of them, so none is admin only.
func (s *Service) RegisterRoutes(router *mux.Router, adminOnly mux.MiddlewareFunc) {
	router.HandleFunc("/appointments", s.getAppointmentsHandler).Methods("GET")
	router.HandleFunc("/appointments", s.createAppointmentHandler).Methods("POST")
	router.HandleFunc("/appointments/{id}", s.getAppointmentHandler).Methods("GET")
	router.HandleFunc("/appointments/{id}", s.deleteAppointmentHandler).Methods("DELETE")
	router.HandleFunc("/appointments/{id}/transitions", s.transitionHandler).Methods("POST")

	router.HandleFunc("/schedule/{date}/summary", s.dailySummaryHandler).Methods("GET")

	s.logger.Info("Scheduling routes configured")
}

// getAppointmentsHandler returns one day's schedule; date defaults to today
func (s *Service) getAppointmentsHandler(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = s.now().Format(dateLayout)
	}
	filter := types.ScheduleFilter(r.URL.Query().Get("filter"))

	entries, err := s.DaySchedule(date, filter)
	if err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}

	api.WriteJSON(w, s.logger, http.StatusOK, entries)
}

// createAppointmentHandler handles appointment creation
func (s *Service) createAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	var draft types.AppointmentDraft
	if err := api.DecodeJSON(r, &draft); err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}

	apt, err := s.CreateAppointment(r.Context(), &draft)
	if err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}

	api.WriteJSON(w, s.logger, http.StatusCreated, apt)
}

// getAppointmentHandler handles appointment retrieval
func (s *Service) getAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	apt, err := s.GetAppointment(mux.Vars(r)["id"])
	if err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}

	api.WriteJSON(w, s.logger, http.StatusOK, apt)
}

// transitionHandler applies a lifecycle action
func (s *Service) transitionHandler(w http.ResponseWriter, r *http.Request) {
	var req types.TransitionRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}

	apt, err := s.Transition(r.Context(), mux.Vars(r)["id"], req.Action, req.Notes)
	if err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}

	if apt == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	api.WriteJSON(w, s.logger, http.StatusOK, apt)
}

// deleteAppointmentHandler removes an appointment
func (s *Service) deleteAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.DeleteAppointment(r.Context(), mux.Vars(r)["id"]); err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// dailySummaryHandler returns the totals for one day
func (s *Service) dailySummaryHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.DailySummary(mux.Vars(r)["date"])
	if err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}

	api.WriteJSON(w, s.logger, http.StatusOK, stats)
}
