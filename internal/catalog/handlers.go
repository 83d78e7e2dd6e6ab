package catalog

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/YeyeJames/jiale15/pkg/api"
	"github.com/YeyeJames/jiale15/pkg/types"
)

type addTherapistRequest struct {
	Name     string         `json:"name"`
	Category types.Category `json:"category"`
}

// RegisterRoutes mounts the catalog endpoints. Reads are open to every
// signed-in user; mutations go through adminOnly.
func (s *Service) RegisterRoutes(router *mux.Router, adminOnly mux.MiddlewareFunc) {
	router.HandleFunc("/therapists", s.listTherapistsHandler).Methods("GET")
	router.Handle("/therapists", adminOnly(http.HandlerFunc(s.addTherapistHandler))).Methods("POST")
	router.HandleFunc("/therapists/{id}/treatments", s.therapistTreatmentsHandler).Methods("GET")
	router.Handle("/therapists/{id}", adminOnly(http.HandlerFunc(s.removeTherapistHandler))).Methods("DELETE")

	router.HandleFunc("/treatments", s.listTreatmentsHandler).Methods("GET")
	router.Handle("/treatments", adminOnly(http.HandlerFunc(s.addTreatmentHandler))).Methods("POST")
	router.Handle("/treatments/{id}", adminOnly(http.HandlerFunc(s.updateTreatmentHandler))).Methods("PUT")
	router.Handle("/treatments/{id}", adminOnly(http.HandlerFunc(s.removeTreatmentHandler))).Methods("DELETE")

	s.logger.Info("Catalog routes configured")
}

func (s *Service) listTherapistsHandler(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, s.logger, http.StatusOK, s.ListTherapists())
}

func (s *Service) addTherapistHandler(w http.ResponseWriter, r *http.Request) {
	var req addTherapistRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}

	therapist, err := s.AddTherapist(r.Context(), req.Name, req.Category)
	if err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}

	api.WriteJSON(w, s.logger, http.StatusCreated, therapist)
}

func (s *Service) therapistTreatmentsHandler(w http.ResponseWriter, r *http.Request) {
	treatments, err := s.TreatmentsForTherapist(mux.Vars(r)["id"])
	if err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}
	api.WriteJSON(w, s.logger, http.StatusOK, treatments)
}

func (s *Service) removeTherapistHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.RemoveTherapist(r.Context(), mux.Vars(r)["id"]); err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) listTreatmentsHandler(w http.ResponseWriter, r *http.Request) {
	var category types.Category
	if raw := r.URL.Query().Get("category"); raw != "" {
		parsed, err := types.ParseCategory(raw)
		if err != nil {
			api.WriteError(w, r, s.logger, types.NewValidationError(types.ErrCodeInvalidInput, err.Error(), nil))
			return
		}
		category = parsed
	}
	api.WriteJSON(w, s.logger, http.StatusOK, s.ListTreatments(category))
}

func (s *Service) addTreatmentHandler(w http.ResponseWriter, r *http.Request) {
	var input types.TreatmentInput
	if err := api.DecodeJSON(r, &input); err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}

	treatment, err := s.AddTreatment(r.Context(), &input)
	if err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}

	api.WriteJSON(w, s.logger, http.StatusCreated, treatment)
}

func (s *Service) updateTreatmentHandler(w http.ResponseWriter, r *http.Request) {
	var updates types.TreatmentUpdates
	if err := api.DecodeJSON(r, &updates); err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}

	treatment, err := s.UpdateTreatment(r.Context(), mux.Vars(r)["id"], &updates)
	if err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}

	api.WriteJSON(w, s.logger, http.StatusOK, treatment)
}

func (s *Service) removeTreatmentHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.RemoveTreatment(r.Context(), mux.Vars(r)["id"]); err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
