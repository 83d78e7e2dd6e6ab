package iam

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/YeyeJames/jiale15/pkg/api"
	"github.com/YeyeJames/jiale15/pkg/types"
)

// RegisterLoginRoute mounts the unauthenticated login endpoint
func (s *Service) RegisterLoginRoute(router *mux.Router) {
	router.HandleFunc("/auth/login", s.loginHandler).Methods("POST")
}

// RegisterRoutes mounts account administration, all admin only
func (s *Service) RegisterRoutes(router *mux.Router, adminOnly mux.MiddlewareFunc) {
	router.Handle("/accounts", adminOnly(http.HandlerFunc(s.listAccountsHandler))).Methods("GET")
	router.Handle("/accounts", adminOnly(http.HandlerFunc(s.addAccountHandler))).Methods("POST")
	router.Handle("/accounts/{id}", adminOnly(http.HandlerFunc(s.removeAccountHandler))).Methods("DELETE")

	s.logger.Info("Account routes configured")
}

func (s *Service) loginHandler(w http.ResponseWriter, r *http.Request) {
	var credentials types.Credentials
	if err := api.DecodeJSON(r, &credentials); err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}

	token, err := s.Login(r.Context(), &credentials)
	if err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}
	api.WriteJSON(w, s.logger, http.StatusOK, token)
}

func (s *Service) listAccountsHandler(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, s.logger, http.StatusOK, s.ListAccounts())
}

func (s *Service) addAccountHandler(w http.ResponseWriter, r *http.Request) {
	var input types.AccountInput
	if err := api.DecodeJSON(r, &input); err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}

	account, err := s.AddAccount(r.Context(), &input)
	if err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}
	api.WriteJSON(w, s.logger, http.StatusCreated, account)
}

func (s *Service) removeAccountHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.RemoveAccount(r.Context(), mux.Vars(r)["id"]); err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
