package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires the REST surface. The search route is registered before
// the {id} routes so "search" is never captured as an id.
func NewRouter(messages *MessageHandler, health *HealthHandler) *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/messages", messages.List).Methods(http.MethodGet)
	api.HandleFunc("/messages", messages.Create).Methods(http.MethodPost)
	api.HandleFunc("/messages/search", messages.Search).Methods(http.MethodGet)
	api.HandleFunc("/messages/{id}", messages.Get).Methods(http.MethodGet)
	api.HandleFunc("/messages/{id}", messages.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/health", health.Probe).Methods(http.MethodGet)

	return router
}
