package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Status is the snapshot served at /api/status.
type Status struct {
	Store  string   `json:"store"`
	Cursor string   `json:"cursor"`
	Boards []string `json:"boards"`
}

// StatusProvider must be safe to call from the HTTP goroutine.
type StatusProvider interface {
	Status() Status
}

type Handlers struct {
	status StatusProvider
}

func NewRouter(status StatusProvider, metrics http.Handler) http.Handler {
	handlers := &Handlers{status: status}
	router := chi.NewRouter()

	router.Get("/healthz", handlers.healthz)
	if metrics != nil {
		router.Method(http.MethodGet, "/metrics", metrics)
	}
	router.Route("/api", func(r chi.Router) {
		r.Get("/status", handlers.getStatus)
	})

	return router
}

func (handlers *Handlers) healthz(writer http.ResponseWriter, _ *http.Request) {
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write([]byte("ok"))
}

func (handlers *Handlers) getStatus(writer http.ResponseWriter, _ *http.Request) {
	if handlers.status == nil {
		writeJSON(writer, http.StatusServiceUnavailable, map[string]string{"error": "starting"})
		return
	}

	status := handlers.status.Status()
	if status.Boards == nil {
		status.Boards = []string{}
	}
	writeJSON(writer, http.StatusOK, status)
}

func writeJSON(writer http.ResponseWriter, status int, payload any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(payload)
}
