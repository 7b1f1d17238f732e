package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/focusnest/goal-service/pkg/dto"
)

// RouterOptions customises the shared router.
type RouterOptions struct {
	Version    string
	Datastore  string
	Middleware []func(http.Handler) http.Handler
}

// NewRouter returns a chi router pre-configured with default middleware and a health endpoint.
func NewRouter(service string, opts RouterOptions, register func(r chi.Router)) *chi.Mux {
	if opts.Version == "" {
		opts.Version = "dev"
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	for _, mw := range opts.Middleware {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, dto.HealthResponse{
			Status:    "ok",
			Service:   service,
			Version:   opts.Version,
			Datastore: opts.Datastore,
		})
	})

	if register != nil {
		register(r)
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
