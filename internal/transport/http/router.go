// Package httptransport assembles the public HTTP surface: the summary
// endpoint plus health and metrics.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registrar is anything that mounts routes on the router; handlers register
// themselves so the router stays free of domain knowledge.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires all public endpoints.
func NewRouter(registrars ...Registrar) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, reg := range registrars {
		reg.Register(r)
	}

	return r
}
