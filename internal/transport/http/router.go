// Package httptransport assembles the HTTP surface: middleware chain,
// public check-in endpoints, staff endpoints, and operational routes.
// It delegates to domain handlers so transport concerns remain isolated.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	platformmetrics "gatepass/internal/platform/metrics"
	"gatepass/internal/registration/handler"
	"gatepass/pkg/platform/middleware/metadata"
	"gatepass/pkg/platform/middleware/request"
	"gatepass/pkg/platform/middleware/requesttime"
)

// Deps carries the wired dependencies the router mounts.
type Deps struct {
	Registration *handler.Handler
	// StaffAuth guards the reporting endpoints. Nil leaves them open,
	// which only the tests use.
	StaffAuth   func(http.Handler) http.Handler
	HTTPMetrics *platformmetrics.Metrics
}

// NewRouter wires all endpoints behind the standard middleware chain.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(request.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	if deps.HTTPMetrics != nil {
		r.Use(deps.HTTPMetrics.Instrument)
	}

	deps.Registration.Register(r)

	r.Group(func(staff chi.Router) {
		if deps.StaffAuth != nil {
			staff.Use(deps.StaffAuth)
		}
		deps.Registration.RegisterStaff(staff)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}
