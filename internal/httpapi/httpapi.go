// Package httpapi exposes a small, non-authoritative HTTP surface:
// liveness/readiness probes and a debug endpoint over a sink's collected
// events. The embedded Go API, the gRPC control service and the
// websocket transport remain authoritative; this package exists purely
// for operational visibility, grounded on the teacher's chi-based router
// shape (GoCodeAlone-modular/modules/chimux) even though the teacher
// itself never shipped a debug HTTP surface of its own.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nexosim/nexosim-go/internal/simulation"
)

// Registry is the subset of simulation.EndpointRegistry this package
// needs; accepting it as an interface keeps httpapi decoupled from the
// concrete type the caller passes (the server passes rpc.GenericServer).
type Registry interface {
	Sink(name string) (simulation.EventSink, bool)
}

// Router builds the chi router. Ready reports whether the simulation has
// been initialized (an *rpc.GenericServer's Init has run); it is a
// func so the handler always reflects current state rather than a
// snapshot taken at construction time.
func Router(logger *slog.Logger, reg Registry, ready func() bool) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("simulation not started"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/sinks/{name}", func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		sink, ok := reg.Sink(name)
		if !ok {
			http.Error(w, "sink not found: "+name, http.StatusNotFound)
			return
		}
		events, err := sink.Collect()
		if err != nil {
			logger.Error("sink collect failed", slog.String("sink", name), slog.Any("err", err))
			http.Error(w, "failed to collect sink events", http.StatusInternalServerError)
			return
		}
		raw := make([]json.RawMessage, len(events))
		for i, e := range events {
			raw[i] = e
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(raw); err != nil {
			logger.Error("sink response encode failed", slog.Any("err", err))
		}
	})

	return r
}
