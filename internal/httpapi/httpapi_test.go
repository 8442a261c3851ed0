package httpapi

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nexosim/nexosim-go/internal/examplemodels"
	"github.com/nexosim/nexosim-go/internal/simulation"
	"github.com/nexosim/nexosim-go/internal/stime"
)

type fakeRegistry struct {
	reg *simulation.EndpointRegistry
}

func (f fakeRegistry) Sink(name string) (simulation.EventSink, bool) {
	return f.reg.Sink(name)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHealthzAlwaysOK(t *testing.T) {
	init := examplemodels.Build(16, nil)
	router := Router(testLogger(), fakeRegistry{init.Registry()}, func() bool { return false })

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadyzReflectsCallback(t *testing.T) {
	init := examplemodels.Build(16, nil)
	ready := false
	router := Router(testLogger(), fakeRegistry{init.Registry()}, func() bool { return ready })

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while not ready, got %d", rec.Code)
	}

	ready = true
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 once ready, got %d", rec.Code)
	}
}

func TestSinksEndpointReturnsCollectedEvents(t *testing.T) {
	init := examplemodels.Build(16, nil)
	sim := init.Init(stime.Zero)
	reg := sim.Endpoints()

	sink, ok := reg.Sink("counter.history")
	if !ok {
		t.Fatalf("expected counter.history sink to be registered")
	}
	sink.Open()

	src, ok := reg.EventSource("counter.add")
	if !ok {
		t.Fatalf("expected counter.add source to be registered")
	}
	if err := src.Send(sim, int64(3)); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	router := Router(testLogger(), fakeRegistry{reg}, func() bool { return true })
	req := httptest.NewRequest(http.MethodGet, "/sinks/counter.history", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.Len() == 0 {
		t.Fatalf("expected a non-empty JSON body")
	}
}

func TestSinksEndpointUnknownName(t *testing.T) {
	init := examplemodels.Build(16, nil)
	router := Router(testLogger(), fakeRegistry{init.Registry()}, func() bool { return true })

	req := httptest.NewRequest(http.MethodGet, "/sinks/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
