package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/HerbHall/videocatalog/internal/logging"
	"github.com/HerbHall/videocatalog/internal/metrics"
	"github.com/HerbHall/videocatalog/internal/testutil"
	"github.com/HerbHall/videocatalog/internal/version"
)

// echoRoutes is a RouteRegistrar used to exercise the API mux.
type echoRoutes struct{}

func (echoRoutes) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/echo/{word}", func(w http.ResponseWriter, r *http.Request) {
		if logging.From(r.Context(), nil) == nil {
			http.Error(w, "no request logger", http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, r.PathValue("word"))
	})
	mux.HandleFunc("GET /api/v1/panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
}

func newTestServer(t *testing.T, opts Options) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		t.Fatalf("metrics.New: %v", err)
	}
	return New(opts, m, testutil.NopLogger(), echoRoutes{}), reg
}

func serve(s *Server, method, target string, remote string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, nil)
	if remote != "" {
		r.RemoteAddr = remote
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, r)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, Options{})

	w := serve(s, http.MethodGet, "/api/v1/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get(version.Header); got != version.Short() {
		t.Errorf("%s = %q, want %q", version.Header, got, version.Short())
	}
	var body healthResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Service != "videocatalog" {
		t.Errorf("body = %+v, want ok videocatalog", body)
	}
	if body.Version["version"] != version.Version {
		t.Errorf("version = %q, want %q", body.Version["version"], version.Version)
	}
}

func TestHealth_NotReady(t *testing.T) {
	s, _ := newTestServer(t, Options{Ready: func(context.Context) error {
		return errors.New("database is locked")
	}})

	w := serve(s, http.MethodGet, "/api/v1/health", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	var body healthResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "unavailable" || body.Error != "database is locked" {
		t.Errorf("body = %+v", body)
	}
}

func TestRegistrarRoutes(t *testing.T) {
	s, reg := newTestServer(t, Options{})

	w := serve(s, http.MethodGet, "/api/v1/echo/hello", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "hello" {
		t.Errorf("body = %q, want hello", w.Body.String())
	}

	expected := `
		# HELP videocatalog_http_requests_total HTTP requests by method, route and status.
		# TYPE videocatalog_http_requests_total counter
		videocatalog_http_requests_total{method="GET",route="GET /api/v1/echo/{word}",status="200"} 1
	`
	if err := promtest.GatherAndCompare(reg, strings.NewReader(expected), "videocatalog_http_requests_total"); err != nil {
		t.Error(err)
	}
}

func TestUnmatchedRoute(t *testing.T) {
	s, reg := newTestServer(t, Options{})

	w := serve(s, http.MethodGet, "/nowhere", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	expected := `
		# HELP videocatalog_http_requests_total HTTP requests by method, route and status.
		# TYPE videocatalog_http_requests_total counter
		videocatalog_http_requests_total{method="GET",route="unmatched",status="404"} 1
	`
	if err := promtest.GatherAndCompare(reg, strings.NewReader(expected), "videocatalog_http_requests_total"); err != nil {
		t.Error(err)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	serve(s, http.MethodGet, "/api/v1/health", "")

	w := serve(s, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `route="GET /api/v1/health"`) {
		t.Errorf("metrics output missing health route:\n%s", w.Body.String())
	}
}

func TestMetricsEndpoint_DisabledWithoutMetrics(t *testing.T) {
	s := New(Options{}, nil, nil)

	w := serve(s, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	s, _ := newTestServer(t, Options{})

	w := serve(s, http.MethodGet, "/api/v1/health", "")
	if id := w.Header().Get(RequestIDHeader); len(id) != 36 {
		t.Errorf("generated %s = %q, want a UUID", RequestIDHeader, id)
	}

	r := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	r.Header.Set(RequestIDHeader, "req-42")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, r)
	if got := w.Header().Get(RequestIDHeader); got != "req-42" {
		t.Errorf("%s = %q, want req-42", RequestIDHeader, got)
	}
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	s := New(Options{}, nil, zap.New(core), echoRoutes{})

	w := serve(s, http.MethodGet, "/api/v1/panic", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("content-type = %q, want problem+json", ct)
	}
	if logs.FilterMessage("handler panic").Len() != 1 {
		t.Errorf("panic not logged: %v", logs.All())
	}
	if logs.FilterMessage("request failed").Len() != 1 {
		t.Errorf("500 not logged as request failed: %v", logs.All())
	}
}

func TestRateLimit(t *testing.T) {
	s, reg := newTestServer(t, Options{RateLimit: 1, RateBurst: 2})
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.limiter.now = func() time.Time { return now }

	for i := range 2 {
		if w := serve(s, http.MethodGet, "/api/v1/echo/x", "10.0.0.1:1234"); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, w.Code)
		}
	}
	w := serve(s, http.MethodGet, "/api/v1/echo/x", "10.0.0.1:1235")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", w.Code)
	}
	var p Problem
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Type != ProblemTypeRateLimited {
		t.Errorf("type = %q, want %q", p.Type, ProblemTypeRateLimited)
	}

	// Another client has its own bucket.
	if w := serve(s, http.MethodGet, "/api/v1/echo/x", "10.0.0.2:1234"); w.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", w.Code)
	}
	// Health is outside the limited API mux.
	if w := serve(s, http.MethodGet, "/api/v1/health", "10.0.0.1:1234"); w.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", w.Code)
	}

	now = now.Add(time.Second)
	if w := serve(s, http.MethodGet, "/api/v1/echo/x", "10.0.0.1:1234"); w.Code != http.StatusOK {
		t.Errorf("after refill status = %d, want 200", w.Code)
	}

	expected := `
		# HELP videocatalog_rate_limited_requests_total Requests rejected by the rate limiter.
		# TYPE videocatalog_rate_limited_requests_total counter
		videocatalog_rate_limited_requests_total 1
	`
	if err := promtest.GatherAndCompare(reg, strings.NewReader(expected), "videocatalog_rate_limited_requests_total"); err != nil {
		t.Error(err)
	}
}

func TestClientLimiter_Disabled(t *testing.T) {
	l := NewClientLimiter(0, 10)
	if l != nil {
		t.Fatalf("NewClientLimiter(0) = %v, want nil", l)
	}
	for range 100 {
		if !l.Allow("a") {
			t.Fatal("nil limiter denied a request")
		}
	}
	if l.Clients() != 0 {
		t.Errorf("Clients() = %d, want 0", l.Clients())
	}
}

func TestClientLimiter_EvictsIdle(t *testing.T) {
	l := NewClientLimiter(100, 100)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("stale")
	now = now.Add(time.Hour)
	for i := range sweepEvery {
		l.Allow(fmt.Sprintf("c%d", i%4))
	}
	if got := l.Clients(); got != 4 {
		t.Errorf("Clients() = %d, want 4 after sweep", got)
	}
}

func TestServeAndShutdown(t *testing.T) {
	s, _ := newTestServer(t, Options{Addr: "127.0.0.1:0"})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v, want nil after shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
}
