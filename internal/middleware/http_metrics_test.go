package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"/v1/rank", "/v1/rank"},
		{"/health", "/health"},
		{"/metrics", "/metrics"},
		{"/v1/exposures/user-123", "/v1/exposures/{user}"},
		{"/v1/exposures/", "/v1/exposures/"},
		{"/unknown/route", "/unknown/route"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.want {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestHTTPMetrics_RecordsRequest(t *testing.T) {
	metrics := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	handler := HTTPMetrics(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/rank", strings.NewReader(`{}`))
	req.Header.Set("Content-Length", "2")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	count := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues(http.MethodPost, "/v1/rank", "200"))
	if count != 1 {
		t.Errorf("http_requests_total = %v, want 1", count)
	}
}

func TestHTTPMetrics_SkipsHealthEndpoints(t *testing.T) {
	metrics := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	handler := HTTPMetrics(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/health", "/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
	}

	got := testutil.CollectAndCount(metrics.httpRequestsTotal)
	if got != 0 {
		t.Errorf("collected %d series for health endpoints, want 0", got)
	}
}

func TestMetrics_DoubleRegisterFails(t *testing.T) {
	metrics := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	if err := metrics.Register(reg); err == nil {
		t.Error("second Register() should fail with duplicate collectors")
	}
}

func TestMetrics_Collectors(t *testing.T) {
	metrics := NewMetrics()
	if got := len(metrics.Collectors()); got != 4 {
		t.Errorf("Collectors() returned %d collectors, want 4", got)
	}
}
