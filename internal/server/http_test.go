package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MuhammadGagah/native-speech-generation/internal/config"
	"github.com/MuhammadGagah/native-speech-generation/internal/metrics"
)

func newTestServer(status StatusFunc) *HTTPServer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	cfg := config.HTTPConfig{Port: 8090, Address: "127.0.0.1", Enabled: true}
	return NewHTTPServer(cfg, logger, registry, m, status)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(func() Status { return Status{} })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if payload["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", payload["status"])
	}
}

func TestHealthRejectsPost(t *testing.T) {
	srv := newTestServer(func() Status { return Status{} })

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer(func() Status {
		return Status{
			BundleInstalled: true,
			InstallDir:      "/opt/lib",
			LastArtifact:    "/tmp/last_audio_generated.wav",
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var payload struct {
		Bundle struct {
			Installed  bool   `json:"installed"`
			InstallDir string `json:"install_dir"`
		} `json:"bundle"`
		LastArtifact string `json:"last_artifact"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if !payload.Bundle.Installed {
		t.Error("Expected bundle to be reported installed")
	}
	if payload.Bundle.InstallDir != "/opt/lib" {
		t.Errorf("Unexpected install dir: %s", payload.Bundle.InstallDir)
	}
	if payload.LastArtifact != "/tmp/last_audio_generated.wav" {
		t.Errorf("Unexpected last artifact: %s", payload.LastArtifact)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(func() Status { return Status{} })

	// Hitting an instrumented endpoint first guarantees at least one
	// sample in the registry.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	srv.server.Handler.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "speechgen_http_requests_total") {
		t.Error("Expected HTTP request counter in metrics output")
	}
}
