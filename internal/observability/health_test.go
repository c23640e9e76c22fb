package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthCheckHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthCheckHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var status HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if status.Service != "reader-gateway" || status.Status != "healthy" {
		t.Errorf("Unexpected status: %+v", status)
	}
}

func TestReadinessHandler_AllHealthy(t *testing.T) {
	ok := func(ctx context.Context) (bool, error) { return true, nil }
	h := ReadinessHandler(
		DependencyCheck{Name: "deepgram", Check: ok},
		DependencyCheck{Name: "cartesia", Check: ok},
	)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	var status HealthStatus
	json.NewDecoder(rec.Body).Decode(&status)
	if len(status.Dependencies) != 2 {
		t.Errorf("Expected 2 dependencies, got %d", len(status.Dependencies))
	}
}

func TestReadinessHandler_RequiredFailure(t *testing.T) {
	h := ReadinessHandler(
		DependencyCheck{Name: "analysis", Check: func(ctx context.Context) (bool, error) {
			return false, errors.New("connection refused")
		}},
	)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rec.Code)
	}
	var status HealthStatus
	json.NewDecoder(rec.Body).Decode(&status)
	if status.Status != "not_ready" {
		t.Errorf("Expected not_ready, got %s", status.Status)
	}
	if status.Dependencies["analysis"].Message != "connection refused" {
		t.Errorf("Expected error message, got %+v", status.Dependencies["analysis"])
	}
}

func TestReadinessHandler_OptionalFailure(t *testing.T) {
	h := ReadinessHandler(
		DependencyCheck{Name: "cartesia", Optional: true, Check: func(ctx context.Context) (bool, error) {
			return false, nil
		}},
		DependencyCheck{Name: "skipped"},
	)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 when only optional checks fail, got %d", rec.Code)
	}
	var status HealthStatus
	json.NewDecoder(rec.Body).Decode(&status)
	if status.Dependencies["cartesia"].Status != "unhealthy" {
		t.Errorf("Expected cartesia unhealthy, got %+v", status.Dependencies["cartesia"])
	}
	if _, ok := status.Dependencies["skipped"]; ok {
		t.Error("Expected checks without a func to be ignored")
	}
}
