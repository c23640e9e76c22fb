package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

const (
	serviceName    = "reader-gateway"
	serviceVersion = "1.0.0"
)

// HealthStatus represents the health status of the service
type HealthStatus struct {
	Status       string                      `json:"status"`
	Service      string                      `json:"service"`
	Version      string                      `json:"version"`
	Timestamp    string                      `json:"timestamp"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus represents the status of a dependency
type DependencyStatus struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
	Optional  bool   `json:"optional,omitempty"`
}

// HealthCheckFunc probes one dependency. It lives here rather than on the
// clients to avoid import cycles.
type HealthCheckFunc func(ctx context.Context) (bool, error)

// DependencyCheck names a readiness probe. Optional dependencies are reported
// but do not make the service not-ready.
type DependencyCheck struct {
	Name     string
	Check    HealthCheckFunc
	Optional bool
}

// HealthCheckHandler handles health check requests
func HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := HealthStatus{
			Status:    "healthy",
			Service:   serviceName,
			Version:   serviceVersion,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(status)
	}
}

// ReadinessHandler runs every dependency check and reports 503 when a
// required one fails.
func ReadinessHandler(checks ...DependencyCheck) http.HandlerFunc {
	sorted := make([]DependencyCheck, 0, len(checks))
	for _, c := range checks {
		if c.Check != nil {
			sorted = append(sorted, c)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	return func(w http.ResponseWriter, r *http.Request) {
		dependencies := make(map[string]DependencyStatus, len(sorted))
		allHealthy := true
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		for _, c := range sorted {
			start := time.Now()
			healthy, err := c.Check(ctx)
			latency := time.Since(start).Milliseconds()

			dep := DependencyStatus{
				Status:    "healthy",
				LatencyMs: latency,
				Optional:  c.Optional,
			}
			if err != nil || !healthy {
				dep.Status = "unhealthy"
				if err != nil {
					dep.Message = err.Error()
				}
				if !c.Optional {
					allHealthy = false
				}
			}
			dependencies[c.Name] = dep
		}

		status := HealthStatus{
			Status:       "ready",
			Service:      serviceName,
			Version:      serviceVersion,
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
			Dependencies: dependencies,
		}

		w.Header().Set("Content-Type", "application/json")
		if !allHealthy {
			status.Status = "not_ready"
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		json.NewEncoder(w).Encode(status)
	}
}
