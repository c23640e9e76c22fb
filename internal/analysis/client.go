// Package analysis talks to the passage analysis service that produces the
// entities and cultural-context sections the gateway annotates and reads
// aloud. The gateway only needs to know whether that service is up, so this
// client speaks the standard gRPC health protocol.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"

	"github.com/lexiqai/reader-gateway/internal/config"
	"github.com/lexiqai/reader-gateway/internal/observability"
	"github.com/lexiqai/reader-gateway/internal/resilience"
)

// ErrNotConfigured is returned when no analysis service URL is set.
var ErrNotConfigured = errors.New("analysis service URL not configured")

// Client manages the gRPC connection to the analysis service.
type Client struct {
	target  string
	timeout time.Duration
	logger  zerolog.Logger

	mu     sync.RWMutex
	conn   *grpc.ClientConn
	health healthpb.HealthClient
}

// NewClient dials the analysis service. The connection is established lazily
// by gRPC, so an unreachable service is reported by HealthCheck, not here.
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.AnalysisServiceURL == "" {
		return nil, ErrNotConfigured
	}

	timeout := time.Duration(cfg.AnalysisTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                30 * time.Second,
			Timeout:             3 * time.Second,
			PermitWithoutStream: true,
		}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	conn, err := grpc.DialContext(ctx, cfg.AnalysisServiceURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial analysis service at %s: %w", cfg.AnalysisServiceURL, err)
	}

	c := &Client{
		target:  cfg.AnalysisServiceURL,
		timeout: timeout,
		logger:  observability.WithComponent("analysis"),
		conn:    conn,
		health:  healthpb.NewHealthClient(conn),
	}
	c.logger.Info().Str("target", c.target).Msg("Analysis service client created")
	return c, nil
}

// HealthCheck reports whether the analysis service answers SERVING. Transient
// transport errors are retried briefly.
func (c *Client) HealthCheck(ctx context.Context) (bool, error) {
	c.mu.RLock()
	health := c.health
	c.mu.RUnlock()
	if health == nil {
		return false, errors.New("analysis client is closed")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var status healthpb.HealthCheckResponse_ServingStatus
	err := resilience.Retry(ctx, func(ctx context.Context) error {
		resp, err := health.Check(ctx, &healthpb.HealthCheckRequest{})
		if err != nil {
			return err
		}
		status = resp.GetStatus()
		return nil
	}, &resilience.RetryConfig{
		MaxAttempts:       2,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        500 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}, resilience.IsRetryableNetworkError)
	if err != nil {
		return false, fmt.Errorf("health check failed: %w", err)
	}

	if status != healthpb.HealthCheckResponse_SERVING {
		return false, fmt.Errorf("analysis service status %s", status)
	}
	return true, nil
}

// Close closes the gRPC connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.health = nil
	return err
}
