package grpc

import (
	"context"
	"time"

	"dormhub-backend/internal/logger"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name reported alongside the overall ("") status.
const ServiceName = "dormhub.v1.Rentals"

// HealthMonitor keeps the standard gRPC health service in step with a
// dependency probe, normally a database ping.
type HealthMonitor struct {
	server   *health.Server
	check    func(ctx context.Context) error
	interval time.Duration
	timeout  time.Duration
}

func NewHealthMonitor(check func(ctx context.Context) error, interval time.Duration) *HealthMonitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &HealthMonitor{
		server:   health.NewServer(),
		check:    check,
		interval: interval,
		timeout:  2 * time.Second,
	}
}

// Server is registered with grpc via healthpb.RegisterHealthServer.
func (m *HealthMonitor) Server() healthpb.HealthServer {
	return m.server
}

// Probe runs the check once and publishes the result.
func (m *HealthMonitor) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := m.check(ctx); err != nil {
		logger.Warn("Health probe failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	m.server.SetServingStatus("", status)
	m.server.SetServingStatus(ServiceName, status)
	return status
}

// Run probes until ctx is done, then marks everything NOT_SERVING so
// watchers drain before the listener closes.
func (m *HealthMonitor) Run(ctx context.Context) {
	m.Probe(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.server.Shutdown()
			return
		case <-ticker.C:
			m.Probe(ctx)
		}
	}
}
