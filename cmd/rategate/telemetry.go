package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/clayv/RateGate/pkg/config"
	"github.com/clayv/RateGate/pkg/rategate"
	"github.com/clayv/RateGate/pkg/registry"
	"github.com/clayv/RateGate/pkg/report"
	"github.com/clayv/RateGate/pkg/telemetry/health"
	"github.com/clayv/RateGate/pkg/telemetry/metrics"
)

// Scrapers and probes share one gate; requests beyond the limit get 429.
const (
	telemetryRequestLimit = 50
	telemetryRequestUnit  = time.Second
	shutdownTimeout       = 5 * time.Second
)

type telemetryServer struct {
	addr   string
	server *http.Server
	gate   *rategate.Gate
	errc   chan error
}

// startTelemetryServer serves metrics and health endpoints on the
// configured listen address until shutdown is called.
func startTelemetryServer(cfg *config.Config, collector *metrics.Collector, reg *registry.Registry, store report.Storage) (*telemetryServer, error) {
	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
	checker.RegisterCheck("gates", health.GatesCheck(reg))
	if store != nil {
		checker.RegisterCheck("report_storage", func(ctx context.Context) error {
			_, err := store.Count(ctx, &report.Query{Limit: 1})
			return err
		})
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
	checker.Mount(mux, cfg.Telemetry.Health, versionInfo())

	gate, err := rategate.New(telemetryRequestLimit, telemetryRequestUnit, rategate.WithName("telemetry-http"))
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry gate: %w", err)
	}

	ln, err := net.Listen("tcp", cfg.Telemetry.Metrics.ListenAddress)
	if err != nil {
		gate.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.Telemetry.Metrics.ListenAddress, err)
	}

	s := &telemetryServer{
		addr: ln.Addr().String(),
		server: &http.Server{
			Handler:           health.RateLimitedHandler(mux, gate),
			ReadHeaderTimeout: 5 * time.Second,
		},
		gate: gate,
		errc: make(chan error, 1),
	}

	go func() {
		err := s.server.Serve(ln)
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("telemetry server stopped", "error", err)
		}
		s.errc <- err
	}()

	slog.Info("telemetry server listening", "address", s.addr)
	return s, nil
}

// shutdown stops the server, waiting up to shutdownTimeout for in-flight
// requests.
func (s *telemetryServer) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		slog.Warn("telemetry server shutdown failed", "error", err)
	}
	<-s.errc
	s.gate.Close()
}
