// Package app wires the engine, the store and the HTTP surface into a
// runnable service.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rvadriving/scheduler/api/schedule"
	"github.com/rvadriving/scheduler/config"
	"github.com/rvadriving/scheduler/infra/logger"
	"github.com/rvadriving/scheduler/infra/metrics"
	"github.com/rvadriving/scheduler/infra/store"
)

// Service owns the HTTP server and the in-memory store.
type Service struct {
	Store *store.MemoryStore

	srv         *http.Server
	log         logger.Logger
	promEnabled bool
	promAddr    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	st := store.NewMemoryStore()
	if cfg.Seed.Path != "" {
		if err := LoadSeed(st, cfg.Seed.Path); err != nil {
			return nil, fmt.Errorf("load seed %s: %w", cfg.Seed.Path, err)
		}
		logg.Infof("seeded store from %s", cfg.Seed.Path)
	}

	var collector *metrics.Collector
	if cfg.Metrics.PrometheusEnabled {
		var err error
		collector, err = metrics.NewCollector(prometheus.DefaultRegisterer)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
	}

	mux := http.NewServeMux()
	schedule.New(st, cfg.Engine, collector, logger.New("api")).Register(mux)

	return &Service{
		Store:       st,
		srv:         &http.Server{Addr: cfg.Server.Addr, Handler: mux},
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promAddr:    cfg.Metrics.PrometheusAddr,
	}, nil
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("server shutdown: %v", err)
		}
	}()

	s.log.Infof("listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error { return nil }
