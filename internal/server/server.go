package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vyrodovalexey/avauthz/internal/authz"
	"github.com/vyrodovalexey/avauthz/internal/config"
	"github.com/vyrodovalexey/avauthz/internal/health"
	"github.com/vyrodovalexey/avauthz/internal/observability"
)

// Server hosts the authorizer HTTP endpoint and, optionally, a separate
// metrics listener.
type Server struct {
	cfg        *config.Config
	authorizer authz.Authorizer
	checker    *health.Checker
	logger     observability.Logger

	engine     *gin.Engine
	httpSrv    *http.Server
	metricsSrv *http.Server
}

// New creates a server wiring the authorizer, health checker, and the
// metrics registry into HTTP endpoints.
func New(
	cfg *config.Config,
	authorizer authz.Authorizer,
	checker *health.Checker,
	gatherer prometheus.Gatherer,
	logger observability.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:        cfg,
		authorizer: authorizer,
		checker:    checker,
		logger:     logger,
	}

	engine := gin.New()
	engine.Use(
		RequestID(),
		Recovery(logger),
		AccessLog(logger),
	)

	engine.POST("/v1/authorize", s.handleAuthorize)
	engine.GET("/healthz/live", s.handleLive)
	engine.GET("/healthz/ready", s.handleReady)

	s.engine = engine
	s.httpSrv = &http.Server{
		Addr:         cfg.Listener.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.Listener.ReadTimeout.Duration(),
		WriteTimeout: cfg.Listener.WriteTimeout.Duration(),
	}

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
		s.metricsSrv = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start begins serving and blocks until the listener stops. The metrics
// listener, when configured, runs on its own goroutine and only logs on
// failure.
func (s *Server) Start() error {
	if s.metricsSrv != nil {
		go func() {
			s.logger.Info("metrics listener starting",
				observability.String("addr", s.metricsSrv.Addr),
			)
			if err := s.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("metrics listener failed", observability.Error(err))
			}
		}()
	}

	s.logger.Info("authorizer listening",
		observability.String("addr", s.httpSrv.Addr),
	)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops all listeners.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if s.metricsSrv != nil {
		if err := s.metricsSrv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
