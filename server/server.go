// Package server exposes the vector store over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/viant/vecdb/service"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Version is reported by GET /.
const Version = "2.0.0"

// Server is the HTTP surface of a Service.
type Server struct {
	svc     *service.Service
	logger  *slog.Logger
	handler http.Handler
}

// New builds the routes and middleware for svc.
func New(svc *service.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{svc: svc, logger: logger}
	cfg := svc.Config

	mux := http.NewServeMux()
	mux.HandleFunc("POST /insert", s.handleInsert)
	mux.HandleFunc("POST /insert-batch", s.handleInsertBatch)
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	if cfg.Metrics.Enabled && svc.Registry != nil {
		mux.Handle("GET "+cfg.Metrics.Path, promhttp.HandlerFor(svc.Registry, promhttp.HandlerOpts{}))
	}

	var limiter *rate.Limiter
	if cfg.Server.RateLimit > 0 {
		burst := cfg.Server.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), burst)
	}

	var h http.Handler = mux
	h = withTimeout(cfg.Server.RequestTimeout, h)
	h = withRateLimit(limiter, h)
	h = withLogging(logger, h)
	h = withRequestID(h)
	s.handler = h
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	cfg := s.svc.Config.Server
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	cfg := s.svc.Config.Server
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("vector database server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
