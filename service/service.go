// Package service assembles the vector store, embedder, distance resolver,
// search engine and batch writer from configuration.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/vecdb/config"
	"github.com/viant/vecdb/embedder"
	"github.com/viant/vecdb/engine"
	"github.com/viant/vecdb/metrics"
	"github.com/viant/vecdb/resolver"
	"github.com/viant/vecdb/search"
	"github.com/viant/vecdb/vecadmin"
	"github.com/viant/vecdb/vecerr"
	"github.com/viant/vecdb/vector"
	"github.com/viant/vecdb/writer"
)

// Service holds the wired components.
type Service struct {
	Config   *config.Config
	Store    *vector.SQLiteStore
	Embedder *embedder.Embedder
	Resolver *resolver.Resolver
	Search   *search.Engine
	Writer   *writer.Writer
	Metrics  metrics.Collector
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// New opens the store described by cfg and wires every component.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, vecerr.Validation("config", "%v", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Distance.Builtin {
		engine.RegisterVectorFunctions()
	}

	opts := engine.DefaultOptions()
	opts.BusyTimeout = cfg.Store.BusyTimeout
	db, err := engine.Open(engine.DSN(cfg.Store.Path, opts))
	if err != nil {
		return nil, vecerr.Storage("open", err)
	}
	// modules must be registered before the first connection is opened
	if err := vecadmin.Register(db); err != nil {
		logger.Warn("admin virtual table unavailable", "error", err)
	}
	model := ModelName(cfg.Embedding)
	store, err := vector.NewSQLiteStore(db,
		vector.WithModel(model),
		vector.WithStrictModel(cfg.Store.StrictModel),
		vector.WithLogger(logger.With("component", "store")),
	)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := store.Initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s := &Service{Config: cfg, Store: store, Logger: logger, Metrics: metrics.Noop{}}
	if cfg.Metrics.Enabled {
		s.Registry = prometheus.NewRegistry()
		collector, err := metrics.NewPrometheus(s.Registry)
		if err != nil {
			db.Close()
			return nil, err
		}
		s.Metrics = collector
	}

	factory, err := BackendFactory(cfg.Embedding)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.Embedder = embedder.New(factory,
		embedder.WithModel(model),
		embedder.WithLogger(logger.With("component", "embedder")),
	)

	candidates, unknown := resolver.Lookup(cfg.Distance.Candidates)
	for _, name := range unknown {
		logger.Warn("ignoring unknown distance extension", "name", name)
	}
	s.Resolver = resolver.New(db,
		resolver.WithCandidates(candidates),
		resolver.WithLogger(logger.With("component", "resolver")),
	)
	s.Resolver.Resolve(ctx)
	s.Search = search.New(store, s.Embedder, s.Resolver,
		search.WithMaxFallbackRows(cfg.Store.MaxFallbackRows),
		search.WithLogger(logger.With("component", "search")),
		search.WithMetrics(s.Metrics),
	)
	s.Writer = writer.New(store, s.Embedder,
		writer.WithConcurrency(cfg.Embedding.Concurrency),
		writer.WithLogger(logger.With("component", "writer")),
		writer.WithMetrics(s.Metrics),
	)
	if count, err := store.Count(ctx); err == nil {
		s.Metrics.SetRows(count)
	}
	return s, nil
}

// BackendFactory returns the embedding backend factory selected by cfg.
func BackendFactory(cfg config.EmbeddingConfig) (embedder.Factory, error) {
	var factory embedder.Factory
	switch cfg.Provider {
	case config.ProviderHash:
		factory = embedder.Static(embedder.NewHashBackend(vector.Dimension))
	case config.ProviderOpenAI:
		factory = embedder.OpenAIFactory(embedder.OpenAIConfig{
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			APIKeyEnv: cfg.APIKeyEnv,
			Timeout:   cfg.Timeout,
			Warmup:    cfg.Warmup,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
	if cfg.CachePath != "" {
		factory = embedder.CachedFactory(cfg.CachePath, ModelName(cfg), factory)
	}
	return factory, nil
}

// ModelName returns the identifier recorded for vectors produced by cfg.
// The hash provider ignores the configured model name.
func ModelName(cfg config.EmbeddingConfig) string {
	if cfg.Provider == config.ProviderHash {
		return embedder.HashModel
	}
	return cfg.Model
}

// Health describes component availability.
type Health struct {
	Status         string    `json:"status"`
	Database       string    `json:"database,omitempty"`
	Embedder       string    `json:"embedder,omitempty"`
	VectorFunction string    `json:"vectorFunction,omitempty"`
	Model          string    `json:"model,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Error          string    `json:"error,omitempty"`
}

// Health checks the store, loads the embedder if needed and reports the
// resolved distance function. The returned error is non-nil when the
// service is unhealthy.
func (s *Service) Health(ctx context.Context) (*Health, error) {
	now := time.Now().UTC()
	if err := s.Store.Ping(ctx); err != nil {
		return &Health{Status: "unhealthy", Timestamp: now, Error: err.Error()}, err
	}
	if err := s.Embedder.Ready(ctx); err != nil {
		return &Health{Status: "unhealthy", Timestamp: now, Error: err.Error()}, err
	}
	vectorFunction := "fallback_mode"
	if strategy := s.Resolver.Resolve(ctx); strategy.Native {
		vectorFunction = strategy.Function
	}
	return &Health{
		Status:         "healthy",
		Database:       "connected",
		Embedder:       "available",
		VectorFunction: vectorFunction,
		Model:          s.Embedder.Model(),
		Timestamp:      now,
	}, nil
}

// Close releases the embedder and the database.
func (s *Service) Close() error {
	return errors.Join(s.Embedder.Close(), s.Store.DB().Close())
}
