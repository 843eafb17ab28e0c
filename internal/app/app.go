// Package app wires configuration into the retrieval, chat and health services.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fusionrag/internal/config"
	"github.com/kailas-cloud/fusionrag/internal/db"
	"github.com/kailas-cloud/fusionrag/internal/db/goredis"
	"github.com/kailas-cloud/fusionrag/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/fusionrag/internal/db/redis"
	"github.com/kailas-cloud/fusionrag/internal/domain"
	"github.com/kailas-cloud/fusionrag/internal/metrics"
	"github.com/kailas-cloud/fusionrag/internal/repository/embcache"
	"github.com/kailas-cloud/fusionrag/internal/repository/respcache"
	"github.com/kailas-cloud/fusionrag/internal/transport/cohere"
	"github.com/kailas-cloud/fusionrag/internal/transport/openai"
	"github.com/kailas-cloud/fusionrag/internal/transport/websearch"
	"github.com/kailas-cloud/fusionrag/internal/usecase/chat"
	"github.com/kailas-cloud/fusionrag/internal/usecase/health"
	"github.com/kailas-cloud/fusionrag/internal/usecase/retrieval"
)

// App holds the assembled services and the resources they own.
type App struct {
	Retrieval *retrieval.Service
	Chat      *chat.Service
	Health    *health.Service

	closers []func()
}

// Option overrides a provider built from configuration.
type Option func(*overrides)

type overrides struct {
	embedder  domain.Embedder
	generator domain.Generator
}

// WithEmbedder replaces the configured embedding provider.
func WithEmbedder(e domain.Embedder) Option {
	return func(o *overrides) { o.embedder = e }
}

// WithGenerator replaces the configured generation provider.
func WithGenerator(g domain.Generator) Option {
	return func(o *overrides) { o.generator = g }
}

// New connects the stores and builds the service graph.
// An unconfigured or unreachable cache backend disables caching instead of failing.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	var ov overrides
	for _, o := range opts {
		o(&ov)
	}

	metrics.RegisterProviderMetrics()
	metrics.RegisterRetrievalMetrics()

	a := &App{}

	docs, err := postgres.NewStore(ctx, postgres.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MaxConnLifetime: time.Duration(cfg.Database.MaxConnLifetimeSec) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open document store: %w", err)
	}
	a.closers = append(a.closers, docs.Close)
	logger.Info("Connected to document store")

	kv := OpenCache(ctx, cfg.Cache, logger)
	if kv != nil {
		a.closers = append(a.closers, kv.Close)
	}

	embedder := ov.embedder
	if embedder == nil {
		embedder = openai.NewEmbedder(&openai.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Embedding.Provider,
			Logger:     logger,
		})
	}
	cache := respcache.Disabled()
	if kv != nil {
		embedder = embcache.New(
			embedder, kv, cfg.Embedding.Model,
			time.Duration(cfg.Embedding.CacheTTLSec)*time.Second,
			metrics.EmbeddingCacheTotal, logger,
		)
		cache = respcache.New(kv, cfg.Cache.DefaultTTL(), logger,
			respcache.WithHitCounter(metrics.CacheHitTotal),
			respcache.WithRequestCounter(metrics.CacheRequestsTotal),
		)
	}
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Bool("cached", kv != nil),
	)

	retrievalOpts := []retrieval.Option{
		retrieval.WithCache(cache),
		retrieval.WithLogger(logger),
	}
	if cfg.Retrieval.Internet.BaseURL != "" {
		web := websearch.New(websearch.Config{
			BaseURL:    cfg.Retrieval.Internet.BaseURL,
			MaxResults: cfg.Retrieval.Internet.MaxResults,
			Timeout:    time.Duration(cfg.Retrieval.Internet.TimeoutSec) * time.Second,
			RPS:        cfg.Retrieval.Internet.RPS,
			Logger:     logger,
		})
		retrievalOpts = append(retrievalOpts, retrieval.WithInternet(retrieval.NewInternetAdapter(web, embedder, logger)))
	}
	if cfg.Retrieval.Rerank.Enabled {
		rr := cohere.New(cohere.Config{
			APIKey:  cfg.Retrieval.Rerank.APIKey,
			BaseURL: cfg.Retrieval.Rerank.BaseURL,
			Model:   cfg.Retrieval.Rerank.Model,
			Timeout: time.Duration(cfg.Retrieval.Rerank.TimeoutSec) * time.Second,
			Logger:  logger,
		})
		if !rr.Configured() {
			logger.Warn("Rerank enabled without credentials, results keep fusion order")
		}
		retrievalOpts = append(retrievalOpts, retrieval.WithReranker(retrieval.NewRerankAdapter(rr, logger)))
	}

	a.Retrieval = retrieval.New(docs, docs, embedder, retrieval.Config{
		DefaultK:      cfg.Retrieval.DefaultK,
		KeywordK:      cfg.Retrieval.KeywordK,
		RerankEnabled: cfg.Retrieval.Rerank.Enabled,
	}, retrievalOpts...)

	generator := ov.generator
	if generator == nil {
		generator = openai.NewGenerator(&openai.Config{
			APIKey:  cfg.Generation.APIKey,
			BaseURL: cfg.Generation.BaseURL,
			Model:   cfg.Generation.Model,
			Logger:  logger,
		})
	}
	a.Chat = chat.New(docs, a.Retrieval, generator, cache, logger)

	// A nil *Store wrapped in the interface would not compare equal to nil.
	var cachePinger health.Pinger
	if kv != nil {
		cachePinger = kv
	}
	a.Health = health.New(docs, cachePinger, embeddingChecker(embedder))

	return a, nil
}

// Close releases stores in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// OpenCache connects the configured cache backend. It returns nil when the
// cache is not configured or does not become ready in time.
func OpenCache(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) db.Store {
	if !cfg.Enabled() {
		logger.Info("Response cache disabled: no cache url configured")
		return nil
	}

	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case config.CacheDriverGoRedis:
		store, err = goredis.NewStore(goredis.Config{
			URL:      cfg.URL,
			Username: cfg.Username,
			Password: cfg.Password,
		})
	default:
		store, err = dbRedis.NewStore(dbRedis.Config{
			URL:      cfg.URL,
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}
	if err != nil {
		logger.Warn("Response cache disabled: cannot create client",
			zap.String("driver", cfg.Driver), zap.Error(err))
		return nil
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		logger.Warn("Response cache disabled: backend not ready",
			zap.String("driver", cfg.Driver), zap.Error(err))
		store.Close()
		return nil
	}

	logger.Info("Connected to cache backend", zap.String("driver", cfg.Driver))
	return store
}

func embeddingChecker(e domain.Embedder) health.EmbeddingChecker {
	if hc, ok := e.(domain.HealthChecker); ok {
		return hc
	}
	return nil
}
