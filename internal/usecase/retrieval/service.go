// Package retrieval runs the hybrid retrieval pipeline: query embedding,
// parallel vector and keyword search, fusion, optional internet merge and
// optional rerank, wrapped by the retrieval-tier response cache.
package retrieval

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/fusionrag/internal/cachekey"
	"github.com/kailas-cloud/fusionrag/internal/domain"
	"github.com/kailas-cloud/fusionrag/internal/metrics"
)

const tracerName = "github.com/kailas-cloud/fusionrag/retrieval"

// Span names.
const (
	SpanHybrid   = "retrieval.hybrid"
	SpanInternet = "retrieval.internet"
	SpanRerank   = "retrieval.rerank"
)

// Defaults used when neither the caller nor the bot sets a count.
const (
	DefaultK        = 5
	DefaultKeywordK = 4
)

// Config holds process-wide pipeline settings.
type Config struct {
	DefaultK      int
	KeywordK      int
	RerankEnabled bool
}

// Options are per-call overrides.
type Options struct {
	// K overrides the bot's retrieval count when positive.
	K int
	// SourceIDs restricts vector search to these knowledge-base sources.
	SourceIDs []string
}

func (o Options) isDefault() bool {
	return o.K <= 0 && len(o.SourceIDs) == 0
}

// Service is the retrieval orchestrator.
type Service struct {
	bots     BotReader
	embed    domain.Embedder
	vector   *VectorAdapter
	keyword  *KeywordAdapter
	internet *InternetAdapter
	rerank   *RerankAdapter
	cache    ResponseCache
	cfg      Config
	tracer   trace.Tracer
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithInternet enables web augmentation for bots that turn it on.
func WithInternet(a *InternetAdapter) Option {
	return func(s *Service) { s.internet = a }
}

// WithReranker sets the rerank adapter used when Config.RerankEnabled is true.
func WithReranker(a *RerankAdapter) Option {
	return func(s *Service) { s.rerank = a }
}

// WithCache sets the retrieval-tier response cache.
func WithCache(c ResponseCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithLogger sets the logger for degraded-path warnings.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a retrieval orchestrator.
func New(bots BotReader, store DocumentStore, embed domain.Embedder, cfg Config, opts ...Option) *Service {
	if cfg.DefaultK <= 0 {
		cfg.DefaultK = DefaultK
	}
	if cfg.KeywordK <= 0 {
		cfg.KeywordK = DefaultKeywordK
	}
	s := &Service{
		bots:    bots,
		embed:   embed,
		vector:  NewVectorAdapter(store),
		keyword: NewKeywordAdapter(store),
		cfg:     cfg,
		tracer:  otel.Tracer(tracerName),
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// RerankEnabled reports the global rerank flag, which is part of the
// retrieval cache key.
func (s *Service) RerankEnabled() bool { return s.cfg.RerankEnabled }

// Retrieve returns the best-ranked candidates for query.
//
// An empty result means nothing relevant was found. A failed embedding, or a
// failed vector search with nothing from the keyword side, returns an error
// wrapping domain.ErrRetrievalFailed.
func (s *Service) Retrieve(ctx context.Context, botID, query string, opts Options) ([]domain.Candidate, error) {
	question := cachekey.NormalizeQuestion(query)
	if question == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidQuery)
	}

	bot, err := s.bots.GetBot(ctx, botID)
	if err != nil {
		return nil, fmt.Errorf("get bot: %w", err)
	}

	cacheable := s.cache != nil && opts.isDefault()
	key := cachekey.RetrievalKey(bot.ID, question, bot.UseHybridSearch, s.cfg.RerankEnabled)
	if cacheable {
		var cached []domain.Candidate
		if s.cache.Get(ctx, key, &cached) {
			return cached, nil
		}
	}

	start := time.Now()
	result, err := s.run(ctx, bot, question, opts)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.PipelineDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	if cacheable {
		s.cache.Set(ctx, key, result)
	}
	return result, nil
}

func (s *Service) run(ctx context.Context, bot domain.Bot, question string, opts Options) (_ []domain.Candidate, err error) {
	ctx, span := s.tracer.Start(ctx, SpanHybrid, trace.WithAttributes(
		attribute.String("bot.id", bot.ID),
		attribute.Bool("retrieval.hybrid", bot.UseHybridSearch),
		attribute.Bool("retrieval.internet", bot.InternetSearchEnabled),
		attribute.Bool("retrieval.rerank", s.cfg.RerankEnabled),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	k := s.vectorK(bot, opts)

	emb, err := s.embed.Embed(ctx, question)
	if err != nil {
		metrics.FailReasonTotal.WithLabelValues("embedding").Inc()
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrRetrievalFailed, err)
	}

	var (
		vecRes, kwRes []domain.Candidate
		vecErr, kwErr error
		g             errgroup.Group
	)
	g.Go(func() error {
		vecRes, vecErr = s.vector.Search(ctx, bot.ID, emb.Embedding, k, opts.SourceIDs)
		return nil
	})
	if bot.UseHybridSearch {
		g.Go(func() error {
			kwRes, kwErr = s.keyword.Search(ctx, bot.ID, question, s.keywordK(bot, opts))
			return nil
		})
	}
	_ = g.Wait()

	if kwErr != nil {
		s.degrade(adapterKeyword, kwErr)
		kwRes = nil
	}
	if vecErr != nil {
		if len(kwRes) == 0 {
			metrics.FailReasonTotal.WithLabelValues("vector").Inc()
			return nil, fmt.Errorf("%w: vector search: %w", domain.ErrRetrievalFailed, vecErr)
		}
		s.degrade(adapterVector, vecErr)
		vecRes = nil
	}

	span.SetAttributes(
		attribute.Int("retrieval.vector.count", len(vecRes)),
		attribute.Int("retrieval.keyword.count", len(kwRes)),
	)

	fused := Fuse(k, vecRes, kwRes)

	if bot.InternetSearchEnabled && s.internet != nil {
		fused = s.mergeInternet(ctx, question, emb.Embedding, k, fused)
	}

	if s.cfg.RerankEnabled && s.rerank != nil && len(fused) > 0 {
		fused = s.rerankStage(ctx, question, fused)
	}

	return fused, nil
}

func (s *Service) mergeInternet(
	ctx context.Context, question string, queryVec []float32, k int, fused []domain.Candidate,
) []domain.Candidate {
	ctx, span := s.tracer.Start(ctx, SpanInternet)
	defer span.End()

	web := s.internet.Search(ctx, question, queryVec)
	span.SetAttributes(attribute.Int("retrieval.internet.count", len(web)))
	if len(web) == 0 {
		return fused
	}
	return MergeInternet(k, fused, web)
}

func (s *Service) rerankStage(ctx context.Context, question string, fused []domain.Candidate) []domain.Candidate {
	ctx, span := s.tracer.Start(ctx, SpanRerank, trace.WithAttributes(
		attribute.Int("rerank.candidates", len(fused)),
	))
	defer span.End()

	return s.rerank.Rerank(ctx, question, fused)
}

func (s *Service) degrade(adapter string, err error) {
	metrics.AdapterErrorsTotal.WithLabelValues(adapter).Inc()
	s.logger.Warn("Retrieval adapter degraded to empty",
		zap.String("adapter", adapter),
		zap.Error(err),
	)
}

func (s *Service) vectorK(bot domain.Bot, opts Options) int {
	switch {
	case opts.K > 0:
		return opts.K
	case bot.DocumentsToRetrieve > 0:
		return bot.DocumentsToRetrieve
	default:
		return s.cfg.DefaultK
	}
}

func (s *Service) keywordK(bot domain.Bot, opts Options) int {
	switch {
	case opts.K > 0:
		return opts.K
	case bot.DocumentsToRetrieve > 0:
		return bot.DocumentsToRetrieve
	default:
		return s.cfg.KeywordK
	}
}
