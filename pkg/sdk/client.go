package fusionrag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fusionrag/internal/app"
	"github.com/kailas-cloud/fusionrag/internal/config"
	"github.com/kailas-cloud/fusionrag/internal/domain"
	"github.com/kailas-cloud/fusionrag/internal/usecase/chat"
	"github.com/kailas-cloud/fusionrag/internal/usecase/retrieval"
)

// Внутренние интерфейсы для подмены в тестах.
type retrievalUseCase interface {
	Retrieve(ctx context.Context, botID, query string, opts retrieval.Options) ([]domain.Candidate, error)
}

type chatUseCase interface {
	Answer(ctx context.Context, botID, question string, history []domain.Message) (chat.Answer, error)
}

// Client is the fusionrag SDK entry point.
type Client struct {
	closer    func()
	retriever retrievalUseCase
	chat      chatUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client and connects to the document store and, when
// configured, the cache backend. An unreachable cache disables caching.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.dsn == "" {
		return nil, errors.New("fusionrag: postgres dsn required (use WithPostgres)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var appOpts []app.Option
	if cfg.embedder != nil {
		appOpts = append(appOpts, app.WithEmbedder(&embedderAdapter{inner: cfg.embedder}))
	}

	a, err := app.New(ctx, buildConfig(cfg), zap.NewNop(), appOpts...)
	if err != nil {
		return nil, fmt.Errorf("fusionrag: %w", err)
	}

	return &Client{
		closer:    a.Close,
		retriever: a.Retrieval,
		chat:      a.Chat,
		healthSvc: a.Health,
		obs:       obs,
	}, nil
}

func buildConfig(c *clientConfig) config.Config {
	var cfg config.Config
	cfg.Database.DSN = c.dsn
	cfg.Database.MaxConns = c.maxConns

	cfg.Cache.Driver = c.cacheDriver
	cfg.Cache.URL = c.cacheURL
	if c.cacheTTL != nil {
		sec := int(c.cacheTTL.Seconds())
		cfg.Cache.DefaultTTLSec = &sec
	}

	cfg.Embedding.APIKey = c.openAIKey
	cfg.Embedding.BaseURL = c.openAIBaseURL
	cfg.Embedding.Model = c.embeddingModel
	cfg.Generation.BaseURL = c.openAIBaseURL
	cfg.Generation.Model = c.chatModel

	cfg.Retrieval.DefaultK = c.defaultK
	cfg.Retrieval.Rerank.Enabled = c.rerank
	cfg.Retrieval.Rerank.APIKey = c.rerankAPIKey
	cfg.Retrieval.Rerank.Model = c.rerankModel
	cfg.Retrieval.Internet.BaseURL = c.searxngURL

	cfg.ApplyDefaults()
	return cfg
}

// Close releases all resources.
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

// RetrieveOption narrows a single Retrieve call.
type RetrieveOption func(*retrieval.Options)

// TopK overrides the bot's result count.
func TopK(k int) RetrieveOption {
	return func(o *retrieval.Options) { o.K = k }
}

// InSources restricts vector search to the given knowledge base sources.
func InSources(sourceIDs ...string) RetrieveOption {
	return func(o *retrieval.Options) { o.SourceIDs = sourceIDs }
}

// Retrieve returns the documents most relevant to query for the bot.
// Calls with options bypass the retrieval cache.
func (c *Client) Retrieve(ctx context.Context, botID, query string, opts ...RetrieveOption) (results []Result, err error) {
	start := time.Now()
	defer func() {
		c.obs.observe(call{op: "retrieve", botID: botID, start: start, documents: len(results), err: err})
	}()

	var o retrieval.Options
	for _, fn := range opts {
		fn(&o)
	}

	cands, err := c.retriever.Retrieve(ctx, botID, query, o)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	results = make([]Result, len(cands))
	for i, cand := range cands {
		results[i] = Result{
			Document: fromDomainDocument(cand.Document),
			Score:    cand.Score,
			Origin:   Origin(cand.Origin),
		}
	}
	return results, nil
}

// Ask answers question for the bot, using history as conversation context.
func (c *Client) Ask(ctx context.Context, botID, question string, history []Message) (answer Answer, err error) {
	start := time.Now()
	defer func() {
		c.obs.observe(call{
			op: "ask", botID: botID, start: start,
			documents: len(answer.Sources), cached: answer.Cached, err: err,
		})
	}()

	msgs := make([]domain.Message, len(history))
	for i, m := range history {
		msgs[i] = domain.Message{Role: domain.MessageRole(m.Role), Text: m.Text}
	}

	ans, err := c.chat.Answer(ctx, botID, question, msgs)
	if err != nil {
		return Answer{}, fmt.Errorf("ask: %w", err)
	}

	sources := make([]Document, len(ans.SourceDocuments))
	for i, d := range ans.SourceDocuments {
		sources[i] = fromDomainDocument(d)
	}
	return Answer{Text: ans.Text, Sources: sources, Cached: ans.Cached}, nil
}

func fromDomainDocument(d domain.Document) Document {
	return Document{
		ID:       d.ID,
		Content:  d.Content,
		Metadata: d.Metadata,
		SourceID: d.SourceID,
	}
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
