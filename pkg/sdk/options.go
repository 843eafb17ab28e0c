package fusionrag

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	dsn      string
	maxConns int32

	cacheDriver string // "rueidis" or "goredis"
	cacheURL    string
	cacheTTL    *time.Duration

	openAIKey      string
	openAIBaseURL  string
	embeddingModel string
	chatModel      string
	embedder       Embedder

	defaultK     int
	rerankAPIKey string
	rerankModel  string
	rerank       bool
	searxngURL   string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithPostgres sets the document store connection string. Required.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.dsn = dsn
	})
}

// WithMaxConns caps the document store pool size.
func WithMaxConns(n int32) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxConns = n
	})
}

// WithCache enables the response cache over a Redis-compatible server
// using the rueidis driver. Without it every lookup misses.
func WithCache(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = "rueidis"
		c.cacheURL = url
	})
}

// WithGoRedisCache is WithCache using the go-redis driver.
func WithGoRedisCache(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = "goredis"
		c.cacheURL = url
	})
}

// WithCacheTTL sets the response cache entry lifetime. Zero keeps entries without expiry.
// Default: 10 minutes.
func WithCacheTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = &ttl
	})
}

// WithOpenAI sets the API key for embeddings and generation.
func WithOpenAI(apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAIKey = apiKey
	})
}

// WithOpenAIBaseURL points embeddings and generation at an OpenAI-compatible endpoint.
func WithOpenAIBaseURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAIBaseURL = url
	})
}

// WithEmbeddingModel sets the embedding model. It is also part of the
// embedding cache key.
func WithEmbeddingModel(model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.embeddingModel = model
	})
}

// WithChatModel sets the default generation model for bots without one.
func WithChatModel(model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.chatModel = model
	})
}

// WithEmbedder replaces the OpenAI embedding provider.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithDefaultK sets the result count for bots without their own setting.
// Default: 5.
func WithDefaultK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultK = k
	})
}

// WithCohereRerank enables reranking of fused results.
func WithCohereRerank(apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.rerank = true
		c.rerankAPIKey = apiKey
		c.rerankModel = model
	})
}

// WithInternetSearch sets the SearxNG endpoint used for bots with web search enabled.
func WithInternetSearch(searxngURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.searxngURL = searxngURL
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
