package retrieval

import (
	"context"

	"github.com/kailas-cloud/fusionrag/internal/domain"
)

// DocumentStore runs similarity and lexical queries over bot documents.
type DocumentStore interface {
	FindSimilar(
		ctx context.Context, botID string, embedding []float32, k int, sourceIDs []string,
	) ([]domain.SimilarityHit, error)
	FindByKeyword(ctx context.Context, botID, query string, k int) ([]domain.KeywordHit, error)
}

// BotReader loads per-bot settings.
type BotReader interface {
	GetBot(ctx context.Context, botID string) (domain.Bot, error)
}

// WebSearcher queries the open web.
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]domain.WebPage, error)
}

// Reranker scores documents against a query. Rankings may come back in any
// order and may reference only a subset of the documents.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]domain.Ranking, error)
}

// ResponseCache is a fail-open JSON cache.
type ResponseCache interface {
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, value any)
}
