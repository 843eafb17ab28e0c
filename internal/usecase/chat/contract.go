package chat

import (
	"context"

	"github.com/kailas-cloud/fusionrag/internal/domain"
	"github.com/kailas-cloud/fusionrag/internal/usecase/retrieval"
)

// BotReader loads per-bot settings.
type BotReader interface {
	GetBot(ctx context.Context, botID string) (domain.Bot, error)
}

// Retriever produces supporting documents for a question.
type Retriever interface {
	Retrieve(ctx context.Context, botID, query string, opts retrieval.Options) ([]domain.Candidate, error)
}

// ResponseCache is a fail-open JSON cache.
type ResponseCache interface {
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, value any)
}
