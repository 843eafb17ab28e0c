package fusionrag

import "github.com/kailas-cloud/fusionrag/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrBotNotFound            = domain.ErrBotNotFound
	ErrInvalidQuery           = domain.ErrInvalidQuery
	ErrRetrievalFailed        = domain.ErrRetrievalFailed
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrGenerationFailed       = domain.ErrGenerationFailed
)
