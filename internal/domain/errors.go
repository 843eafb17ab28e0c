package domain

import "errors"

var (
	// ErrBotNotFound signals a missing bot.
	ErrBotNotFound = errors.New("bot not found")
	// ErrInvalidQuery signals an empty or malformed query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrRetrievalFailed signals that retrieval could not run. It is distinct
	// from an empty result, which means nothing relevant was found.
	ErrRetrievalFailed = errors.New("retrieval failed")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationFailed signals an answer generation failure.
	ErrGenerationFailed = errors.New("generation failed")
)
