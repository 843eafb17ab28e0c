// Package chat answers questions from retrieved documents, behind the
// generation-tier response cache.
package chat

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fusionrag/internal/cachekey"
	"github.com/kailas-cloud/fusionrag/internal/domain"
	"github.com/kailas-cloud/fusionrag/internal/usecase/retrieval"
)

// Answer is a generated reply with the documents it was grounded on.
type Answer struct {
	Text            string            `json:"text"`
	SourceDocuments []domain.Document `json:"sourceDocuments"`
	Cached          bool              `json:"cached"`
}

// Service wraps retrieval and generation.
type Service struct {
	bots      BotReader
	retriever Retriever
	generator domain.Generator
	cache     ResponseCache
	logger    *zap.Logger
}

// New creates a chat service. cache may be nil.
func New(bots BotReader, retriever Retriever, generator domain.Generator, cache ResponseCache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		bots:      bots,
		retriever: retriever,
		generator: generator,
		cache:     cache,
		logger:    logger,
	}
}

// Answer replies to question in the context of history. A cached answer for
// the same bot, model, prompt, question and history window is returned
// without retrieval or generation.
func (s *Service) Answer(ctx context.Context, botID, question string, history []domain.Message) (Answer, error) {
	q := cachekey.NormalizeQuestion(question)
	if q == "" {
		return Answer{}, fmt.Errorf("%w: empty question", domain.ErrInvalidQuery)
	}

	bot, err := s.bots.GetBot(ctx, botID)
	if err != nil {
		return Answer{}, fmt.Errorf("get bot: %w", err)
	}

	key := cachekey.GenerationKey(bot.ID, bot.Model, bot.QAPrompt, q, bot.HistoryWindow)
	if s.cache != nil {
		var cached Answer
		if s.cache.Get(ctx, key, &cached) {
			cached.Cached = true
			return cached, nil
		}
	}

	cands, err := s.retriever.Retrieve(ctx, bot.ID, q, retrieval.Options{})
	if err != nil {
		return Answer{}, fmt.Errorf("retrieve: %w", err)
	}
	docs := domain.Documents(cands)

	text, err := s.generator.Generate(ctx, domain.GenerationRequest{
		Model:          bot.Model,
		PromptTemplate: bot.QAPrompt,
		Question:       q,
		Documents:      docs,
		History:        Window(history, bot.HistoryWindow),
	})
	if err != nil {
		if !errors.Is(err, domain.ErrGenerationFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
		}
		return Answer{}, fmt.Errorf("generate: %w", err)
	}

	ans := Answer{Text: text, SourceDocuments: docs}
	if s.cache != nil {
		s.cache.Set(ctx, key, ans)
	}
	return ans, nil
}

// Window returns the last n messages of history. n <= 0 yields none.
func Window(history []domain.Message, n int) []domain.Message {
	if n <= 0 || len(history) == 0 {
		return nil
	}
	if len(history) > n {
		history = history[len(history)-n:]
	}
	return history
}
