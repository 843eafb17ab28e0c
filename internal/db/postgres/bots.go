package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kailas-cloud/fusionrag/internal/domain"
)

const botSQL = `
	SELECT id,
	       COALESCE(model, ''),
	       COALESCE(embedding, ''),
	       COALESCE("qaPrompt", ''),
	       COALESCE("noOfDocumentsToRetrieve", 0),
	       COALESCE("noOfChatHistoryInContext", 0),
	       COALESCE(use_hybrid_search, false),
	       COALESCE("internetSearchEnabled", false)
	FROM "Bot"
	WHERE id = $1`

// GetBot loads per-bot settings. A missing bot yields domain.ErrBotNotFound.
func (s *Store) GetBot(ctx context.Context, botID string) (domain.Bot, error) {
	var b domain.Bot
	err := s.q.QueryRow(ctx, botSQL, botID).Scan(
		&b.ID,
		&b.Model,
		&b.EmbeddingModel,
		&b.QAPrompt,
		&b.DocumentsToRetrieve,
		&b.HistoryWindow,
		&b.UseHybridSearch,
		&b.InternetSearchEnabled,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Bot{}, fmt.Errorf("bot %q: %w", botID, domain.ErrBotNotFound)
	}
	if err != nil {
		return domain.Bot{}, fmt.Errorf("get bot: %w", err)
	}
	return b, nil
}
