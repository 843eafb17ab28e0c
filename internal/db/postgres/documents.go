package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/fusionrag/internal/domain"
)

const similarityByBotSQL = `
	SELECT id::text, content, metadata, "sourceId",
	       embedding <=> $1::vector AS distance
	FROM "BotDocument"
	WHERE "botId" = $2
	ORDER BY distance ASC
	LIMIT $3`

const similarityBySourcesSQL = `
	SELECT id::text, content, metadata, "sourceId",
	       embedding <=> $1::vector AS distance
	FROM "BotDocument"
	WHERE "sourceId" = ANY($2::text[])
	ORDER BY distance ASC
	LIMIT $3`

const keywordSQL = `
	SELECT id::text, content, metadata, "sourceId",
	       ts_rank(to_tsvector('english', content), plainto_tsquery('english', $1)) AS rank
	FROM "BotDocument"
	WHERE "botId" = $2
	  AND to_tsvector('english', content) @@ plainto_tsquery('english', $1)
	ORDER BY rank DESC
	LIMIT $3`

// FindSimilar returns the k nearest documents of botID by cosine distance.
// A non-empty sourceIDs restricts the search to those knowledge-base sources.
func (s *Store) FindSimilar(
	ctx context.Context, botID string, embedding []float32, k int, sourceIDs []string,
) ([]domain.SimilarityHit, error) {
	vec := pgvector.NewVector(embedding)

	var (
		rows pgx.Rows
		err  error
	)
	if len(sourceIDs) > 0 {
		rows, err = s.q.Query(ctx, similarityBySourcesSQL, vec, sourceIDs, k)
	} else {
		rows, err = s.q.Query(ctx, similarityByBotSQL, vec, botID, k)
	}
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var hits []domain.SimilarityHit
	for rows.Next() {
		var h domain.SimilarityHit
		doc, err := scanDocument(rows, &h.Distance)
		if err != nil {
			return nil, fmt.Errorf("scan similarity row: %w", err)
		}
		h.Document = doc
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("similarity rows: %w", err)
	}
	return hits, nil
}

// FindByKeyword returns up to k documents of botID matching query, best rank first.
func (s *Store) FindByKeyword(ctx context.Context, botID, query string, k int) ([]domain.KeywordHit, error) {
	rows, err := s.q.Query(ctx, keywordSQL, query, botID, k)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()

	var hits []domain.KeywordHit
	for rows.Next() {
		var h domain.KeywordHit
		doc, err := scanDocument(rows, &h.Rank)
		if err != nil {
			return nil, fmt.Errorf("scan keyword row: %w", err)
		}
		h.Document = doc
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("keyword rows: %w", err)
	}
	return hits, nil
}

// scanDocument reads id, content, metadata, sourceId and one score column.
func scanDocument(rows pgx.Rows, score *float64) (domain.Document, error) {
	var (
		doc      domain.Document
		metadata []byte
		sourceID *string
	)
	if err := rows.Scan(&doc.ID, &doc.Content, &metadata, &sourceID, score); err != nil {
		return domain.Document{}, err //nolint:wrapcheck // wrapped by caller
	}
	if sourceID != nil {
		doc.SourceID = *sourceID
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &doc.Metadata); err != nil {
			return domain.Document{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return doc, nil
}
