package retrieval

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/kailas-cloud/fusionrag/internal/domain"
)

type mockBots struct {
	bot domain.Bot
	err error
}

func (m *mockBots) GetBot(_ context.Context, botID string) (domain.Bot, error) {
	if m.err != nil {
		return domain.Bot{}, m.err
	}
	b := m.bot
	b.ID = botID
	return b, nil
}

type mockStore struct {
	mu sync.Mutex

	similar    []domain.SimilarityHit
	similarErr error
	keyword    []domain.KeywordHit
	keywordErr error

	similarCalls int
	keywordCalls int
	lastK        int
	lastKeywordK int
	lastSources  []string
}

func (m *mockStore) FindSimilar(
	_ context.Context, _ string, _ []float32, k int, sourceIDs []string,
) ([]domain.SimilarityHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.similarCalls++
	m.lastK = k
	m.lastSources = sourceIDs
	return m.similar, m.similarErr
}

func (m *mockStore) FindByKeyword(_ context.Context, _, _ string, k int) ([]domain.KeywordHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keywordCalls++
	m.lastKeywordK = k
	return m.keyword, m.keywordErr
}

type mockEmbedder struct {
	vec    []float32
	byText map[string][]float32
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	if v, ok := m.byText[text]; ok {
		return domain.EmbeddingResult{Embedding: v}, nil
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

type mockWeb struct {
	pages []domain.WebPage
	err   error
	calls int
}

func (m *mockWeb) Search(_ context.Context, _ string) ([]domain.WebPage, error) {
	m.calls++
	return m.pages, m.err
}

type mockReranker struct {
	rankings []domain.Ranking
	err      error
	calls    int
	lastTopN int
	lastDocs []string
}

func (m *mockReranker) Rerank(_ context.Context, _ string, docs []string, topN int) ([]domain.Ranking, error) {
	m.calls++
	m.lastTopN = topN
	m.lastDocs = docs
	return m.rankings, m.err
}

// memCache is an in-memory ResponseCache that round-trips through JSON.
type memCache struct {
	data map[string][]byte
	gets int
	sets int
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) Get(_ context.Context, key string, dst any) bool {
	c.gets++
	b, ok := c.data[key]
	if !ok {
		return false
	}
	return json.Unmarshal(b, dst) == nil
}

func (c *memCache) Set(_ context.Context, key string, value any) {
	c.sets++
	b, err := json.Marshal(value)
	if err == nil {
		c.data[key] = b
	}
}

func doc(id, content string) domain.Document {
	return domain.Document{ID: id, Content: content}
}

func vecCand(id string, score float64) domain.Candidate {
	return domain.Candidate{Document: doc(id, "content-"+id), Score: score, Origin: domain.OriginVector}
}

func kwCand(id string, score float64, key string) domain.Candidate {
	return domain.Candidate{Document: doc(id, "content-"+id), Score: score, DedupeKey: key, Origin: domain.OriginKeyword}
}

func ids(cands []domain.Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Document.ID
	}
	return out
}
