package chat

import (
	"context"
	"encoding/json"

	"github.com/kailas-cloud/fusionrag/internal/domain"
	"github.com/kailas-cloud/fusionrag/internal/usecase/retrieval"
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

type mockRetriever struct {
	cands     []domain.Candidate
	err       error
	calls     int
	lastQuery string
}

func (m *mockRetriever) Retrieve(_ context.Context, _, query string, _ retrieval.Options) ([]domain.Candidate, error) {
	m.calls++
	m.lastQuery = query
	return m.cands, m.err
}

type mockGenerator struct {
	text  string
	err   error
	calls int
	last  domain.GenerationRequest
}

func (m *mockGenerator) Generate(_ context.Context, req domain.GenerationRequest) (string, error) {
	m.calls++
	m.last = req
	return m.text, m.err
}

type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string, dst any) bool {
	b, ok := c.data[key]
	return ok && json.Unmarshal(b, dst) == nil
}

func (c *memCache) Set(_ context.Context, key string, value any) {
	if b, err := json.Marshal(value); err == nil {
		c.data[key] = b
	}
}
