package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fusionrag/internal/domain"
	"github.com/kailas-cloud/fusionrag/internal/metrics"
)

// Adapter names used in logs and metric labels.
const (
	adapterVector   = "vector"
	adapterKeyword  = "keyword"
	adapterInternet = "internet"
	adapterRerank   = "rerank"
)

// MaxRerankTopN caps how many candidates the reranker is asked to score.
const MaxRerankTopN = 10

// VectorAdapter turns similarity hits into candidates scored 1 - distance.
type VectorAdapter struct {
	store DocumentStore
}

// NewVectorAdapter creates a vector search adapter.
func NewVectorAdapter(store DocumentStore) *VectorAdapter {
	return &VectorAdapter{store: store}
}

// Search returns up to k candidates nearest to embedding. Vector candidates
// carry no dedupe key.
func (a *VectorAdapter) Search(
	ctx context.Context, botID string, embedding []float32, k int, sourceIDs []string,
) ([]domain.Candidate, error) {
	hits, err := a.store.FindSimilar(ctx, botID, embedding, k, sourceIDs)
	if err != nil {
		return nil, fmt.Errorf("find similar: %w", err)
	}
	out := make([]domain.Candidate, len(hits))
	for i, h := range hits {
		out[i] = domain.Candidate{
			Document: h.Document,
			Score:    1 - h.Distance,
			Origin:   domain.OriginVector,
		}
	}
	return out, nil
}

// KeywordAdapter turns lexical hits into candidates keyed by row id.
type KeywordAdapter struct {
	store DocumentStore
}

// NewKeywordAdapter creates a keyword search adapter.
func NewKeywordAdapter(store DocumentStore) *KeywordAdapter {
	return &KeywordAdapter{store: store}
}

// Search returns up to k lexical matches scored rank * KeywordScoreScale.
func (a *KeywordAdapter) Search(ctx context.Context, botID, query string, k int) ([]domain.Candidate, error) {
	hits, err := a.store.FindByKeyword(ctx, botID, query, k)
	if err != nil {
		return nil, fmt.Errorf("find by keyword: %w", err)
	}
	out := make([]domain.Candidate, len(hits))
	for i, h := range hits {
		out[i] = domain.Candidate{
			Document:  h.Document,
			Score:     h.Rank * KeywordScoreScale,
			DedupeKey: h.Document.ID,
			Origin:    domain.OriginKeyword,
		}
	}
	return out, nil
}

// InternetAdapter scores web pages by cosine similarity to the query vector.
// Every failure yields an empty result.
type InternetAdapter struct {
	searcher WebSearcher
	embed    domain.Embedder
	logger   *zap.Logger
}

// NewInternetAdapter creates an internet augmentation adapter.
func NewInternetAdapter(searcher WebSearcher, embed domain.Embedder, logger *zap.Logger) *InternetAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InternetAdapter{searcher: searcher, embed: embed, logger: logger}
}

// Search returns web pseudo-documents scored in [0,1].
func (a *InternetAdapter) Search(ctx context.Context, query string, queryVec []float32) []domain.Candidate {
	if a == nil || a.searcher == nil {
		return nil
	}

	pages, err := a.searcher.Search(ctx, query)
	if err != nil {
		a.degrade(err)
		return nil
	}
	if len(pages) == 0 {
		return nil
	}

	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.Text()
	}
	res, err := domain.EmbedAll(ctx, a.embed, texts)
	if err != nil {
		a.degrade(err)
		return nil
	}
	if len(res.Embeddings) != len(pages) {
		a.degrade(fmt.Errorf("got %d embeddings for %d pages", len(res.Embeddings), len(pages)))
		return nil
	}

	out := make([]domain.Candidate, len(pages))
	for i, p := range pages {
		out[i] = domain.Candidate{
			Document: domain.Document{
				ID:       p.URL,
				Content:  texts[i],
				Metadata: map[string]any{"source": p.URL, "title": p.Title},
				SourceID: domain.InternetSourceID,
			},
			Score:  cosine(queryVec, res.Embeddings[i]),
			Origin: domain.OriginInternet,
		}
	}
	return out
}

func (a *InternetAdapter) degrade(err error) {
	metrics.AdapterErrorsTotal.WithLabelValues(adapterInternet).Inc()
	a.logger.Warn("Internet search degraded to empty", zap.String("adapter", adapterInternet), zap.Error(err))
}

// cosine returns the cosine similarity of a and b clamped to [0,1].
// Mismatched or zero vectors score 0.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	s := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(0, math.Min(1, s))
}

// RerankAdapter reorders candidates by an external relevance score. It never
// fails: any error returns the input unchanged.
type RerankAdapter struct {
	reranker Reranker
	logger   *zap.Logger
}

// NewRerankAdapter creates a rerank adapter.
func NewRerankAdapter(r Reranker, logger *zap.Logger) *RerankAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RerankAdapter{reranker: r, logger: logger}
}

// Rerank asks for the top min(MaxRerankTopN, len(cands)) and moves the scored
// candidates to the front in relevance order. Candidates the service did not
// score keep their relative order behind them. Scores are left untouched.
func (a *RerankAdapter) Rerank(ctx context.Context, query string, cands []domain.Candidate) []domain.Candidate {
	if a == nil || a.reranker == nil || len(cands) == 0 {
		return cands
	}

	docs := make([]string, len(cands))
	for i, c := range cands {
		docs[i] = c.Document.Content
	}

	rankings, err := a.reranker.Rerank(ctx, query, docs, min(MaxRerankTopN, len(cands)))
	if err != nil {
		return a.fallback(cands, err)
	}

	scored := make([]domain.Ranking, 0, len(rankings))
	taken := make(map[int]bool, len(rankings))
	for _, r := range rankings {
		if !r.Scored || r.Index < 0 || r.Index >= len(cands) || taken[r.Index] {
			continue
		}
		taken[r.Index] = true
		scored = append(scored, r)
	}
	if len(scored) == 0 {
		return a.fallback(cands, fmt.Errorf("no usable rankings in %d entries", len(rankings)))
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	out := make([]domain.Candidate, 0, len(cands))
	for _, r := range scored {
		out = append(out, cands[r.Index])
	}
	for i, c := range cands {
		if !taken[i] {
			out = append(out, c)
		}
	}

	metrics.RerankTotal.WithLabelValues("reranked").Inc()
	return out
}

func (a *RerankAdapter) fallback(cands []domain.Candidate, err error) []domain.Candidate {
	metrics.RerankTotal.WithLabelValues("fallback").Inc()
	a.logger.Warn("Rerank fell back to original order", zap.String("adapter", adapterRerank), zap.Error(err))
	return cands
}
