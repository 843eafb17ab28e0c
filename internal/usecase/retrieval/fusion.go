package retrieval

import (
	"sort"

	"github.com/kailas-cloud/fusionrag/internal/domain"
)

// KeywordScoreScale lifts lexical ranks into the magnitude of cosine similarities.
const KeywordScoreScale = 10

// Fuse merges streams into at most k candidates.
//
// Streams are concatenated in argument order. Candidates sharing a dedupe key
// collapse into the highest-scoring one, the earliest on ties. Candidates
// without a key are never merged. The result is stably sorted by score
// descending, so equal scores keep concatenation order.
func Fuse(k int, streams ...[]domain.Candidate) []domain.Candidate {
	if k <= 0 {
		return []domain.Candidate{}
	}

	var total int
	for _, s := range streams {
		total += len(s)
	}

	merged := make([]domain.Candidate, 0, total)
	seen := make(map[string]int, total)

	for _, s := range streams {
		for _, c := range s {
			if !c.HasDedupeKey() {
				merged = append(merged, c)
				continue
			}
			if i, ok := seen[c.DedupeKey]; ok {
				if c.Score > merged[i].Score {
					merged[i] = c
				}
				continue
			}
			seen[c.DedupeKey] = len(merged)
			merged = append(merged, c)
		}
	}

	return rank(merged, k)
}

// MergeInternet appends web candidates to an already fused set, re-sorts and
// re-truncates to k. Web candidates never take part in identity dedupe.
func MergeInternet(k int, fused, web []domain.Candidate) []domain.Candidate {
	if k <= 0 {
		return []domain.Candidate{}
	}
	merged := make([]domain.Candidate, 0, len(fused)+len(web))
	merged = append(merged, fused...)
	for _, c := range web {
		c.DedupeKey = ""
		merged = append(merged, c)
	}
	return rank(merged, k)
}

func rank(cands []domain.Candidate, k int) []domain.Candidate {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score > cands[j].Score
	})
	if len(cands) > k {
		cands = cands[:k]
	}
	return cands
}
