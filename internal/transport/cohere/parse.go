package cohere

import (
	"errors"

	"github.com/tidwall/gjson"

	"github.com/kailas-cloud/fusionrag/internal/domain"
)

// ErrMalformedResponse is returned when the body holds no recognizable ranking list.
var ErrMalformedResponse = errors.New("cohere: malformed rerank response")

// Response shapes seen across SDK and API versions, in lookup order.
var listPaths = []string{"results", "re_rank", "reRank"}

var (
	indexPaths = []string{"index", "document.index"}
	scorePaths = []string{"relevance_score", "relevanceScore", "score"}
)

// ParseRankings extracts rankings from any of the known response shapes:
// an object holding the list under one of listPaths, or a bare array.
// Entries without a numeric index are skipped.
func ParseRankings(body []byte) ([]domain.Ranking, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedResponse
	}

	root := gjson.ParseBytes(body)
	list := root
	if !root.IsArray() {
		list = gjson.Result{}
		for _, p := range listPaths {
			if r := root.Get(p); r.IsArray() {
				list = r
				break
			}
		}
	}
	if !list.IsArray() {
		return nil, ErrMalformedResponse
	}

	var out []domain.Ranking
	list.ForEach(func(_, item gjson.Result) bool {
		idx, ok := firstNumber(item, indexPaths)
		if !ok {
			return true
		}
		score, scored := firstNumber(item, scorePaths)
		out = append(out, domain.Ranking{Index: int(idx.Int()), Score: score.Float(), Scored: scored})
		return true
	})
	return out, nil
}

func firstNumber(item gjson.Result, paths []string) (gjson.Result, bool) {
	for _, p := range paths {
		if r := item.Get(p); r.Type == gjson.Number {
			return r, true
		}
	}
	return gjson.Result{}, false
}
