package domain

// SimilarityHit is a stored document with its cosine distance to a query vector.
type SimilarityHit struct {
	Document Document
	Distance float64
}

// KeywordHit is a stored document with its full-text rank. Document.ID is the row id.
type KeywordHit struct {
	Document Document
	Rank     float64
}

// WebPage is one open-web search hit.
type WebPage struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Text returns the page as a single passage for embedding and generation.
func (p WebPage) Text() string {
	switch {
	case p.Title == "":
		return p.Content
	case p.Content == "":
		return p.Title
	default:
		return p.Title + "\n" + p.Content
	}
}

// Ranking is one reranker verdict for the candidate at Index. Scored is false
// when the service returned the index without a numeric score.
type Ranking struct {
	Index  int
	Score  float64
	Scored bool
}
