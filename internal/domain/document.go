package domain

// Origin identifies the retrieval signal that produced a candidate.
type Origin string

const (
	// OriginVector marks dense similarity results.
	OriginVector Origin = "vector"
	// OriginKeyword marks lexical match results.
	OriginKeyword Origin = "keyword"
	// OriginInternet marks open-web pseudo-documents.
	OriginInternet Origin = "internet"
)

// InternetSourceID is the SourceID carried by open-web pseudo-documents.
const InternetSourceID = "internet"

// Document is a retrieved unit of text. Treated as immutable once retrieved.
type Document struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	SourceID string         `json:"source_id,omitempty"`
}

// Candidate is a scored document flowing through fusion.
//
// Score units depend on Origin: vector and internet scores are cosine
// similarities in [0,1], keyword scores are lexical ranks multiplied by
// KeywordScoreScale. They are compared as-is.
//
// DedupeKey is the identity used by fusion. Empty means the candidate has no
// stable identity and is never merged with anything.
type Candidate struct {
	Document  Document `json:"document"`
	Score     float64  `json:"score"`
	DedupeKey string   `json:"dedupe_key,omitempty"`
	Origin    Origin   `json:"origin,omitempty"`
}

// HasDedupeKey reports whether the candidate participates in identity dedupe.
func (c Candidate) HasDedupeKey() bool {
	return c.DedupeKey != ""
}

// Documents strips scores and returns the underlying documents in order.
func Documents(cands []Candidate) []Document {
	docs := make([]Document, len(cands))
	for i, c := range cands {
		docs[i] = c.Document
	}
	return docs
}
