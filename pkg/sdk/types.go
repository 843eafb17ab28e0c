package fusionrag

// Origin tells which retrieval path produced a result.
type Origin string

// Origin constants.
const (
	OriginVector   Origin = "vector"
	OriginKeyword  Origin = "keyword"
	OriginInternet Origin = "internet"
)

// Document is a knowledge base chunk or web page.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]any
	SourceID string
}

// Result is one retrieved document with its fused score.
type Result struct {
	Document Document
	Score    float64
	Origin   Origin
}

// Role is the author of a chat message.
type Role string

// Role constants.
const (
	RoleHuman Role = "human"
	RoleAI    Role = "ai"
)

// Message is one entry of a chat history, oldest first.
type Message struct {
	Role Role
	Text string
}

// Answer is a generated reply with the documents it was grounded on.
type Answer struct {
	Text    string
	Sources []Document
	// Cached is true when the answer came from the generation cache.
	Cached bool
}
