package domain

// Bot holds the per-bot settings that shape retrieval and generation.
type Bot struct {
	ID string
	// Model is the chat model identifier used for generation.
	Model string
	// EmbeddingModel is the embedding model identifier.
	EmbeddingModel string
	// QAPrompt is the answer prompt template ({context}, {question}, {chat_history}).
	QAPrompt string
	// DocumentsToRetrieve overrides the retrieval count when positive.
	DocumentsToRetrieve int
	// HistoryWindow is the number of past messages passed to generation.
	HistoryWindow         int
	UseHybridSearch       bool
	InternetSearchEnabled bool
}

// MessageRole is the author of a chat message.
type MessageRole string

const (
	// RoleHuman is a user message.
	RoleHuman MessageRole = "human"
	// RoleAI is a bot message.
	RoleAI MessageRole = "ai"
)

// Message is one entry of a chat history.
type Message struct {
	Role MessageRole `json:"type"`
	Text string      `json:"text"`
}
