package domain

import "context"

// GenerationRequest is everything the generation engine needs to answer one question.
type GenerationRequest struct {
	Model          string
	PromptTemplate string
	Question       string
	Documents      []Document
	History        []Message
}

// Generator produces an answer grounded on retrieved documents.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}
