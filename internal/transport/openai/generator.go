package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fusionrag/internal/domain"
	"github.com/kailas-cloud/fusionrag/internal/metrics"
)

// DefaultQAPrompt is used when a bot has no answer template of its own.
const DefaultQAPrompt = `You are a helpful assistant. Use the following pieces of context to answer the question at the end.
If you don't know the answer, just say that you don't know, don't try to make up an answer.

{context}

Chat history:
{chat_history}

Question: {question}
Helpful answer:`

// Generator answers questions through the chat completions endpoint.
type Generator struct {
	client       *openai.Client
	defaultModel string
	user         string
	provider     string
	logger       *zap.Logger
}

// NewGenerator creates an OpenAI-compatible generation engine.
// cfg.Model is used for bots that do not name a model.
func NewGenerator(cfg *Config) *Generator {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		client:       newClient(cfg),
		defaultModel: cfg.Model,
		user:         cfg.User,
		provider:     providerName(cfg),
		logger:       logger,
	}
}

// Generate implements domain.Generator.
func (g *Generator) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = g.defaultModel
	}

	creq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: RenderPrompt(req)},
		},
		User: g.user,
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, creq)
	if err == nil && len(resp.Choices) == 0 {
		err = fmt.Errorf("empty completion response: %w", domain.ErrGenerationFailed)
	}
	metrics.ObserveProviderCall(g.provider, metrics.OpGenerate, err, time.Since(start).Seconds())
	if err != nil {
		g.logger.Warn("Generation failed", zap.String("model", model), zap.Error(err))
		return "", parseAPIError(err, domain.ErrGenerationFailed)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// RenderPrompt fills {context}, {question} and {chat_history} in the request's template.
func RenderPrompt(req domain.GenerationRequest) string {
	tmpl := req.PromptTemplate
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultQAPrompt
	}

	contents := make([]string, 0, len(req.Documents))
	for _, d := range req.Documents {
		contents = append(contents, d.Content)
	}

	r := strings.NewReplacer(
		"{context}", strings.Join(contents, "\n\n"),
		"{question}", req.Question,
		"{chat_history}", formatHistory(req.History),
	)
	return r.Replace(tmpl)
}

func formatHistory(history []domain.Message) string {
	var b strings.Builder
	for i, m := range history {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch m.Role {
		case domain.RoleAI:
			b.WriteString("Assistant: ")
		default:
			b.WriteString("Human: ")
		}
		b.WriteString(m.Text)
	}
	return b.String()
}
