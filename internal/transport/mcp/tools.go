package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fusionrag/internal/domain"
	"github.com/kailas-cloud/fusionrag/internal/usecase/retrieval"
)

// ToolRetrieve is the name of the retrieval tool.
const ToolRetrieve = "retrieve"

// maxK bounds the k argument.
const maxK = 50

// RetrieveOutput is the JSON payload of a successful retrieve call.
type RetrieveOutput struct {
	BotID   string             `json:"bot_id"`
	Query   string             `json:"query"`
	Results []domain.Candidate `json:"results"`
}

func retrieveTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolRetrieve,
		Description: "Retrieve the most relevant knowledge base documents for a bot using hybrid vector and keyword search",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"bot_id": map[string]interface{}{
					"type":        "string",
					"description": "Bot whose knowledge base is searched",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language question",
				},
				"k": map[string]interface{}{
					"type":        "integer",
					"description": "Number of documents to return (defaults to the bot setting)",
					"minimum":     1,
					"maximum":     maxK,
				},
			},
			Required: []string{"bot_id", "query"},
		},
	}
}

// handleRetrieve runs retrieval. Failures are reported as tool errors so the
// calling agent can react; only a broken request is a protocol error.
func (s *Server) handleRetrieve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments: expected an object"), nil
	}

	botID := getStringDefault(args, "bot_id", "")
	if botID == "" {
		return mcp.NewToolResultError("bot_id parameter is required"), nil
	}
	query := getStringDefault(args, "query", "")

	k := getIntDefault(args, "k", 0)
	if k < 0 || k > maxK {
		return mcp.NewToolResultError(fmt.Sprintf("k must be between 1 and %d", maxK)), nil
	}

	results, err := s.retriever.Retrieve(ctx, botID, query, retrieval.Options{K: k})
	if err != nil {
		s.logger.Warn("retrieve tool failed", zap.String("bot_id", botID), zap.Error(err))
		return mcp.NewToolResultError(toolErrorMessage(err)), nil
	}
	if results == nil {
		results = []domain.Candidate{}
	}

	body, err := json.Marshal(RetrieveOutput{BotID: botID, Query: query, Results: results})
	if err != nil {
		return nil, fmt.Errorf("marshal retrieve output: %w", err)
	}
	return mcp.NewToolResultText(string(body)), nil
}

func toolErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrBotNotFound):
		return "bot not found"
	case errors.Is(err, domain.ErrInvalidQuery):
		return "query must not be empty"
	case errors.Is(err, domain.ErrRetrievalFailed):
		return "retrieval failed"
	default:
		return "internal error"
	}
}

// getIntDefault extracts an integer parameter with a default value.
// JSON numbers decode as float64.
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
