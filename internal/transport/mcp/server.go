// Package mcp exposes retrieval as an MCP tool over stdio.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fusionrag/internal/domain"
	"github.com/kailas-cloud/fusionrag/internal/usecase/retrieval"
	"github.com/kailas-cloud/fusionrag/internal/version"
)

// ServerName is the MCP server name.
const ServerName = "fusionrag"

// Retriever runs the hybrid retrieval pipeline.
type Retriever interface {
	Retrieve(ctx context.Context, botID, query string, opts retrieval.Options) ([]domain.Candidate, error)
}

// Server wraps the MCP server with the retrieval pipeline.
type Server struct {
	mcp       *server.MCPServer
	retriever Retriever
	logger    *zap.Logger
}

// NewServer creates an MCP server with the retrieve tool registered.
func NewServer(retriever Retriever, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		mcp: server.NewMCPServer(
			ServerName,
			version.Version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		retriever: retriever,
		logger:    logger,
	}
	s.mcp.AddTool(retrieveTool(), s.handleRetrieve)
	return s
}

// Serve runs the server on stdio and blocks until stdin closes or a signal arrives.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
