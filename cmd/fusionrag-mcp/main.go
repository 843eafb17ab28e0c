// Command fusionrag-mcp serves the retrieve tool over MCP stdio.
// Logs go to stderr; stdout carries the protocol.
package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fusionrag/internal/app"
	"github.com/kailas-cloud/fusionrag/internal/config"
	logpkg "github.com/kailas-cloud/fusionrag/internal/logger"
	"github.com/kailas-cloud/fusionrag/internal/telemetry"
	"github.com/kailas-cloud/fusionrag/internal/transport/mcp"
	"github.com/kailas-cloud/fusionrag/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting fusionrag MCP server",
		zap.String("version", version.Version),
		zap.String("env", env),
	)

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, cfg.Telemetry, logger)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build application", zap.Error(err))
	}
	defer a.Close()

	if err := mcp.NewServer(a.Retrieval, logger).Serve(); err != nil {
		logger.Error("MCP server stopped", zap.Error(err))
	}
}
