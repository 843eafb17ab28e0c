// Package cohere is a client for the Cohere rerank endpoint.
package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fusionrag/internal/domain"
	"github.com/kailas-cloud/fusionrag/internal/metrics"
)

// Defaults for the rerank client.
const (
	DefaultBaseURL = "https://api.cohere.ai"
	DefaultModel   = "rerank-english-v3.0"
	DefaultTimeout = 30 * time.Second

	providerName = "cohere"
	maxErrorBody = 4 << 10
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("cohere: api key not configured")

// Config holds the rerank client settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Client calls POST /v2/rerank.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
	logger  *zap.Logger
}

// New creates a rerank client. Empty fields fall back to defaults.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger,
	}
}

// Configured reports whether the client has credentials.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model"`
	TopN      int      `json:"top_n,omitempty"`
}

// Rerank scores documents against query and returns rankings in the order
// the service returned them. topN <= 0 lets the service decide.
func (c *Client) Rerank(ctx context.Context, query string, documents []string, topN int) ([]domain.Ranking, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	start := time.Now()
	rankings, err := c.do(ctx, query, documents, topN)
	metrics.ObserveProviderCall(providerName, metrics.OpRerank, err, time.Since(start).Seconds())
	return rankings, err
}

func (c *Client) do(ctx context.Context, query string, documents []string, topN int) ([]domain.Ranking, error) {
	payload, err := json.Marshal(rerankRequest{
		Query:     query,
		Documents: documents,
		Model:     c.model,
		TopN:      topN,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/rerank", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create rerank request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cohere rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("cohere rerank error: status=%d body=%s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read rerank response: %w", err)
	}
	return ParseRankings(body)
}
