// Package websearch queries a SearxNG instance through its JSON API.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/fusionrag/internal/domain"
	"github.com/kailas-cloud/fusionrag/internal/metrics"
)

const (
	defaultMaxResults = 5
	defaultTimeout    = 10 * time.Second
	defaultRPS        = 1.0
	providerName      = "searxng"
	maxErrorBody      = 4 << 10
)

// Config holds the client settings.
type Config struct {
	BaseURL    string
	MaxResults int
	Timeout    time.Duration
	// RPS caps outbound requests per second; burst is one.
	RPS    float64
	Logger *zap.Logger
}

// Client is a rate-limited SearxNG client.
type Client struct {
	baseURL    string
	maxResults int
	http       *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// New creates a client. Empty fields fall back to defaults.
func New(cfg Config) *Client {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RPS <= 0 {
		cfg.RPS = defaultRPS
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		maxResults: cfg.MaxResults,
		http:       &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RPS), 1),
		logger:     cfg.Logger,
	}
}

type searchResponse struct {
	Results []domain.WebPage `json:"results"`
}

// Search returns at most MaxResults hits with non-empty text for query.
func (c *Client) Search(ctx context.Context, query string) ([]domain.WebPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("web search rate limit: %w", err)
	}

	start := time.Now()
	results, err := c.search(ctx, query)
	metrics.ObserveProviderCall(providerName, metrics.OpSearch, err, time.Since(start).Seconds())
	return results, err
}

func (c *Client) search(ctx context.Context, query string) ([]domain.WebPage, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("web search error: status=%d body=%s", resp.StatusCode, string(body))
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]domain.WebPage, 0, min(len(sr.Results), c.maxResults))
	for _, r := range sr.Results {
		if strings.TrimSpace(r.Text()) == "" {
			continue
		}
		out = append(out, r)
		if len(out) == c.maxResults {
			break
		}
	}
	return out, nil
}
