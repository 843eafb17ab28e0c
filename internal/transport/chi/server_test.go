package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fusionrag/internal/domain"
	"github.com/kailas-cloud/fusionrag/internal/usecase/chat"
	"github.com/kailas-cloud/fusionrag/internal/usecase/health"
	"github.com/kailas-cloud/fusionrag/internal/usecase/retrieval"
)

type mockRetriever struct {
	results []domain.Candidate
	err     error

	gotBot   string
	gotQuery string
	gotOpts  retrieval.Options
}

func (m *mockRetriever) Retrieve(
	_ context.Context, botID, query string, opts retrieval.Options,
) ([]domain.Candidate, error) {
	m.gotBot, m.gotQuery, m.gotOpts = botID, query, opts
	return m.results, m.err
}

type mockAnswerer struct {
	answer chat.Answer
	err    error

	gotHistory []domain.Message
}

func (m *mockAnswerer) Answer(
	_ context.Context, _, _ string, history []domain.Message,
) (chat.Answer, error) {
	m.gotHistory = history
	return m.answer, m.err
}

type mockHealth struct {
	report health.Report
}

func (m *mockHealth) Check(context.Context) health.Report { return m.report }

func newTestServer(r *mockRetriever, a *mockAnswerer, h *mockHealth, opts ...ServerOption) http.Handler {
	if r == nil {
		r = &mockRetriever{}
	}
	if a == nil {
		a = &mockAnswerer{}
	}
	if h == nil {
		h = &mockHealth{report: health.Report{Status: health.Healthy}}
	}
	return NewServer(r, a, h, nil, opts...).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

func TestRetrieve_OK(t *testing.T) {
	r := &mockRetriever{results: []domain.Candidate{
		{Document: domain.Document{ID: "d1", Content: "alpha"}, Score: 0.9, Origin: domain.OriginVector},
	}}
	h := newTestServer(r, nil, nil)

	rr := do(t, h, http.MethodPost, "/v1/bots/bot-1/retrieve", `{"query":"hello","k":3,"source_ids":["s1"]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	var resp RetrieveResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Document.ID != "d1" {
		t.Fatalf("unexpected results: %+v", resp.Results)
	}

	if r.gotBot != "bot-1" || r.gotQuery != "hello" {
		t.Errorf("retriever got bot=%q query=%q", r.gotBot, r.gotQuery)
	}
	if r.gotOpts.K != 3 || len(r.gotOpts.SourceIDs) != 1 || r.gotOpts.SourceIDs[0] != "s1" {
		t.Errorf("retriever got opts %+v", r.gotOpts)
	}
}

func TestRetrieve_EmptyResultIsArray(t *testing.T) {
	h := newTestServer(&mockRetriever{}, nil, nil)

	rr := do(t, h, http.MethodPost, "/v1/bots/b/retrieve", `{"query":"x"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"results":[]`) {
		t.Errorf("body = %s, want empty results array", rr.Body.String())
	}
}

func TestRetrieve_BadRequests(t *testing.T) {
	h := newTestServer(nil, nil, nil)

	for name, body := range map[string]string{
		"malformed":  `{"query":`,
		"negative k": `{"query":"x","k":-1}`,
	} {
		t.Run(name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/v1/bots/b/retrieve", body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
			if got := decodeError(t, rr).Code; got != CodeBadRequest {
				t.Errorf("code = %s", got)
			}
		})
	}
}

func TestRetrieve_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   ErrorCode
	}{
		{"bot not found", fmt.Errorf("get bot: %w", domain.ErrBotNotFound), http.StatusNotFound, CodeBotNotFound},
		{"invalid query", domain.ErrInvalidQuery, http.StatusBadRequest, CodeInvalidQuery},
		{"retrieval failed", fmt.Errorf("%w: vector search: boom", domain.ErrRetrievalFailed),
			http.StatusBadGateway, CodeRetrievalFailed},
		{"embedding failed", fmt.Errorf("%w: embed query: %w", domain.ErrRetrievalFailed, domain.ErrEmbeddingProviderError),
			http.StatusBadGateway, CodeEmbeddingFailed},
		{"unknown", errors.New("kaboom"), http.StatusInternalServerError, CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(&mockRetriever{err: tt.err}, nil, nil)

			rr := do(t, h, http.MethodPost, "/v1/bots/b/retrieve", `{"query":"x"}`)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			resp := decodeError(t, rr)
			if resp.Code != tt.code {
				t.Errorf("code = %s, want %s", resp.Code, tt.code)
			}
			if strings.Contains(resp.Message, "boom") || strings.Contains(resp.Message, "kaboom") {
				t.Errorf("message leaks internals: %q", resp.Message)
			}
		})
	}
}

func TestChat_OK(t *testing.T) {
	a := &mockAnswerer{answer: chat.Answer{Text: "42", Cached: true}}
	h := newTestServer(nil, a, nil)

	body := `{"question":"meaning?","history":[{"type":"human","text":"hi"},{"type":"ai","text":"hello"}]}`
	rr := do(t, h, http.MethodPost, "/v1/bots/b/chat", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Cache") != "hit" {
		t.Errorf("X-Cache = %q, want hit", rr.Header().Get("X-Cache"))
	}

	var resp chat.Answer
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Text != "42" || !resp.Cached {
		t.Errorf("unexpected answer %+v", resp)
	}
	if resp.SourceDocuments == nil {
		t.Error("sourceDocuments should be an empty array, not null")
	}

	if len(a.gotHistory) != 2 || a.gotHistory[0].Role != domain.RoleHuman || a.gotHistory[1].Text != "hello" {
		t.Errorf("history = %+v", a.gotHistory)
	}
}

func TestChat_GenerationFailed(t *testing.T) {
	a := &mockAnswerer{err: fmt.Errorf("%w: upstream 500", domain.ErrGenerationFailed)}
	h := newTestServer(nil, a, nil)

	rr := do(t, h, http.MethodPost, "/v1/bots/b/chat", `{"question":"q"}`)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}
	if got := decodeError(t, rr).Code; got != CodeGenerationFailed {
		t.Errorf("code = %s", got)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status health.Status
		want   int
	}{
		{health.Healthy, http.StatusOK},
		{health.Degraded, http.StatusOK},
		{health.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			h := newTestServer(nil, nil, &mockHealth{report: health.Report{
				Status: tt.status,
				Checks: map[string]health.CheckResult{health.ComponentDatabase: health.CheckOK},
			}})

			rr := do(t, h, http.MethodGet, "/health", "")
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
			var report health.Report
			if err := json.NewDecoder(rr.Body).Decode(&report); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if report.Status != tt.status {
				t.Errorf("report status = %s", report.Status)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(nil, nil, nil)

	rr := do(t, h, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "go_goroutines") {
		t.Error("metrics exposition missing default collectors")
	}
}

func TestHandler_AuthEnabled(t *testing.T) {
	h := newTestServer(&mockRetriever{}, nil, nil, WithAPIKeys([]string{"secret"}))

	rr := do(t, h, http.MethodPost, "/v1/bots/b/retrieve", `{"query":"x"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/bots/b/retrieve", strings.NewReader(`{"query":"x"}`))
	req.Header.Set("Authorization", "Bearer secret")
	ok := httptest.NewRecorder()
	h.ServeHTTP(ok, req)
	if ok.Code != http.StatusOK {
		t.Fatalf("authorized status = %d", ok.Code)
	}

	if rr := do(t, h, http.MethodGet, "/health", ""); rr.Code != http.StatusOK {
		t.Errorf("health must bypass auth, got %d", rr.Code)
	}
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := decodeError(t, rr).Code; got != CodeInternalError {
		t.Errorf("code = %s", got)
	}
}
