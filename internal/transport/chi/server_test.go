package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/voclabs/vocd/internal/domain"
	chatuc "github.com/voclabs/vocd/internal/usecase/chat"
	healthuc "github.com/voclabs/vocd/internal/usecase/health"
	insightsuc "github.com/voclabs/vocd/internal/usecase/insights"
)

type stubRetriever struct {
	matches []domain.Match
	err     error
}

func (r *stubRetriever) Search(_ context.Context, _ string) ([]domain.Match, error) {
	return r.matches, r.err
}

type stubGenerator struct {
	reply string
	err   error
}

func (g *stubGenerator) Generate(_ context.Context, _, _ string) (string, error) {
	return g.reply, g.err
}

type stubPinger struct{ err error }

func (p *stubPinger) Ping(_ context.Context) error { return p.err }

type stubChecker struct{ err error }

func (c *stubChecker) HealthCheck(_ context.Context) error { return c.err }

const insightsDoc = `{"insights":[{"title":"Mobile adoption","trend":"up"}]}`

func newTestServer(t *testing.T, retriever chatuc.Retriever, generator chatuc.Generator, db *stubPinger) http.Handler {
	t.Helper()

	path := filepath.Join(t.TempDir(), "insights.json")
	if err := os.WriteFile(path, []byte(insightsDoc), 0o600); err != nil {
		t.Fatalf("write insights file: %v", err)
	}
	insightsSvc, err := insightsuc.Load(path)
	if err != nil {
		t.Fatalf("load insights: %v", err)
	}

	chatSvc := chatuc.New(retriever, generator, chatuc.Config{ContextPosts: 3, BodyCap: 500}, zap.NewNop())
	healthSvc := healthuc.New(db, &stubChecker{})

	srv := NewServer(chatSvc, insightsSvc, healthSvc, zap.NewNop())
	r := chirouter.NewRouter()
	srv.Register(r)
	return r
}

func postChat(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestChat_HappyPath(t *testing.T) {
	retriever := &stubRetriever{matches: []domain.Match{
		{ID: 1, Title: "Savings trends", Body: "Deposits grew 4% quarter over quarter.", Similarity: 0.91},
	}}
	h := newTestServer(t, retriever, &stubGenerator{reply: "Deposits are growing."}, &stubPinger{})

	rr := postChat(t, h, `{"message":"How are deposits doing?"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, http.StatusOK, rr.Body.String())
	}
	var resp ChatResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Response != "Deposits are growing." {
		t.Errorf("response: got %q", resp.Response)
	}
}

func TestChat_EmptyMessage_400(t *testing.T) {
	h := newTestServer(t, &stubRetriever{}, &stubGenerator{reply: "x"}, &stubPinger{})

	rr := postChat(t, h, `{"message":"   "}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != ErrorCodeValidationFailed {
		t.Errorf("error code: got %s, want %s", errResp.Code, ErrorCodeValidationFailed)
	}
}

func TestChat_MalformedBody_400(t *testing.T) {
	h := newTestServer(t, &stubRetriever{}, &stubGenerator{reply: "x"}, &stubPinger{})

	rr := postChat(t, h, `{"message":`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != ErrorCodeBadRequest {
		t.Errorf("error code: got %s, want %s", errResp.Code, ErrorCodeBadRequest)
	}
}

func TestChat_GenerationFailure_200GenericReply(t *testing.T) {
	gen := &stubGenerator{err: domain.ErrProviderError}
	h := newTestServer(t, &stubRetriever{}, gen, &stubPinger{})

	rr := postChat(t, h, `{"message":"what about loan growth this year"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp ChatResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(resp.Response, "I apologize") {
		t.Errorf("expected generic reply, got %q", resp.Response)
	}
}

func TestInsights_ServedVerbatim(t *testing.T) {
	h := newTestServer(t, &stubRetriever{}, &stubGenerator{reply: "x"}, &stubPinger{})

	req := httptest.NewRequest("GET", "/llm/banking-insights", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type: got %q", ct)
	}
	if rr.Body.String() != insightsDoc {
		t.Errorf("body: got %q, want %q", rr.Body.String(), insightsDoc)
	}
}

func TestHealth_AllHealthy_200(t *testing.T) {
	h := newTestServer(t, &stubRetriever{}, &stubGenerator{reply: "x"}, &stubPinger{})

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status field: got %q, want ok", resp.Status)
	}
	if resp.Checks["database"] != "ok" {
		t.Errorf("database check: got %q", resp.Checks["database"])
	}
}

func TestHealth_DatabaseDown_503(t *testing.T) {
	h := newTestServer(t, &stubRetriever{}, &stubGenerator{reply: "x"}, &stubPinger{err: errors.New("connection refused")})

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "degraded" {
		t.Errorf("status field: got %q, want degraded", resp.Status)
	}
}

func TestMetrics_Exposed(t *testing.T) {
	h := newTestServer(t, &stubRetriever{}, &stubGenerator{reply: "x"}, &stubPinger{})

	req := httptest.NewRequest("GET", "/metrics", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), "go_goroutines") {
		t.Errorf("expected default runtime metrics in output")
	}
}
