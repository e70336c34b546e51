package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chidi-nwosu/insight_db/insight"
	"github.com/chidi-nwosu/insight_db/migrations"
	"github.com/chidi-nwosu/insight_db/store"
)

type fakeProvider struct {
	reply string
}

func (f *fakeProvider) Name() string { return "fake" }
func (f *fakeProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return f.reply, nil
}
func (f *fakeProvider) Rotate(ctx context.Context) error { return nil }
func (f *fakeProvider) Close() error                     { return nil }

func newTestServer(t *testing.T, reply string) *Server {
	t.Helper()
	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("opening memory store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := migrations.InitSchema(context.Background(), st.DB()); err != nil {
		t.Fatalf("initializing schema: %v", err)
	}

	engine, err := insight.NewEngine(insight.Config{Store: st, Provider: &fakeProvider{reply: reply}})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return New("127.0.0.1:0", engine, st)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, `{"response_type": "info", "answer": "hi"}`)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestPromptsEndpoint(t *testing.T) {
	s := newTestServer(t, `{"response_type": "info", "answer": "hi"}`)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/prompts", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var list []string
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(list) == 0 {
		t.Error("expected at least one suggested prompt")
	}
}

func TestSchemaEndpoint(t *testing.T) {
	s := newTestServer(t, `{"response_type": "info", "answer": "hi"}`)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schema", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var schema map[string][]string
	if err := json.NewDecoder(rec.Body).Decode(&schema); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if _, ok := schema["sales_data"]; !ok {
		t.Errorf("schema missing sales_data: %v", schema)
	}
	if _, ok := schema["product_info"]; !ok {
		t.Errorf("schema missing product_info: %v", schema)
	}
}

func TestAskEndpoint(t *testing.T) {
	s := newTestServer(t, `{"response_type": "info", "answer": "I can summarize sales."}`)

	req := httptest.NewRequest(http.MethodPost, "/api/ask",
		strings.NewReader(`{"question": "what can you tell me?"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	var resp insight.AnalysisResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if resp.ResponseType != insight.ResponseInfo {
		t.Errorf("response type = %q, want %q", resp.ResponseType, insight.ResponseInfo)
	}
	if resp.Answer != "I can summarize sales." {
		t.Errorf("answer = %q", resp.Answer)
	}
}

func TestAskEndpointRejectsBadRequests(t *testing.T) {
	s := newTestServer(t, `{"response_type": "info", "answer": "hi"}`)

	tests := []struct {
		name string
		body string
	}{
		{name: "empty question", body: `{"question": ""}`},
		{name: "whitespace-only question", body: `{"question": "   \t  "}`},
		{name: "malformed json", body: `{"question": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestAskEndpointRequiresPost(t *testing.T) {
	s := newTestServer(t, `{"response_type": "info", "answer": "hi"}`)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ask", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestIndexServesHTML(t *testing.T) {
	s := newTestServer(t, `{"response_type": "info", "answer": "hi"}`)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q, want text/html", ct)
	}
	if !strings.Contains(rec.Body.String(), "Business Insights") {
		t.Error("index page missing the app title")
	}
}
