package insight

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/chidi-nwosu/insight_db/cache"
	"github.com/chidi-nwosu/insight_db/store"
)

// fakeProvider replays canned replies in order, repeating the last one.
type fakeProvider struct {
	mu      sync.Mutex
	replies []string
	calls   int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	if idx >= len(f.replies) {
		idx = len(f.replies) - 1
	}
	f.calls++
	return f.replies[idx], nil
}

func (f *fakeProvider) Rotate(ctx context.Context) error { return nil }
func (f *fakeProvider) Close() error                     { return nil }

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// memCache is an in-process ResponseCache for tests.
type memCache struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemCache() *memCache { return &memCache{m: make(map[string]string)} }

func (c *memCache) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *memCache) Set(ctx context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
	return nil
}

func (c *memCache) Close() error { return nil }

// recordSink captures audit events in memory.
type recordSink struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (r *recordSink) Publish(ctx context.Context, ev AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordSink) all() []AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]AuditEvent(nil), r.events...)
}

func seedSalesData(t *testing.T, st *store.Store) {
	t.Helper()
	ctx := context.Background()
	stmts := []string{
		`INSERT INTO product_info (product_id, product_name, category, price) VALUES
			(1, 'Widget', 'Tools', 9.99),
			(2, 'Gadget', 'Electronics', 19.99)`,
		`INSERT INTO sales_data (product_id, sales_amount, sale_date, region) VALUES
			(1, 100.0, '2024-01-01', 'West'),
			(1, 25.0, '2024-01-02', 'West'),
			(2, 50.0, '2024-01-03', 'East')`,
	}
	for _, stmt := range stmts {
		if _, err := st.DB().ExecContext(ctx, stmt); err != nil {
			t.Fatalf("seeding data: %v", err)
		}
	}
}

const analysisReply = `{
	"response_type": "analysis",
	"insights": [
		{
			"insight": "Sales by region",
			"business_value": "Shows where revenue comes from.",
			"sql_query": "SELECT region, SUM(sales_amount) AS total FROM sales_data GROUP BY region ORDER BY total DESC",
			"visualization": "bar_chart",
			"metrics": ["region", "total"]
		}
	]
}`

func newTestEngine(t *testing.T, provider Provider, c cache.ResponseCache, audit AuditSink) (*Engine, *store.Store) {
	t.Helper()
	st := newTestStore(t)
	seedSalesData(t, st)
	engine, err := NewEngine(Config{Store: st, Provider: provider, Cache: c, Audit: audit})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine, st
}

func TestProcessQueryExecutesInsights(t *testing.T) {
	provider := &fakeProvider{replies: []string{analysisReply}}
	engine, _ := newTestEngine(t, provider, nil, nil)

	resp, err := engine.ProcessQuery(context.Background(), "Compare sales across regions")
	if err != nil {
		t.Fatalf("ProcessQuery: %v", err)
	}
	if resp.ResponseType != ResponseAnalysis {
		t.Fatalf("response type = %q, want %q (answer: %s)", resp.ResponseType, ResponseAnalysis, resp.Answer)
	}
	if len(resp.Insights) != 1 {
		t.Fatalf("got %d insights, want 1", len(resp.Insights))
	}

	ins := resp.Insights[0]
	if ins.Note != "" {
		t.Fatalf("unexpected note: %q", ins.Note)
	}
	wantCols := []string{"region", "total"}
	if len(ins.Columns) != 2 || ins.Columns[0] != wantCols[0] || ins.Columns[1] != wantCols[1] {
		t.Errorf("columns = %v, want %v", ins.Columns, wantCols)
	}
	if len(ins.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(ins.Rows))
	}
	// Ordered by total DESC: West (125) before East (50).
	if ins.Rows[0]["region"] != "West" {
		t.Errorf("first row region = %v, want West", ins.Rows[0]["region"])
	}
}

func TestProcessQueryEmptyQuestion(t *testing.T) {
	provider := &fakeProvider{replies: []string{analysisReply}}
	engine, _ := newTestEngine(t, provider, nil, nil)

	if _, err := engine.ProcessQuery(context.Background(), "   "); err == nil {
		t.Error("expected an error for an empty question")
	}
	if provider.callCount() != 0 {
		t.Errorf("provider called %d times for an empty question", provider.callCount())
	}
}

func TestProcessQueryUsesCache(t *testing.T) {
	provider := &fakeProvider{replies: []string{analysisReply}}
	engine, _ := newTestEngine(t, provider, newMemCache(), nil)
	ctx := context.Background()

	first, err := engine.ProcessQuery(ctx, "Compare sales across regions")
	if err != nil {
		t.Fatalf("first ProcessQuery: %v", err)
	}
	if first.Cached {
		t.Error("first response should not be cached")
	}

	second, err := engine.ProcessQuery(ctx, "compare sales across regions")
	if err != nil {
		t.Fatalf("second ProcessQuery: %v", err)
	}
	if !second.Cached {
		t.Error("second response should come from the cache")
	}
	if provider.callCount() != 1 {
		t.Errorf("provider called %d times, want 1", provider.callCount())
	}
	if len(second.Insights) != 1 || len(second.Insights[0].Rows) != 2 {
		t.Error("cached response lost its insight rows")
	}
}

func TestProcessQueryRejectsWriteSQL(t *testing.T) {
	reply := `{
		"response_type": "analysis",
		"insights": [
			{"insight": "cleanup", "sql_query": "DROP TABLE sales_data"}
		]
	}`
	provider := &fakeProvider{replies: []string{reply}}
	engine, st := newTestEngine(t, provider, nil, nil)

	resp, err := engine.ProcessQuery(context.Background(), "drop my data")
	if err != nil {
		t.Fatalf("ProcessQuery: %v", err)
	}
	if resp.ResponseType != ResponseAnalysis {
		t.Fatalf("response type = %q, want %q", resp.ResponseType, ResponseAnalysis)
	}
	ins := resp.Insights[0]
	if !strings.Contains(ins.Note, "query not executed") {
		t.Errorf("note = %q, want rejection note", ins.Note)
	}
	if len(ins.Rows) != 0 {
		t.Errorf("rejected query should not have rows, got %d", len(ins.Rows))
	}

	// The table must still be there.
	var n int
	if err := st.DB().QueryRow("SELECT COUNT(*) FROM sales_data").Scan(&n); err != nil {
		t.Fatalf("sales_data gone after rejected query: %v", err)
	}
}

func TestProcessQueryFriendlyErrorOnBadColumn(t *testing.T) {
	reply := `{
		"response_type": "analysis",
		"insights": [
			{"insight": "bad column", "sql_query": "SELECT missing_col FROM sales_data"}
		]
	}`
	provider := &fakeProvider{replies: []string{reply, "Try asking about regions or categories instead."}}
	engine, _ := newTestEngine(t, provider, nil, nil)

	resp, err := engine.ProcessQuery(context.Background(), "show me missing_col")
	if err != nil {
		t.Fatalf("ProcessQuery: %v", err)
	}
	ins := resp.Insights[0]
	if ins.Note != "Try asking about regions or categories instead." {
		t.Errorf("note = %q, want the model-phrased error", ins.Note)
	}
}

func TestProcessQueryPublishesAudit(t *testing.T) {
	provider := &fakeProvider{replies: []string{analysisReply}}
	sink := &recordSink{}
	engine, _ := newTestEngine(t, provider, nil, sink)

	if _, err := engine.ProcessQuery(context.Background(), "Compare sales across regions"); err != nil {
		t.Fatalf("ProcessQuery: %v", err)
	}

	events := sink.all()
	if len(events) != 1 {
		t.Fatalf("got %d audit events, want 1", len(events))
	}
	ev := events[0]
	if ev.Question != "Compare sales across regions" {
		t.Errorf("audit question = %q", ev.Question)
	}
	if ev.Provider != "fake" {
		t.Errorf("audit provider = %q, want fake", ev.Provider)
	}
	if len(ev.Queries) != 1 {
		t.Errorf("audit queries = %v, want 1 entry", ev.Queries)
	}
	if ev.Rows != 2 {
		t.Errorf("audit rows = %d, want 2", ev.Rows)
	}
	if ev.Cached {
		t.Error("audit event should not be marked cached")
	}
}

func TestNewEngineValidation(t *testing.T) {
	st := newTestStore(t)
	if _, err := NewEngine(Config{Provider: &fakeProvider{replies: []string{"x"}}}); err == nil {
		t.Error("expected an error without a store")
	}
	if _, err := NewEngine(Config{Store: st}); err == nil {
		t.Error("expected an error without a provider")
	}
}

func TestRenderRows(t *testing.T) {
	var buf bytes.Buffer
	RenderRows(&buf, []string{"region", "total"}, []map[string]interface{}{
		{"region": "West", "total": 125.0},
		{"region": "East", "total": nil},
	})
	out := buf.String()
	for _, want := range []string{"REGION", "West", "125", "NULL"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered table missing %q:\n%s", want, out)
		}
	}
}

func TestRenderRowsEmpty(t *testing.T) {
	var buf bytes.Buffer
	RenderRows(&buf, []string{"region"}, nil)
	if !strings.Contains(buf.String(), "No results found") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}
