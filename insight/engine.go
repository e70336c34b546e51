package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/chidi-nwosu/insight_db/cache"
	"github.com/chidi-nwosu/insight_db/insight/prompts"
	"github.com/chidi-nwosu/insight_db/store"
)

const (
	queryTimeout   = 45 * time.Second
	executeTimeout = 30 * time.Second
	maxResultRows  = 50
)

// AuditEvent describes one processed question, for the optional audit queue.
type AuditEvent struct {
	AskedAt    time.Time `json:"asked_at"`
	Question   string    `json:"question"`
	Queries    []string  `json:"queries,omitempty"`
	Rows       int       `json:"rows"`
	DurationMS int64     `json:"duration_ms"`
	Cached     bool      `json:"cached"`
	Provider   string    `json:"provider"`
}

// AuditSink receives audit events. Implementations must not block the
// question pipeline for long.
type AuditSink interface {
	Publish(ctx context.Context, ev AuditEvent) error
}

// Engine runs the question pipeline: prompt, clean, parse, guard, execute.
type Engine struct {
	store    *store.Store
	provider Provider
	cache    cache.ResponseCache
	audit    AuditSink
	prompts  *prompts.PromptBuilder
}

// Config wires an Engine. Store and Provider are required; Cache defaults to
// a no-op and Audit may be nil.
type Config struct {
	Store    *store.Store
	Provider Provider
	Cache    cache.ResponseCache
	Audit    AuditSink
}

func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("insight: store is required")
	}
	if cfg.Provider == nil {
		return nil, fmt.Errorf("insight: provider is required")
	}
	c := cfg.Cache
	if c == nil {
		c = cache.Noop{}
	}
	return &Engine{
		store:    cfg.Store,
		provider: cfg.Provider,
		cache:    c,
		audit:    cfg.Audit,
		prompts:  prompts.NewPromptBuilder(),
	}, nil
}

// ProcessQuery answers one natural-language question. The returned response
// is always usable for rendering; hard failures (context cancelled, schema
// unreadable) come back as errors instead.
func (e *Engine) ProcessQuery(ctx context.Context, question string) (*AnalysisResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("insight: empty question")
	}

	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	meta, err := LoadMetadata(ctx, e.store)
	if err != nil {
		return nil, fmt.Errorf("insight: loading schema: %w", err)
	}

	key := CacheKey(question, meta)
	if raw, ok, err := e.cache.Get(ctx, key); err == nil && ok {
		var resp AnalysisResponse
		if err := json.Unmarshal([]byte(raw), &resp); err == nil {
			resp.Cached = true
			e.publishAudit(question, &resp, started)
			return &resp, nil
		}
	}

	prompt := e.prompts.BuildAnalysisPrompt(question, meta.JSON())
	raw, err := e.generate(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return ErrorResponse("The query timed out. Try a more specific question or add more filters (e.g., region, category, date range)."), nil
		}
		return ErrorResponse("%s", e.friendlyError(ctx, question, err)), nil
	}

	resp := ParseResponse(CleanResponse(raw))
	if resp.ResponseType == ResponseAnalysis {
		e.runInsights(ctx, question, resp)
	}

	if blob, err := json.Marshal(resp); err == nil {
		if err := e.cache.Set(ctx, key, string(blob)); err != nil {
			log.Printf("cache set failed: %v", err)
		}
	}

	e.publishAudit(question, resp, started)
	return resp, nil
}

// generate calls the provider with exponential backoff, rotating API keys
// when a request is rate limited.
func (e *Engine) generate(ctx context.Context, prompt string) (string, error) {
	backoff := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

	var lastErr error
	for attempt, wait := range backoff {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		raw, err := e.provider.Generate(ctx, prompt)
		if err == nil && strings.TrimSpace(raw) != "" {
			return raw, nil
		}
		if err == nil {
			err = fmt.Errorf("empty response")
		}
		lastErr = err

		if isRateLimitError(err) {
			if rerr := e.provider.Rotate(ctx); rerr != nil {
				log.Printf("key rotation failed: %v", rerr)
			}
		} else {
			log.Printf("attempt %d failed: %v", attempt+1, err)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}

	return "", fmt.Errorf("all attempts failed, last error: %w", lastErr)
}

// runInsights guards and executes each insight's SQL, attaching result rows.
// A rejected or failing query downgrades that insight to text instead of
// failing the whole response.
func (e *Engine) runInsights(ctx context.Context, question string, resp *AnalysisResponse) {
	for i := range resp.Insights {
		ins := &resp.Insights[i]
		if strings.TrimSpace(ins.SQLQuery) == "" {
			continue
		}
		if err := GuardQuery(ins.SQLQuery); err != nil {
			ins.Note = fmt.Sprintf("query not executed: %v", err)
			continue
		}
		columns, rows, err := e.executeQuery(ctx, ins.SQLQuery)
		if err != nil {
			ins.Note = e.friendlyError(ctx, question, err)
			continue
		}
		ins.Columns = columns
		ins.Rows = rows
	}
}

func (e *Engine) executeQuery(ctx context.Context, query string) ([]string, []map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, executeTimeout)
	defer cancel()

	rows, err := e.store.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var results []map[string]interface{}
	for rows.Next() {
		if len(results) >= maxResultRows {
			break
		}
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, nil, err
		}

		result := make(map[string]interface{}, len(columns))
		for i, column := range columns {
			val := values[i]
			if b, ok := val.([]byte); ok {
				result[column] = string(b)
			} else {
				result[column] = val
			}
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return columns, results, nil
}

// friendlyError asks the model to phrase a failure for the user; if that
// also fails, a generic message is returned.
func (e *Engine) friendlyError(ctx context.Context, question string, cause error) string {
	if ctx.Err() != nil {
		return fmt.Sprintf("Error generating insights: %v", cause)
	}
	msg, err := e.provider.Generate(ctx, e.prompts.BuildErrorPrompt(question, cause))
	if err != nil || strings.TrimSpace(msg) == "" {
		return fmt.Sprintf("Error generating insights: %v", cause)
	}
	return strings.TrimSpace(msg)
}

func (e *Engine) publishAudit(question string, resp *AnalysisResponse, started time.Time) {
	if e.audit == nil {
		return
	}
	ev := AuditEvent{
		AskedAt:    started.UTC(),
		Question:   question,
		DurationMS: time.Since(started).Milliseconds(),
		Cached:     resp.Cached,
		Provider:   e.provider.Name(),
	}
	for _, ins := range resp.Insights {
		if ins.SQLQuery != "" {
			ev.Queries = append(ev.Queries, ins.SQLQuery)
		}
		ev.Rows += len(ins.Rows)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.audit.Publish(ctx, ev); err != nil {
		log.Printf("audit publish failed: %v", err)
	}
}

// Close releases the provider and cache.
func (e *Engine) Close() {
	if e.provider != nil {
		e.provider.Close()
	}
	if e.cache != nil {
		e.cache.Close()
	}
}

// RenderRows writes query results as a compact table.
func RenderRows(w io.Writer, columns []string, rows []map[string]interface{}) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No results found")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(columns)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	for _, result := range rows {
		row := make([]string, 0, len(columns))
		for _, column := range columns {
			value := result[column]
			if value == nil {
				row = append(row, "NULL")
			} else {
				row = append(row, fmt.Sprintf("%v", value))
			}
		}
		table.Append(row)
	}
	table.Render()
}
