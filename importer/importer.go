package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chidi-nwosu/insight_db/store"
)

const (
	DefaultBatchSize   = 500
	DefaultWorkerCount = 4
	MaxRetries         = 3
)

// ColumnMapping defines how source columns map to destination columns
type ColumnMapping struct {
	SourceColumn      string
	DestinationColumn string
	TransformFunc     func(string) (interface{}, error)
}

// ImportConfig holds the configuration for data import
type ImportConfig struct {
	Table          string // "sales_data" or "product_info"
	SourceFile     string
	BatchSize      int
	WorkerCount    int
	ValidateOnly   bool
	ColumnMappings []ColumnMapping
}

// FailedRow records a row that could not be imported
type FailedRow struct {
	Line       int
	RowData    []string
	FailReason string
}

// ImportResult summarizes an import run
type ImportResult struct {
	SuccessCount int
	FailedCount  int
	Failed       []FailedRow
}

// DataImporter handles the import process
type DataImporter struct {
	store        *store.Store
	config       ImportConfig
	mu           sync.Mutex
	failed       []FailedRow
	readFailures int
}

func NewDataImporter(st *store.Store, config ImportConfig) *DataImporter {
	return &DataImporter{
		store:  st,
		config: config,
	}
}

// SalesMappings returns the default mappings for sales_data.csv
func SalesMappings() []ColumnMapping {
	return []ColumnMapping{
		{SourceColumn: "product_id", DestinationColumn: "product_id", TransformFunc: parseInt},
		{SourceColumn: "sales_amount", DestinationColumn: "sales_amount", TransformFunc: parseFloat},
		{SourceColumn: "sale_date", DestinationColumn: "sale_date", TransformFunc: parseDate},
		{SourceColumn: "region", DestinationColumn: "region", TransformFunc: cleanText},
	}
}

// ProductMappings returns the default mappings for product_info.csv
func ProductMappings() []ColumnMapping {
	return []ColumnMapping{
		{SourceColumn: "product_id", DestinationColumn: "product_id", TransformFunc: parseInt},
		{SourceColumn: "product_name", DestinationColumn: "product_name", TransformFunc: cleanText},
		{SourceColumn: "category", DestinationColumn: "category", TransformFunc: cleanText},
		{SourceColumn: "price", DestinationColumn: "price", TransformFunc: parseFloat},
	}
}

// MappingsForTable picks the default mappings for a destination table.
func MappingsForTable(table string) ([]ColumnMapping, error) {
	switch table {
	case "sales_data":
		return SalesMappings(), nil
	case "product_info":
		return ProductMappings(), nil
	default:
		return nil, fmt.Errorf("unknown import table: %s", table)
	}
}

// ImportData imports CSV rows into the configured table using a pool of
// workers. Each batch commits in its own transaction; a bad row is recorded
// and skipped without aborting the rest of the import.
func ImportData(ctx context.Context, st *store.Store, config ImportConfig, reader *csv.Reader) (*ImportResult, error) {
	imp := NewDataImporter(st, config)
	if len(imp.config.ColumnMappings) == 0 {
		mappings, err := MappingsForTable(config.Table)
		if err != nil {
			return nil, err
		}
		imp.config.ColumnMappings = mappings
	}
	return imp.ImportData(ctx, reader)
}

type batch struct {
	startLine int
	rows      [][]string
}

func (d *DataImporter) ImportData(ctx context.Context, reader *csv.Reader) (*ImportResult, error) {
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading headers: %w", err)
	}

	indexes, err := d.resolveColumns(headers)
	if err != nil {
		return nil, fmt.Errorf("header validation failed: %w", err)
	}

	batchSize := d.config.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	workerCount := d.config.WorkerCount
	if workerCount <= 0 {
		workerCount = DefaultWorkerCount
	}

	batches := make(chan batch, workerCount)
	results := make(chan ImportResult, workerCount)

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker := ImportResult{}
			for b := range batches {
				res := d.processBatch(ctx, b, indexes)
				worker.SuccessCount += res.SuccessCount
				worker.FailedCount += res.FailedCount
			}
			results <- worker
		}()
	}

	current := batch{startLine: 2} // line 1 is the header
	line := 1
	readErr := func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			record, err := reader.Read()
			if err == io.EOF {
				return nil
			}
			line++
			if err != nil {
				d.recordFailure(line, nil, fmt.Sprintf("csv read error: %v", err))
				d.mu.Lock()
				d.readFailures++
				d.mu.Unlock()
				continue
			}

			current.rows = append(current.rows, record)
			if len(current.rows) >= batchSize {
				batches <- current
				current = batch{startLine: line + 1}
			}
		}
	}()

	if readErr == nil && len(current.rows) > 0 {
		batches <- current
	}
	close(batches)
	wg.Wait()
	close(results)

	total := ImportResult{}
	for res := range results {
		total.SuccessCount += res.SuccessCount
		total.FailedCount += res.FailedCount
	}
	d.mu.Lock()
	total.Failed = append(total.Failed, d.failed...)
	total.FailedCount += d.readFailures
	d.mu.Unlock()

	if readErr != nil {
		return &total, readErr
	}

	log.Printf("Import complete: %d rows imported, %d failed", total.SuccessCount, total.FailedCount)
	return &total, nil
}

func (d *DataImporter) processBatch(ctx context.Context, b batch, indexes []int) ImportResult {
	result := ImportResult{}
	if d.config.ValidateOnly {
		for i, row := range b.rows {
			if _, err := d.transformRow(row, indexes); err != nil {
				result.FailedCount++
				d.recordFailure(b.startLine+i, row, err.Error())
			} else {
				result.SuccessCount++
			}
		}
		return result
	}

	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		res, rowFailures, err := d.insertBatch(ctx, b, indexes)
		if err == nil {
			// Row failures from a committed attempt are final; failures
			// from rolled-back attempts are discarded so retries do not
			// record the same rows twice.
			d.recordFailures(rowFailures)
			return res
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		time.Sleep(time.Duration(attempt+1) * 100 * time.Millisecond)
	}

	result.FailedCount = len(b.rows)
	d.recordFailure(b.startLine, nil, fmt.Sprintf("batch insert failed: %v", lastErr))
	return result
}

func (d *DataImporter) insertBatch(ctx context.Context, b batch, indexes []int) (ImportResult, []FailedRow, error) {
	result := ImportResult{}
	var rowFailures []FailedRow

	tx, err := d.store.DB().BeginTx(ctx, nil)
	if err != nil {
		return result, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, d.insertSQL())
	if err != nil {
		return result, nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range b.rows {
		values, err := d.transformRow(row, indexes)
		if err != nil {
			result.FailedCount++
			rowFailures = append(rowFailures, FailedRow{Line: b.startLine + i, RowData: row, FailReason: err.Error()})
			continue
		}
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			result.FailedCount++
			rowFailures = append(rowFailures, FailedRow{Line: b.startLine + i, RowData: row, FailReason: fmt.Sprintf("insert failed: %v", err)})
			continue
		}
		result.SuccessCount++
	}

	if err := tx.Commit(); err != nil {
		return ImportResult{}, nil, fmt.Errorf("commit batch: %w", err)
	}
	return result, rowFailures, nil
}

func (d *DataImporter) insertSQL() string {
	columns := make([]string, len(d.config.ColumnMappings))
	marks := make([]string, len(d.config.ColumnMappings))
	for i, m := range d.config.ColumnMappings {
		columns[i] = m.DestinationColumn
		marks[i] = "?"
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.config.Table, strings.Join(columns, ", "), strings.Join(marks, ", "))
	return d.store.Rebind(query)
}

func (d *DataImporter) transformRow(row []string, indexes []int) ([]interface{}, error) {
	values := make([]interface{}, len(d.config.ColumnMappings))
	for i, m := range d.config.ColumnMappings {
		idx := indexes[i]
		if idx >= len(row) {
			return nil, fmt.Errorf("column %s: row too short", m.SourceColumn)
		}
		val, err := m.TransformFunc(row[idx])
		if err != nil {
			return nil, fmt.Errorf("column %s: %v", m.SourceColumn, err)
		}
		values[i] = val
	}
	return values, nil
}

// resolveColumns maps each configured source column to its header position.
// Exact (normalized) matches are preferred; close misspellings are accepted
// when the edit distance is small enough.
func (d *DataImporter) resolveColumns(headers []string) ([]int, error) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeColumn(h)
	}

	indexes := make([]int, len(d.config.ColumnMappings))
	var missing []string
	for i, m := range d.config.ColumnMappings {
		want := normalizeColumn(m.SourceColumn)
		idx := -1
		for j, h := range normalized {
			if h == want {
				idx = j
				break
			}
		}
		if idx == -1 {
			bestDist := 3
			for j, h := range normalized {
				if dist := levenshteinDistance(h, want); dist < bestDist {
					bestDist = dist
					idx = j
				}
			}
			if idx != -1 {
				log.Printf("Mapped column %q to header %q", m.SourceColumn, headers[idx])
			}
		}
		if idx == -1 {
			missing = append(missing, m.SourceColumn)
			continue
		}
		indexes[i] = idx
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %v", missing)
	}
	return indexes, nil
}

func (d *DataImporter) recordFailure(line int, row []string, reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failed = append(d.failed, FailedRow{Line: line, RowData: row, FailReason: reason})
}

func (d *DataImporter) recordFailures(rows []FailedRow) {
	if len(rows) == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failed = append(d.failed, rows...)
}

// AnalyzeFailedImports re-reads a CSV and reports, per failure reason, how
// many rows would not import. No data is written.
func (d *DataImporter) AnalyzeFailedImports(ctx context.Context, reader *csv.Reader) (map[string]int, error) {
	if len(d.config.ColumnMappings) == 0 {
		mappings, err := MappingsForTable(d.config.Table)
		if err != nil {
			return nil, err
		}
		d.config.ColumnMappings = mappings
	}

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading headers: %w", err)
	}
	indexes, err := d.resolveColumns(headers)
	if err != nil {
		return nil, err
	}

	reasons := make(map[string]int)
	for {
		select {
		case <-ctx.Done():
			return reasons, ctx.Err()
		default:
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			reasons["csv read error"]++
			continue
		}
		if _, err := d.transformRow(record, indexes); err != nil {
			reasons[failureCategory(err)]++
		}
	}
	return reasons, nil
}

// failureCategory collapses per-row errors into stable buckets so the
// analysis report stays readable.
func failureCategory(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, ":"); idx != -1 {
		return msg[:idx]
	}
	return msg
}

func parseInt(s string) (interface{}, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty integer value")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}

func parseFloat(s string) (interface{}, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return nil, fmt.Errorf("empty numeric value")
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	time.RFC3339,
}

// parseDate normalizes the accepted date formats to ISO 8601, which is what
// the generated SQL compares against.
func parseDate(s string) (interface{}, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty date value")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", s)
}

func cleanText(s string) (interface{}, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty text value")
	}
	return s, nil
}

func normalizeColumn(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}

func levenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
