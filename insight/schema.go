package insight

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/chidi-nwosu/insight_db/store"
)

// Metadata describes the queryable tables, in the shape the analysis prompt
// presents to the model: table name -> ordered column names.
type Metadata struct {
	Tables  []string
	Columns map[string][]string
}

// LoadMetadata introspects the live database instead of trusting a
// hard-coded table list, so imported or altered tables show up immediately.
func LoadMetadata(ctx context.Context, st *store.Store) (*Metadata, error) {
	switch st.Driver() {
	case "postgres":
		return loadPostgresMetadata(ctx, st.DB())
	default:
		return loadSQLiteMetadata(ctx, st.DB())
	}
}

func loadSQLiteMetadata(ctx context.Context, db *sql.DB) (*Metadata, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	meta := &Metadata{Columns: make(map[string][]string)}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		meta.Tables = append(meta.Tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, table := range meta.Tables {
		cols, err := sqliteColumns(ctx, db, table)
		if err != nil {
			return nil, err
		}
		meta.Columns[table] = cols
	}
	return meta, nil
}

func sqliteColumns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func loadPostgresMetadata(ctx context.Context, db *sql.DB) (*Metadata, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT table_name, column_name
		FROM information_schema.columns
		WHERE table_schema = 'public'
		ORDER BY table_name, ordinal_position`)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer rows.Close()

	meta := &Metadata{Columns: make(map[string][]string)}
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, err
		}
		if _, seen := meta.Columns[table]; !seen {
			meta.Tables = append(meta.Tables, table)
		}
		meta.Columns[table] = append(meta.Columns[table], column)
	}
	return meta, rows.Err()
}

// JSON renders the metadata the way the prompt template expects it.
func (m *Metadata) JSON() string {
	ordered := make(map[string][]string, len(m.Columns))
	for _, table := range m.Tables {
		ordered[table] = m.Columns[table]
	}
	b, err := json.MarshalIndent(ordered, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Fingerprint is a stable hash of the schema, used to key cached responses
// so schema changes invalidate them.
func (m *Metadata) Fingerprint() string {
	tables := append([]string(nil), m.Tables...)
	sort.Strings(tables)
	h := sha256.New()
	for _, table := range tables {
		h.Write([]byte(table))
		h.Write([]byte{'('})
		h.Write([]byte(strings.Join(m.Columns[table], ",")))
		h.Write([]byte{')'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// CacheKey identifies one question against one schema.
func CacheKey(question string, meta *Metadata) string {
	h := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(question)) + "|" + meta.Fingerprint()))
	return hex.EncodeToString(h[:])
}
