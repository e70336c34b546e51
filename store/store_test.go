package store

import (
	"testing"
)

func TestOpenMemory(t *testing.T) {
	st, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer st.Close()

	if st.Driver() != "sqlite" {
		t.Errorf("driver = %q, want sqlite", st.Driver())
	}
	if err := st.DB().Ping(); err != nil {
		t.Errorf("ping: %v", err)
	}

	// Two statements on (potentially) different pooled connections must see
	// the same database.
	if _, err := st.DB().Exec("CREATE TABLE t (n INTEGER)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	var n int
	if err := st.DB().QueryRow("SELECT COUNT(*) FROM t").Scan(&n); err != nil {
		t.Errorf("table not visible across connections: %v", err)
	}
}

func TestRebindPostgres(t *testing.T) {
	st := &Store{driver: "postgres"}

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "no placeholders",
			query: "SELECT 1",
			want:  "SELECT 1",
		},
		{
			name:  "multiple placeholders",
			query: "INSERT INTO sales_data (product_id, region) VALUES (?, ?)",
			want:  "INSERT INTO sales_data (product_id, region) VALUES ($1, $2)",
		},
		{
			name:  "question mark inside string literal",
			query: "SELECT * FROM t WHERE a = ? AND b = 'what?'",
			want:  "SELECT * FROM t WHERE a = $1 AND b = 'what?'",
		},
		{
			name:  "question mark inside quoted identifier",
			query: `SELECT "odd?col" FROM t WHERE a = ?`,
			want:  `SELECT "odd?col" FROM t WHERE a = $1`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := st.Rebind(tt.query); got != tt.want {
				t.Errorf("Rebind(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestRebindSQLitePassthrough(t *testing.T) {
	st := &Store{driver: "sqlite"}
	query := "INSERT INTO t (a, b) VALUES (?, ?)"
	if got := st.Rebind(query); got != query {
		t.Errorf("Rebind(%q) = %q, want unchanged", query, got)
	}
}
