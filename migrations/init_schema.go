package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// RequiredTables are the tables the insight engine queries.
var RequiredTables = []string{"sales_data", "product_info"}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sales_data (
	product_id INTEGER,
	sales_amount REAL,
	sale_date TEXT,
	region TEXT
);
CREATE TABLE IF NOT EXISTS product_info (
	product_id INTEGER PRIMARY KEY,
	product_name TEXT,
	category TEXT,
	price REAL
);
`

// InitSchema creates the sales tables if they do not exist.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// ResetSchema drops and recreates the sales tables.
func ResetSchema(ctx context.Context, db *sql.DB) error {
	for _, table := range RequiredTables {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return InitSchema(ctx, db)
}

// VerifySchema checks that all required tables exist.
func VerifySchema(ctx context.Context, db *sql.DB, driver string) error {
	for _, table := range RequiredTables {
		var exists bool
		var err error
		switch driver {
		case "postgres":
			query := `
				SELECT EXISTS (
					SELECT FROM information_schema.tables
					WHERE table_schema = 'public'
					AND table_name = $1
				)`
			err = db.QueryRowContext(ctx, query, table).Scan(&exists)
		default:
			query := `SELECT COUNT(*) > 0 FROM sqlite_master WHERE type = 'table' AND name = ?`
			err = db.QueryRowContext(ctx, query, table).Scan(&exists)
		}
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("required table %s does not exist", table)
		}
	}
	return nil
}
