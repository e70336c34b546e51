package insight

import (
	"fmt"
	"regexp"
	"strings"
)

// Generated SQL only ever reads. Anything that could write, change schema,
// or escape into a second statement is rejected before execution.
// INTO is on the list because SELECT ... INTO creates and fills a table on
// Postgres; it never appears in a plain read-only SELECT.
var forbiddenKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "ALTER", "CREATE",
	"TRUNCATE", "REPLACE", "MERGE", "GRANT", "REVOKE",
	"ATTACH", "DETACH", "PRAGMA", "VACUUM", "COPY", "INTO",
}

var wordRe = regexp.MustCompile(`[A-Za-z_]+`)

// GuardQuery validates that sql is a single read-only statement.
func GuardQuery(sql string) error {
	trimmed := strings.TrimSpace(sql)
	trimmed = strings.TrimSuffix(trimmed, ";")
	if trimmed == "" {
		return fmt.Errorf("empty SQL query")
	}
	if strings.Contains(trimmed, ";") {
		return fmt.Errorf("multiple SQL statements are not allowed")
	}

	words := wordRe.FindAllString(strings.ToUpper(trimmed), -1)
	if len(words) == 0 {
		return fmt.Errorf("no SQL keywords found")
	}
	if words[0] != "SELECT" && words[0] != "WITH" {
		return fmt.Errorf("only SELECT queries are allowed, got %s", words[0])
	}
	for _, w := range words {
		for _, forbidden := range forbiddenKeywords {
			if w == forbidden {
				return fmt.Errorf("forbidden keyword %s in query", forbidden)
			}
		}
	}
	return nil
}
