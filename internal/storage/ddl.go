package storage

import (
	"fmt"
	"regexp"
	"strings"

	"consumption-pipeline/internal/model"
)

// identifierRe allows alphanumeric + underscores, starting with a letter or underscore.
var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// maxIdentifierLen is the Postgres identifier limit (NAMEDATALEN-1).
const maxIdentifierLen = 63

// ValidateIdentifier checks that a table name is safe to interpolate
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("table name is required")
	}
	if len(name) > maxIdentifierLen {
		return fmt.Errorf("table name %q must be at most %d characters", name, maxIdentifierLen)
	}
	if !identifierRe.MatchString(name) {
		return fmt.Errorf("table name %q must match [a-zA-Z_][a-zA-Z0-9_]*", name)
	}
	return nil
}

// QuoteIdentifier wraps name in double quotes, doubling embedded quotes
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// CreateTableSQL builds the idempotent DDL for a target table
func CreateTableSQL(table string) string {
	cols := make([]string, len(model.Columns))
	for i, c := range model.Columns {
		cols[i] = fmt.Sprintf("    %s %s", c.Name, c.Type)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)", QuoteIdentifier(table), strings.Join(cols, ",\n"))
}

// InsertSQL builds a single-row insert with ? placeholders
func InsertSQL(table string) string {
	names := model.ColumnNames()
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", QuoteIdentifier(table), strings.Join(names, ", "), marks)
}

// CountSQL builds the row count query used by verification
func CountSQL(table string) string {
	return fmt.Sprintf("SELECT COUNT(1) FROM %s", QuoteIdentifier(table))
}

// DeleteAllSQL builds the statement that clears a date table under RerunReplace
func DeleteAllSQL(table string) string {
	return fmt.Sprintf("DELETE FROM %s", QuoteIdentifier(table))
}
