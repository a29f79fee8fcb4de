// Package storage is the relational store the pipeline loads into.
package storage

import (
	"context"
	"fmt"
	"strings"

	"consumption-pipeline/internal/model"
)

// Supported drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
	DriverDuckDB   = "duckdb"
)

// Store is the connection abstraction used by every stage of a run.
type Store interface {
	// EnsureTable creates the table if it does not exist. Existing rows are untouched.
	EnsureTable(ctx context.Context, table model.TableDescriptor) error
	// Append bulk-inserts records into table and returns the number written.
	// With model.RerunReplace the table's rows are deleted first, in the same transaction.
	Append(ctx context.Context, table string, records []model.SourceRecord, policy model.RerunPolicy) (int64, error)
	// Count returns SELECT COUNT(1) FROM table.
	Count(ctx context.Context, table string) (int64, error)
	Close() error
}

// Opener opens a Store scoped to a single run
type Opener func(ctx context.Context) (Store, error)

// Open connects to the store selected by driver
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch strings.ToLower(driver) {
	case DriverPostgres, "pgx":
		return openPostgres(ctx, dsn)
	case DriverSQLite, "sqlite":
		return openSQL(ctx, DriverSQLite, dsn)
	case DriverDuckDB:
		return openSQL(ctx, DriverDuckDB, dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", driver)
	}
}

// openPostgres and openSQL return an untyped nil Store on failure.

func openPostgres(ctx context.Context, dsn string) (Store, error) {
	s, err := OpenPostgres(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openSQL(ctx context.Context, driver, dsn string) (Store, error) {
	s, err := OpenSQL(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewOpener binds driver and dsn into an Opener
func NewOpener(driver, dsn string) Opener {
	return func(ctx context.Context) (Store, error) {
		return Open(ctx, driver, dsn)
	}
}
