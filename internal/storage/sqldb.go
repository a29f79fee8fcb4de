package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/mattn/go-sqlite3"

	"consumption-pipeline/internal/model"
)

// SQLStore is a database/sql backed store for the sqlite3 and duckdb drivers
type SQLStore struct {
	db     *sql.DB
	driver string
}

// OpenSQL opens and pings a database/sql store
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	if driver != DriverSQLite && driver != DriverDuckDB {
		return nil, fmt.Errorf("unsupported sql driver: %s", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// one writer at a time
		db.SetMaxOpenConns(1)
	}
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	return &SQLStore{db: db, driver: driver}, nil
}

func (s *SQLStore) EnsureTable(ctx context.Context, table model.TableDescriptor) error {
	if err := ValidateIdentifier(table.Name); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, CreateTableSQL(table.Name)); err != nil {
		return fmt.Errorf("create table %s: %w", table.Name, err)
	}
	return nil
}

func (s *SQLStore) Append(ctx context.Context, table string, records []model.SourceRecord, policy model.RerunPolicy) (int64, error) {
	if err := ValidateIdentifier(table); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin append %s: %w", table, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if policy == model.RerunReplace {
		if _, err := tx.ExecContext(ctx, DeleteAllSQL(table)); err != nil {
			return 0, fmt.Errorf("clear %s: %w", table, err)
		}
	}

	var n int64
	if len(records) > 0 {
		stmt, err := tx.PrepareContext(ctx, InsertSQL(table))
		if err != nil {
			return 0, fmt.Errorf("prepare insert %s: %w", table, err)
		}
		defer stmt.Close()

		for _, r := range records {
			if _, err := stmt.ExecContext(ctx, insertArgs(r)...); err != nil {
				return 0, fmt.Errorf("insert into %s: %w", table, err)
			}
			n++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit append %s: %w", table, err)
	}
	return n, nil
}

func (s *SQLStore) Count(ctx context.Context, table string) (int64, error) {
	if err := ValidateIdentifier(table); err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, CountSQL(table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// insertArgs returns the record's values in model.Columns order. NULL cells are untyped nil.
func insertArgs(r model.SourceRecord) []any {
	var date, millions any
	if r.AggregationDate != nil {
		date = *r.AggregationDate
	}
	if r.MillionsOfDollar != nil {
		millions = *r.MillionsOfDollar
	}
	return []any{r.Category, r.SubCategory, date, millions, r.PipelineExcDatetime}
}

var _ Store = (*SQLStore)(nil)
