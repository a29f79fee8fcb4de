package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"consumption-pipeline/internal/model"
)

// PostgresStore loads through a pgx pool using COPY
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects and pings the database
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PostgreSQL DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) EnsureTable(ctx context.Context, table model.TableDescriptor) error {
	if err := ValidateIdentifier(table.Name); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, CreateTableSQL(table.Name)); err != nil {
		return fmt.Errorf("create table %s: %w", table.Name, err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, table string, records []model.SourceRecord, policy model.RerunPolicy) (int64, error) {
	if err := ValidateIdentifier(table); err != nil {
		return 0, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin append %s: %w", table, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if policy == model.RerunReplace {
		if _, err := tx.Exec(ctx, DeleteAllSQL(table)); err != nil {
			return 0, fmt.Errorf("clear %s: %w", table, err)
		}
	}

	var n int64
	if len(records) > 0 {
		n, err = tx.CopyFrom(ctx, pgx.Identifier{table}, model.ColumnNames(), pgx.CopyFromRows(copyRows(records)))
		if err != nil {
			return 0, fmt.Errorf("copy into %s: %w", table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit append %s: %w", table, err)
	}
	return n, nil
}

func (s *PostgresStore) Count(ctx context.Context, table string) (int64, error) {
	if err := ValidateIdentifier(table); err != nil {
		return 0, err
	}
	var n int64
	if err := s.pool.QueryRow(ctx, CountSQL(table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// copyRows converts records to COPY rows in model.Columns order
func copyRows(records []model.SourceRecord) [][]any {
	rows := make([][]any, len(records))
	for i, r := range records {
		date := pgtype.Date{}
		if r.AggregationDate != nil {
			date = pgtype.Date{Time: *r.AggregationDate, Valid: true}
		}
		millions := pgtype.Int8{}
		if r.MillionsOfDollar != nil {
			millions = pgtype.Int8{Int64: *r.MillionsOfDollar, Valid: true}
		}
		rows[i] = []any{
			r.Category,
			r.SubCategory,
			date,
			millions,
			pgtype.Timestamp{Time: r.PipelineExcDatetime, Valid: true},
		}
	}
	return rows
}

var _ Store = (*PostgresStore)(nil)
