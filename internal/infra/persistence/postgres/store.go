// Package postgres persists the country snapshot to a PostgreSQL table.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"countryview/internal/infra/persistence/tablecodec"
	"countryview/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.CountryStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/countryview?sslmode=disable"
)

const schema = `CREATE TABLE IF NOT EXISTS countries (
	position BIGINT PRIMARY KEY,
	common_name TEXT NOT NULL,
	official_name TEXT NOT NULL,
	capital TEXT NOT NULL,
	region TEXT NOT NULL,
	population TEXT NOT NULL,
	area TEXT NOT NULL,
	population_count BIGINT NOT NULL,
	area_count BIGINT NOT NULL,
	group_label TEXT NOT NULL
)`

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store rewrites the countries table as a whole on every replace.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to defaultDSN) and ensures the countries table exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create countries table: %w", err)
	}
	return &Store{db: db}, nil
}

// ReplaceCountries truncates the table and inserts countries in one
// transaction.
func (s *Store) ReplaceCountries(ctx context.Context, countries []domain.Country) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, "TRUNCATE TABLE "+tablecodec.Table); err != nil {
		return fmt.Errorf("truncate countries: %w", err)
	}
	if err := tablecodec.InsertAll(ctx, tx, tablecodec.InsertStatement(tablecodec.Dollar), countries); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// Countries returns the stored rows in write order.
func (s *Store) Countries(ctx context.Context) ([]domain.Country, error) {
	rows, err := s.db.QueryContext(ctx, tablecodec.SelectStatement())
	if err != nil {
		return nil, fmt.Errorf("query countries: %w", err)
	}
	return tablecodec.ScanAll(rows)
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
