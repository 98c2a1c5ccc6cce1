// Package sqlite persists the country snapshot to an embedded SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"countryview/internal/infra/persistence/tablecodec"
	"countryview/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

var _ domain.CountryStore = (*Store)(nil)

const defaultPath = "countryview.db"

const schema = `CREATE TABLE IF NOT EXISTS countries (
	position INTEGER PRIMARY KEY,
	common_name TEXT NOT NULL,
	official_name TEXT NOT NULL,
	capital TEXT NOT NULL,
	region TEXT NOT NULL,
	population TEXT NOT NULL,
	area TEXT NOT NULL,
	population_count INTEGER NOT NULL,
	area_count INTEGER NOT NULL,
	group_label TEXT NOT NULL
)`

// Store rewrites the countries table as a whole on every replace.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (creating if needed) the database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create countries table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// ReplaceCountries deletes every stored row and inserts countries in one
// transaction.
func (s *Store) ReplaceCountries(ctx context.Context, countries []domain.Country) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+tablecodec.Table); err != nil {
		return fmt.Errorf("clear countries: %w", err)
	}
	if err := tablecodec.InsertAll(ctx, tx, tablecodec.InsertStatement(tablecodec.Question), countries); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
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

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
