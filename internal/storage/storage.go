// Package storage selects the durable country snapshot backend.
package storage

import (
	"context"
	"fmt"
	"strings"

	"countryview/internal/config"
	"countryview/internal/infra/persistence/memory"
	"countryview/internal/infra/persistence/postgres"
	"countryview/internal/infra/persistence/sqlite"
	"countryview/pkg/domain"
)

// Driver identifies a concrete snapshot store implementation.
type Driver string

const (
	DriverMemory   Driver = "memory"   // in-memory only (tests / ephemeral)
	DriverSQLite   Driver = "sqlite"   // embedded sqlite file
	DriverPostgres Driver = "postgres" // PostgreSQL server
)

// OpenCountryStore selects a backend from cfg. An empty driver defaults to
// sqlite.
func OpenCountryStore(ctx context.Context, cfg config.Storage) (domain.CountryStore, error) {
	driver := Driver(strings.ToLower(strings.TrimSpace(cfg.Driver)))
	if driver == "" {
		driver = DriverSQLite
	}
	switch driver {
	case DriverMemory:
		return memory.NewStore(), nil
	case DriverSQLite:
		return sqlite.NewStore(cfg.SQLitePath)
	case DriverPostgres:
		return postgres.NewStore(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}
