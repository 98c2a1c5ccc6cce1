// Package tablecodec holds the relational layout of the countries snapshot
// table shared by the sql-backed drivers.
package tablecodec

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"countryview/pkg/domain"
)

// Table is the snapshot table name.
const Table = "countries"

// Columns lists the table columns in insert order. Numeric projections are
// stored next to the raw text so the table can be queried directly.
func Columns() []string {
	return []string{
		"position",
		"common_name",
		"official_name",
		"capital",
		"region",
		"population",
		"area",
		"population_count",
		"area_count",
		"group_label",
	}
}

// Placeholder renders the n-th (1-based) bind parameter for a dialect.
type Placeholder func(n int) string

// Question binds with ? (sqlite).
func Question(int) string { return "?" }

// Dollar binds with $n (postgres).
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// InsertStatement builds the single-row insert for the dialect.
func InsertStatement(ph Placeholder) string {
	cols := Columns()
	binds := make([]string, len(cols))
	for i := range cols {
		binds[i] = ph(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", Table, strings.Join(cols, ", "), strings.Join(binds, ", "))
}

// SelectStatement returns every stored row in write order.
func SelectStatement() string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY position", strings.Join(Columns(), ", "), Table)
}

// Args returns the bind values for one record at position pos.
func Args(pos int, c domain.Country) []any {
	return []any{
		int64(pos),
		c.CommonName,
		c.OfficialName,
		c.Capital,
		c.Region,
		c.PopulationRaw,
		c.AreaRaw,
		c.Population,
		c.Area,
		c.Group,
	}
}

// Execer is the subset of *sql.Tx used to write rows.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// InsertAll writes countries in order using stmt.
func InsertAll(ctx context.Context, ex Execer, stmt string, countries []domain.Country) error {
	for i, c := range countries {
		if _, err := ex.ExecContext(ctx, stmt, Args(i, c)...); err != nil {
			return fmt.Errorf("insert %s row %d: %w", Table, i, err)
		}
	}
	return nil
}

// ScanAll reads rows produced by SelectStatement.
func ScanAll(rows *sql.Rows) ([]domain.Country, error) {
	defer func() { _ = rows.Close() }()
	var out []domain.Country
	for rows.Next() {
		var (
			pos int64
			c   domain.Country
		)
		if err := rows.Scan(&pos, &c.CommonName, &c.OfficialName, &c.Capital, &c.Region,
			&c.PopulationRaw, &c.AreaRaw, &c.Population, &c.Area, &c.Group); err != nil {
			return nil, fmt.Errorf("scan %s: %w", Table, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", Table, err)
	}
	return out, nil
}
