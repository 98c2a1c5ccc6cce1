// Package catalog loads the merged dataset into the immutable master
// collection and derives the numeric projections once.
package catalog

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"countryview/internal/blob"
	"countryview/pkg/domain"
)

// Catalog is the master collection. It is never mutated after construction;
// accessors hand out copies.
type Catalog struct {
	countries []domain.Country
	source    string
}

// Empty returns a catalog with no records, used when loading fails.
func Empty() *Catalog { return &Catalog{} }

// Load reads the merged flat file at key. A missing key yields
// domain.ErrDataSourceMissing; anything else that prevents decoding yields a
// *domain.ReadError.
func Load(ctx context.Context, store blob.Store, key string) (*Catalog, error) {
	data, err := blob.ReadAll(ctx, store, key)
	if errors.Is(err, blob.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrDataSourceMissing, key)
	}
	if err != nil {
		return nil, &domain.ReadError{Key: key, Err: err}
	}
	countries, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &domain.ReadError{Key: key, Err: err}
	}
	return &Catalog{countries: countries, source: key}, nil
}

// Decode parses a merged CSV stream. Columns are located by header name;
// every merged column is required. Extra columns are ignored.
func Decode(r io.Reader) ([]domain.Country, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("missing header row")
	}
	if err != nil {
		return nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, col := range domain.MergedColumns() {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns %s", strings.Join(missing, ", "))
	}
	var out []domain.Country
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, project(domain.Country{
			CommonName:    rec[idx[domain.ColumnCommonName]],
			OfficialName:  rec[idx[domain.ColumnOfficialName]],
			Capital:       rec[idx[domain.ColumnCapital]],
			Region:        rec[idx[domain.ColumnRegion]],
			PopulationRaw: rec[idx[domain.ColumnPopulation]],
			AreaRaw:       rec[idx[domain.ColumnArea]],
			Group:         rec[idx[domain.ColumnGroup]],
		}))
	}
	return out, nil
}

// FromCountries builds a catalog from records obtained elsewhere (for example
// a database snapshot). Projections are re-derived from the raw text.
func FromCountries(countries []domain.Country, source string) *Catalog {
	out := make([]domain.Country, len(countries))
	for i, c := range countries {
		out[i] = project(c)
	}
	return &Catalog{countries: out, source: source}
}

func project(c domain.Country) domain.Country {
	c.Population = ParseCount(c.PopulationRaw)
	c.Area = ParseCount(c.AreaRaw)
	return c
}

// ParseCount converts stored numeric text to an integer. Surrounding space
// and ',' or '_' digit grouping are accepted; anything else is 0.
func ParseCount(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if strings.ContainsAny(s, ",_") {
		s = strings.NewReplacer(",", "", "_", "").Replace(s)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Len returns the number of records.
func (c *Catalog) Len() int { return len(c.countries) }

// Source names where the records came from.
func (c *Catalog) Source() string { return c.source }

// Countries returns a copy of the master collection in load order.
func (c *Catalog) Countries() []domain.Country { return slices.Clone(c.countries) }

// Groups returns the distinct group labels in ascending order.
func (c *Catalog) Groups() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, country := range c.countries {
		if _, ok := seen[country.Group]; ok {
			continue
		}
		seen[country.Group] = struct{}{}
		out = append(out, country.Group)
	}
	slices.Sort(out)
	return out
}
